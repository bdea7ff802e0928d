package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/tunefeed/internal/shared"
)

// CachedTrack is a locally persisted copy of a catalog track, used for offline
// feed export and avoiding repeat catalog fetches.
type CachedTrack struct {
	RecordID   string
	Sequence   int64
	PlatformID int // track id on the streaming platform
	Title      string
	ArtistName string
	StreamURL  string
	ArtworkURL string
	Duration   int // seconds
	Page       int // feed page the track was fetched on
	Created    time.Time
	Updated    time.Time
	DeletedAt  *time.Time
}

// NewCachedTrack builds a cache entry with a fresh record id and timestamps.
func NewCachedTrack(platformID int, title, artist string) *CachedTrack {
	now := time.Now()
	return &CachedTrack{
		RecordID:   shared.GenerateID(),
		PlatformID: platformID,
		Title:      title,
		ArtistName: artist,
		Created:    now,
		Updated:    now,
	}
}

// ID returns the unique identifier for this cache entry.
func (t *CachedTrack) ID() string { return t.RecordID }

// CreatedAt returns when this cache entry was created.
func (t *CachedTrack) CreatedAt() time.Time { return t.Created }

// UpdatedAt returns when this cache entry was last updated.
func (t *CachedTrack) UpdatedAt() time.Time { return t.Updated }

// Validate checks that the entry carries the fields the cache requires.
func (t *CachedTrack) Validate() error {
	if t.RecordID == "" {
		return fmt.Errorf("%w: missing record id", shared.ErrInvalidInput)
	}
	if t.PlatformID <= 0 {
		return fmt.Errorf("%w: missing platform id", shared.ErrInvalidInput)
	}
	if t.Title == "" {
		return fmt.Errorf("%w: missing title", shared.ErrInvalidInput)
	}
	if t.ArtistName == "" {
		return fmt.Errorf("%w: missing artist name", shared.ErrInvalidInput)
	}
	if t.Duration < 0 {
		return fmt.Errorf("%w: negative duration", shared.ErrInvalidInput)
	}
	return nil
}

// Deleted reports whether the entry has been soft deleted.
func (t *CachedTrack) Deleted() bool { return t.DeletedAt != nil }
