package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tunefeed/internal/shared"
)

func TestNewCachedTrack(t *testing.T) {
	track := NewCachedTrack(42, "Night Drive", "The Midnights")

	if track.ID() == "" {
		t.Error("expected generated record id")
	}
	if track.CreatedAt().IsZero() || track.UpdatedAt().IsZero() {
		t.Error("expected timestamps to be set")
	}
	if track.Deleted() {
		t.Error("new entry should not be soft deleted")
	}
}

func TestCachedTrackValidate(t *testing.T) {
	valid := func() *CachedTrack {
		track := NewCachedTrack(42, "Night Drive", "The Midnights")
		track.Duration = 215
		return track
	}

	t.Run("valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*CachedTrack)
	}{
		{"missing record id", func(c *CachedTrack) { c.RecordID = "" }},
		{"missing platform id", func(c *CachedTrack) { c.PlatformID = 0 }},
		{"missing title", func(c *CachedTrack) { c.Title = "" }},
		{"missing artist", func(c *CachedTrack) { c.ArtistName = "" }},
		{"negative duration", func(c *CachedTrack) { c.Duration = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			track := valid()
			tc.mutate(track)
			if err := track.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCachedTrackDeleted(t *testing.T) {
	track := NewCachedTrack(42, "Night Drive", "The Midnights")
	now := time.Now()
	track.DeletedAt = &now

	if !track.Deleted() {
		t.Error("expected Deleted to report true")
	}
}
