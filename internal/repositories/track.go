package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/tunefeed/internal/models"
	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
)

// TrackRepository implements models.Repository[*models.CachedTrack].
//
// Feed pages are cached as they are fetched so the export commands work
// offline and repeat browses skip the network. Entries are unique per
// platform track id; duplicates from overlapping pages are ignored.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

const trackColumns = "id, sequence, platform_id, title, artist_name, stream_url, artwork_url, duration, page, created_at, updated_at, deleted_at"

// Create inserts a new [models.CachedTrack] with a generated sequence number.
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	track.Sequence = int64(sequence)

	query := `
		INSERT INTO tracks (id, sequence, platform_id, title, artist_name, stream_url, artwork_url, duration, page, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		track.RecordID,
		track.Sequence,
		track.PlatformID,
		track.Title,
		track.ArtistName,
		track.StreamURL,
		track.ArtworkURL,
		track.Duration,
		track.Page,
		track.Created,
		track.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a cache entry by record ID, excluding soft-deleted entries.
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByPlatformID retrieves a cache entry by the track's platform id.
func (r *TrackRepository) GetByPlatformID(platformID int) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE platform_id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, platformID))
}

// Update modifies an existing cache entry.
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.Updated = now

	query := `
		UPDATE tracks
		SET title = ?, artist_name = ?, stream_url = ?, artwork_url = ?, duration = ?, page = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title,
		track.ArtistName,
		track.StreamURL,
		track.ArtworkURL,
		track.Duration,
		track.Page,
		now,
		track.RecordID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.RecordID)
	}

	return nil
}

// Delete soft-deletes a cache entry by record ID.
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec("UPDATE tracks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return nil
}

// List retrieves cache entries matching the criteria, ordered by sequence.
// Supported keys: artist_name, page.
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`
	args := []any{}

	for _, key := range []string{"artist_name", "page"} {
		if v, ok := criteria[key]; ok {
			query += fmt.Sprintf(" AND %s = ?", key)
			args = append(args, v)
		}
	}
	query += " ORDER BY sequence"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// Count returns the number of live cache entries.
func (r *TrackRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tracks WHERE deleted_at IS NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// Clear soft-deletes every cache entry and returns how many were affected.
func (r *TrackRepository) Clear() (int, error) {
	result, err := r.db.Exec("UPDATE tracks SET deleted_at = ? WHERE deleted_at IS NULL", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

// CacheTrack persists a feed track, silently ignoring duplicates.
func (r *TrackRepository) CacheTrack(track services.Track, page int) error {
	existing, err := r.GetByPlatformID(track.ID)
	if err == nil && existing != nil {
		return nil
	}

	entry := models.NewCachedTrack(track.ID, track.Title, track.ArtistName)
	entry.StreamURL = track.StreamURL
	entry.ArtworkURL = track.ArtworkURL
	entry.Duration = track.Duration
	entry.Page = page

	if err := r.Create(entry); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}

func (r *TrackRepository) scanOne(row *sql.Row) (*models.CachedTrack, error) {
	track := &models.CachedTrack{}
	var deletedAt sql.NullTime

	err := row.Scan(
		&track.RecordID,
		&track.Sequence,
		&track.PlatformID,
		&track.Title,
		&track.ArtistName,
		&track.StreamURL,
		&track.ArtworkURL,
		&track.Duration,
		&track.Page,
		&track.Created,
		&track.Updated,
		&deletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no such cache entry", shared.ErrTrackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	if deletedAt.Valid {
		track.DeletedAt = &deletedAt.Time
	}
	return track, nil
}

func (r *TrackRepository) scanRow(rows *sql.Rows) (*models.CachedTrack, error) {
	track := &models.CachedTrack{}
	var deletedAt sql.NullTime

	err := rows.Scan(
		&track.RecordID,
		&track.Sequence,
		&track.PlatformID,
		&track.Title,
		&track.ArtistName,
		&track.StreamURL,
		&track.ArtworkURL,
		&track.Duration,
		&track.Page,
		&track.Created,
		&track.Updated,
		&deletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	if deletedAt.Valid {
		track.DeletedAt = &deletedAt.Time
	}
	return track, nil
}
