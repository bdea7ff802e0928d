package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/tunefeed/internal/models"
	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func sampleEntry(platformID int) *models.CachedTrack {
	entry := models.NewCachedTrack(platformID, "Night Drive", "The Midnights")
	entry.StreamURL = "https://cdn.example.com/11.mp3"
	entry.ArtworkURL = "https://cdn.example.com/11.jpg"
	entry.Duration = 215
	entry.Page = 1
	return entry
}

func TestTrackRepositoryCreateGet(t *testing.T) {
	repo := NewTrackRepository(newTestDB(t))

	entry := sampleEntry(11)
	if err := repo.Create(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Sequence == 0 {
		t.Error("expected assigned sequence")
	}

	t.Run("by record id", func(t *testing.T) {
		got, err := repo.Get(entry.RecordID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Title != "Night Drive" || got.Duration != 215 {
			t.Errorf("unexpected entry: %+v", got)
		}
	})

	t.Run("by platform id", func(t *testing.T) {
		got, err := repo.GetByPlatformID(11)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.RecordID != entry.RecordID {
			t.Errorf("unexpected entry: %+v", got)
		}
	})

	t.Run("missing entry", func(t *testing.T) {
		if _, err := repo.Get("no-such-id"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("invalid entry rejected", func(t *testing.T) {
		bad := sampleEntry(12)
		bad.Title = ""
		if err := repo.Create(bad); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestTrackRepositoryUpdate(t *testing.T) {
	repo := NewTrackRepository(newTestDB(t))

	entry := sampleEntry(11)
	if err := repo.Create(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry.Title = "Night Drive (Remaster)"
	if err := repo.Update(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.Get(entry.RecordID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Night Drive (Remaster)" {
		t.Errorf("expected updated title, got %s", got.Title)
	}

	t.Run("missing entry", func(t *testing.T) {
		ghost := sampleEntry(99)
		if err := repo.Update(ghost); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})
}

func TestTrackRepositorySoftDelete(t *testing.T) {
	repo := NewTrackRepository(newTestDB(t))

	entry := sampleEntry(11)
	if err := repo.Create(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.Delete(entry.RecordID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := repo.Get(entry.RecordID); !errors.Is(err, shared.ErrTrackNotFound) {
		t.Errorf("expected soft-deleted entry hidden, got %v", err)
	}

	t.Run("double delete", func(t *testing.T) {
		if err := repo.Delete(entry.RecordID); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})
}

func TestTrackRepositoryList(t *testing.T) {
	repo := NewTrackRepository(newTestDB(t))

	first := sampleEntry(11)
	second := sampleEntry(12)
	second.Title = "Glass City"
	second.ArtistName = "Other Artist"
	second.Page = 2

	for _, entry := range []*models.CachedTrack{first, second} {
		if err := repo.Create(entry); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	t.Run("all", func(t *testing.T) {
		tracks, err := repo.List(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(tracks))
		}
		if tracks[0].Sequence >= tracks[1].Sequence {
			t.Error("expected sequence ordering")
		}
	})

	t.Run("by artist", func(t *testing.T) {
		tracks, err := repo.List(map[string]any{"artist_name": "Other Artist"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 1 || tracks[0].Title != "Glass City" {
			t.Errorf("unexpected result: %+v", tracks)
		}
	})

	t.Run("by page", func(t *testing.T) {
		tracks, err := repo.List(map[string]any{"page": 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 1 || tracks[0].PlatformID != 11 {
			t.Errorf("unexpected result: %+v", tracks)
		}
	})
}

func TestTrackRepositoryCacheTrack(t *testing.T) {
	repo := NewTrackRepository(newTestDB(t))

	track := services.Track{ID: 11, Title: "Night Drive", ArtistName: "The Midnights", Duration: 215}

	if err := repo.CacheTrack(track, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("duplicate ignored", func(t *testing.T) {
		if err := repo.CacheTrack(track, 3); err != nil {
			t.Fatalf("expected duplicate ignored, got %v", err)
		}
		count, err := repo.Count()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 entry, got %d", count)
		}
	})
}

func TestTrackRepositoryClear(t *testing.T) {
	repo := NewTrackRepository(newTestDB(t))

	for id := 11; id <= 13; id++ {
		if err := repo.CacheTrack(services.Track{ID: id, Title: "T", ArtistName: "A"}, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	cleared, err := repo.Clear()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared != 3 {
		t.Errorf("expected 3 cleared, got %d", cleared)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty cache, got %d", count)
	}
}

func TestNextSequence(t *testing.T) {
	db := newTestDB(t)

	first, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first+1 {
		t.Errorf("expected monotonic sequence, got %d then %d", first, second)
	}
}
