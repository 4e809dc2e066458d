package repositories

import (
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// every pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newSong(id, name string) *models.SavedSong {
	return models.NewSavedSong(0, "netease", models.SongSummary{
		ID:       id,
		Name:     name,
		Artists:  "Artist",
		Duration: 215000,
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "songs")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	t.Run("Missing Table", func(t *testing.T) {
		if _, err := NextSequence(db, "nope"); err == nil {
			t.Error("expected error for missing sequence table")
		}
	})
}

func TestSongRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := newSong("186016", "Moonlight")

		if err := repo.Create(song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		if song.ID() == "" {
			t.Error("song ID should be set after creation")
		}
		if song.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", song.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := newSong("186016", "Moonlight")
		song.SetExtra(models.ExtraMetadata{Title: "Moonlight", Author: "Artist", CoverURL: "http://c", AudioURL: "http://a"})
		song.SetLyrics("[00:01]moon")

		if err := repo.Create(song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		retrieved, err := repo.Get(song.ID())
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}

		if retrieved.SongID() != "186016" || retrieved.Source() != "netease" {
			t.Errorf("unexpected identity %s/%s", retrieved.Source(), retrieved.SongID())
		}
		if retrieved.Song().Duration != 215000 {
			t.Errorf("expected duration 215000, got %d", retrieved.Song().Duration)
		}
		if retrieved.Extra().CoverURL != "http://c" || retrieved.Extra().AudioURL != "http://a" {
			t.Errorf("unexpected extra %+v", retrieved.Extra())
		}
		if retrieved.Lyrics() != "[00:01]moon" {
			t.Errorf("unexpected lyrics %q", retrieved.Lyrics())
		}
	})

	t.Run("Sentinel Lyrics Not Stored", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := newSong("1", "One")
		song.SetLyrics(models.LyricsFetchFailed)

		if err := repo.Create(song); err != nil {
			t.Fatal(err)
		}
		got, _ := repo.Get(song.ID())
		if got.Lyrics() != "" {
			t.Errorf("expected empty lyrics, got %q", got.Lyrics())
		}
	})

	t.Run("Cover Falls Back To Search Result", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := models.NewSavedSong(0, "aggregator:qq", models.SongSummary{
			ID: "q1", Name: "Q", Artists: "A", CoverURL: "http://pic", URL: "http://play",
		})
		if err := repo.Create(song); err != nil {
			t.Fatal(err)
		}

		got, _ := repo.Get(song.ID())
		if got.Extra().CoverURL != "http://pic" || got.Extra().AudioURL != "http://play" {
			t.Errorf("unexpected extra %+v", got.Extra())
		}
	})

	t.Run("GetBySourceID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := newSong("42", "Answer")
		if err := repo.Create(song); err != nil {
			t.Fatal(err)
		}

		got, err := repo.GetBySourceID("netease", "42")
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if got.ID() != song.ID() {
			t.Errorf("expected %s, got %s", song.ID(), got.ID())
		}

		if _, err := repo.GetBySourceID("node", "42"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := newSong("1", "Old")
		if err := repo.Create(song); err != nil {
			t.Fatal(err)
		}
		before := song.UpdatedAt()

		song.SetLyrics("new words")
		if err := repo.Update(song); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}
		if !song.UpdatedAt().After(before) && !song.UpdatedAt().Equal(before) {
			t.Error("expected updated_at to advance")
		}

		got, _ := repo.Get(song.ID())
		if got.Lyrics() != "new words" {
			t.Errorf("expected updated lyrics, got %q", got.Lyrics())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := newSong("1", "Gone")
		if err := repo.Create(song); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(song.ID()); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}
		if _, err := repo.Get(song.ID()); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected deleted song to be hidden, got %v", err)
		}

		t.Run("Can Be Saved Again", func(t *testing.T) {
			if err := repo.Create(newSong("1", "Back")); err != nil {
				t.Errorf("expected re-save after delete to succeed, got %v", err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		for _, s := range []*models.SavedSong{
			newSong("1", "Moonlight Sonata"),
			newSong("2", "Clair de Lune"),
			models.NewSavedSong(0, "node", models.SongSummary{ID: "3", Name: "Moonlight Shadow", Artists: "M"}),
		} {
			if err := repo.Create(s); err != nil {
				t.Fatal(err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}
		if len(all) != 3 || all[0].SongID() != "1" || all[2].SongID() != "3" {
			t.Errorf("expected 3 songs in save order, got %d", len(all))
		}

		bySource, _ := repo.List(map[string]any{"source": "node"})
		if len(bySource) != 1 {
			t.Errorf("expected 1 node song, got %d", len(bySource))
		}

		byName, _ := repo.List(map[string]any{"name": "Moonlight"})
		if len(byName) != 2 {
			t.Errorf("expected 2 moonlight songs, got %d", len(byName))
		}

		limited, _ := repo.List(map[string]any{"limit": 1})
		if len(limited) != 1 {
			t.Errorf("expected 1 song, got %d", len(limited))
		}
	})

	t.Run("Concurrent Creates Get Distinct Sequences", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		var wg sync.WaitGroup
		songs := make([]*models.SavedSong, 5)
		for i := range songs {
			songs[i] = newSong(string(rune('a'+i)), "S")
			wg.Add(1)
			go func(s *models.SavedSong) {
				defer wg.Done()
				if err := repo.Create(s); err != nil {
					t.Errorf("create failed: %v", err)
				}
			}(songs[i])
		}
		wg.Wait()

		seen := map[int]bool{}
		for _, s := range songs {
			if seen[s.Sequence()] {
				t.Errorf("duplicate sequence %d", s.Sequence())
			}
			seen[s.Sequence()] = true
		}
	})
}
