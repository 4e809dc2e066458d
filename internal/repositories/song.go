package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

const songColumns = `id, sequence, source, song_id, name, artists, duration, cover_url, audio_url, lyrics, created_at, updated_at, deleted_at`

// SongRepository implements models.Repository[*models.SavedSong] for the local library.
//
// A song is unique per (source, song_id) among rows that are not soft-deleted.
type SongRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.SavedSong] = (*SongRepository)(nil)

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts a new [models.SavedSong] into the database with generated ID and sequence
func (r *SongRepository) Create(song *models.SavedSong) error {
	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	song.SetID(id)
	song.SetSequence(sequence)

	if err := song.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO songs (id, sequence, source, song_id, name, artists, duration, cover_url, audio_url, lyrics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	s := song.Song()
	_, err = r.db.Exec(query,
		id,
		sequence,
		song.Source(),
		s.ID,
		s.Name,
		s.Artists,
		s.Duration,
		coverURL(song),
		audioURL(song),
		song.Lyrics(),
		song.CreatedAt(),
		song.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	return nil
}

// Get retrieves a song by ID, excluding soft-deleted songs
func (r *SongRepository) Get(id string) (*models.SavedSong, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySourceID retrieves a song by the adapter that found it and its upstream id
func (r *SongRepository) GetBySourceID(source, songID string) (*models.SavedSong, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE source = ? AND song_id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, source, songID))
}

// Update modifies an existing song in the database
func (r *SongRepository) Update(song *models.SavedSong) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	song.SetUpdatedAt(now)

	query := `
		UPDATE songs
		SET name = ?, artists = ?, duration = ?, cover_url = ?, audio_url = ?, lyrics = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	s := song.Song()
	result, err := r.db.Exec(query,
		s.Name,
		s.Artists,
		s.Duration,
		coverURL(song),
		audioURL(song),
		song.Lyrics(),
		now,
		song.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	return expectAffected(result, song.ID())
}

// Delete soft-deletes a song by ID
func (r *SongRepository) Delete(id string) error {
	query := `UPDATE songs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves all songs matching the given criteria, excluding soft-deleted songs.
//
// Supported criteria: "source" (exact), "name" (substring), "limit" (int).
func (r *SongRepository) List(criteria map[string]any) ([]*models.SavedSong, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE deleted_at IS NULL`
	args := []any{}

	if source, ok := criteria["source"].(string); ok && source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []*models.SavedSong{}
	for rows.Next() {
		song, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one row from either [sql.Row] or [sql.Rows] into a [models.SavedSong]
func (r *SongRepository) scan(row scanner) (*models.SavedSong, error) {
	var (
		id        string
		sequence  int
		source    string
		songID    string
		name      string
		artists   string
		duration  int
		cover     string
		audio     string
		lyrics    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &source, &songID, &name, &artists, &duration, &cover, &audio, &lyrics, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	dto := models.SongSummary{
		ID:       songID,
		Name:     name,
		Artists:  artists,
		Duration: duration,
		CoverURL: cover,
		Source:   source,
	}

	song := models.NewSavedSong(sequence, source, dto)
	song.SetID(id)
	song.SetExtra(models.ExtraMetadata{Title: name, Author: artists, CoverURL: cover, AudioURL: audio})
	song.SetLyrics(lyrics)
	song.SetCreatedAt(createdAt)
	song.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		song.SetDeletedAt(&deletedAt.Time)
	}

	return song, nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", shared.ErrSongNotFound, id)
	}
	return nil
}

// coverURL prefers the cover from extra metadata over the one on the search result.
func coverURL(song *models.SavedSong) string {
	if c := song.Extra().CoverURL; c != "" {
		return c
	}
	return song.Song().CoverURL
}

func audioURL(song *models.SavedSong) string {
	if u := song.Extra().AudioURL; u != "" {
		return u
	}
	return song.Song().URL
}
