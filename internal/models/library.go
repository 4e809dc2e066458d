package models

import (
	"fmt"
	"time"
)

// SavedSong is a [SongSummary] persisted in the local library together with the
// playback details and lyrics captured when it was saved.
type SavedSong struct {
	id        string
	sequence  int
	source    string
	song      SongSummary
	extra     ExtraMetadata
	lyrics    string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

var _ Model = (*SavedSong)(nil)

// NewSavedSong creates a library entry for song as returned by source.
func NewSavedSong(sequence int, source string, song SongSummary) *SavedSong {
	now := time.Now()
	return &SavedSong{
		sequence:  sequence,
		source:    source,
		song:      song,
		extra:     NewExtraMetadata(),
		createdAt: now,
		updatedAt: now,
	}
}

func (s *SavedSong) ID() string               { return s.id }
func (s *SavedSong) Sequence() int            { return s.sequence }
func (s *SavedSong) Source() string           { return s.source }
func (s *SavedSong) SongID() string           { return s.song.ID }
func (s *SavedSong) Song() SongSummary        { return s.song }
func (s *SavedSong) Extra() ExtraMetadata     { return s.extra }
func (s *SavedSong) Lyrics() string           { return s.lyrics }
func (s *SavedSong) CreatedAt() time.Time     { return s.createdAt }
func (s *SavedSong) UpdatedAt() time.Time     { return s.updatedAt }
func (s *SavedSong) DeletedAt() *time.Time    { return s.deletedAt }
func (s *SavedSong) SetID(id string)          { s.id = id }
func (s *SavedSong) SetSequence(seq int)      { s.sequence = seq }
func (s *SavedSong) SetUpdatedAt(t time.Time) { s.updatedAt = t }
func (s *SavedSong) SetCreatedAt(t time.Time) { s.createdAt = t }
func (s *SavedSong) SetDeletedAt(t *time.Time) {
	s.deletedAt = t
}

// SetExtra records playback metadata.
func (s *SavedSong) SetExtra(extra ExtraMetadata) { s.extra = extra }

// SetLyrics records lyrics text. Sentinel values are stored as empty.
func (s *SavedSong) SetLyrics(text string) {
	if IsLyricsSentinel(text) {
		text = ""
	}
	s.lyrics = text
}

// Validate checks required fields.
func (s *SavedSong) Validate() error {
	if s.id == "" {
		return fmt.Errorf("saved song id is required")
	}
	if s.source == "" {
		return fmt.Errorf("saved song source is required")
	}
	if s.song.ID == "" {
		return fmt.Errorf("saved song upstream id is required")
	}
	if s.song.Name == "" {
		return fmt.Errorf("saved song name is required")
	}
	return nil
}
