package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

// ErrLyricsUnavailable marks a song whose lyrics came back as a sentinel.
var ErrLyricsUnavailable = errors.New("lyrics unavailable")

// LyricsSource fetches lyrics text. Every services.Provider is one.
type LyricsSource interface {
	Name() string
	Lyrics(ctx context.Context, songID string) string
}

// DetailSource fetches everything saved alongside a song.
type DetailSource interface {
	LyricsSource
	Extra(ctx context.Context, songID string) models.ExtraMetadata
}

// SongStore persists library entries. repositories.SongRepository is one.
type SongStore interface {
	Create(song *models.SavedSong) error
	GetBySourceID(source, songID string) (*models.SavedSong, error)
}

// SongSource serves details straight from a search result that already carries its
// lyrics and links, as aggregator results do.
type SongSource struct {
	Source string
	Song   models.SongSummary
}

func (s SongSource) Name() string { return s.Source }

// Lyrics returns the result's lyrics, or [models.LyricsNotFound] when it has none.
func (s SongSource) Lyrics(ctx context.Context, songID string) string {
	if s.Song.Lyrics == "" {
		return models.LyricsNotFound
	}
	return s.Song.Lyrics
}

// Extra builds metadata from the result's own name, artists, cover and audio URL.
func (s SongSource) Extra(ctx context.Context, songID string) models.ExtraMetadata {
	extra := models.NewExtraMetadata()
	if s.Song.Name != "" {
		extra.Title = s.Song.Name
	}
	if s.Song.Artists != "" {
		extra.Author = s.Song.Artists
	}
	extra.CoverURL = s.Song.CoverURL
	extra.AudioURL = s.Song.URL
	return extra
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Librarian saves search results into the local library together with their lyrics and extra metadata.
type Librarian struct {
	store  SongStore
	logger *log.Logger
}

// NewLibrarian creates a Librarian. A nil logger discards output.
func NewLibrarian(store SongStore, logger *log.Logger) *Librarian {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Librarian{store: store, logger: logger}
}

// Save fetches lyrics and extra metadata for song concurrently and stores the result.
//
// The song's Source wins over the source's name when set. A song already in the
// library is returned as is, without fetching anything.
func (l *Librarian) Save(ctx context.Context, progress chan<- ProgressUpdate, src DetailSource, song models.SongSummary) (*models.SavedSong, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}
	if song.ID == "" {
		return nil, fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	source := song.Source
	if source == "" {
		source = src.Name()
		song.Source = source
	}

	existing, err := l.store.GetBySourceID(source, song.ID)
	if err == nil {
		l.logger.Debug("song already saved", "source", source, "song_id", song.ID)
		return existing, nil
	}
	if !errors.Is(err, shared.ErrSongNotFound) {
		return nil, fmt.Errorf("failed to check library: %w", err)
	}

	sendProgress(progress, fetchDetailsUpdate(song, source))

	var (
		wg     sync.WaitGroup
		lyrics string
		extra  models.ExtraMetadata
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		lyrics = src.Lyrics(ctx, song.ID)
	}()
	go func() {
		defer wg.Done()
		extra = src.Extra(ctx, song.ID)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if song.Name == "" && extra.Title != models.UnknownSong {
		song.Name = extra.Title
	}
	if song.Artists == "" && extra.Author != models.UnknownArtist {
		song.Artists = extra.Author
	}
	if song.Name == "" {
		song.Name = models.UnknownSong
	}

	saved := models.NewSavedSong(0, source, song)
	saved.SetExtra(extra)
	saved.SetLyrics(lyrics)

	if err := l.store.Create(saved); err != nil {
		return nil, fmt.Errorf("failed to save song: %w", err)
	}

	l.logger.Info("saved song", "source", source, "song_id", song.ID, "sequence", saved.Sequence())
	sendProgress(progress, savedSongUpdate(saved))
	return saved, nil
}
