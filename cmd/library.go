package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/songx/internal/formatter"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
	"github.com/desertthunder/songx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// LibraryList prints saved songs in sequence order.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	saved, err := repo.List(map[string]any{
		"source": cmd.String("source"),
		"name":   cmd.String("name"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(savedSongsJSON(saved), cmd.Bool("pretty"))
	}

	if len(saved) == 0 {
		return r.writePlain("Library is empty\n")
	}

	r.writePlainHeader(fmt.Sprintf("Library (%d songs)", len(saved)))
	for _, s := range saved {
		song := s.Song()
		lyrics := "no lyrics"
		if s.Lyrics() != "" {
			lyrics = "lyrics"
		}
		r.writePlain("#%-4d %s - %s [%s %s] %s (%s)\n", s.Sequence(), song.Artists, song.Name, s.Source(), song.ID, lyrics, s.ID())
	}
	return nil
}

type savedSongJSON struct {
	LibraryID string `json:"library_id"`
	Sequence  int    `json:"sequence"`
	models.SongSummary
	Extra  models.ExtraMetadata `json:"extra"`
	Lyrics string               `json:"lyrics,omitempty"`
}

func savedSongsJSON(saved []*models.SavedSong) []savedSongJSON {
	out := make([]savedSongJSON, 0, len(saved))
	for _, s := range saved {
		song := s.Song()
		song.Source = s.Source()
		out = append(out, savedSongJSON{
			LibraryID:   s.ID(),
			Sequence:    s.Sequence(),
			SongSummary: song,
			Extra:       s.Extra(),
			Lyrics:      s.Lyrics(),
		})
	}
	return out
}

// LibrarySave searches for a keyword and saves the result at --index.
func (r *Runner) LibrarySave(ctx context.Context, cmd *cli.Command) error {
	keyword := strings.TrimSpace(cmd.StringArg("keyword"))
	if keyword == "" {
		return fmt.Errorf("%w: keyword", shared.ErrMissingArgument)
	}

	index := cmd.Int("index")
	if index <= 0 {
		return fmt.Errorf("%w: --index must be positive", shared.ErrInvalidFlag)
	}

	searcher, err := r.registry().Searcher(cmd.String("provider"))
	if err != nil {
		return err
	}

	songs := searcher.Search(ctx, keyword, index)
	if len(songs) < index {
		return fmt.Errorf("%w: only %d results for %q", shared.ErrSongNotFound, len(songs), keyword)
	}
	song := songs[index-1]

	repo, db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	progress := make(chan tasks.ProgressUpdate, 4)
	saved, err := tasks.NewLibrarian(repo, r.logger).Save(ctx, progress, r.detailSource(searcher.Name(), song), song)
	close(progress)
	if err != nil {
		return err
	}
	for update := range progress {
		r.logger.Debug(update.Message, "phase", update.Phase)
	}

	r.writePlain("✓ Saved #%d: %s - %s\n", saved.Sequence(), saved.Song().Artists, saved.Song().Name)
	if saved.Lyrics() == "" {
		r.writePlain("  (no lyrics available)\n")
	}
	return nil
}

// LibraryRemove soft-deletes a saved song by its library id.
func (r *Runner) LibraryRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: library id", shared.ErrMissingArgument)
	}

	repo, db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repo.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s\n", id)
}

// LibraryExport writes saved songs to a CSV, Markdown or text file.
//
// Markdown exports use the first saved cover image as the document cover.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	repo, db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	saved, err := repo.List(map[string]any{"source": cmd.String("source")})
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		return fmt.Errorf("%w: library is empty", shared.ErrSongNotFound)
	}

	songs := make([]models.SongSummary, len(saved))
	cover := ""
	for i, s := range saved {
		songs[i] = s.Song()
		songs[i].Source = s.Source()
		if cover == "" {
			cover = s.Extra().CoverURL
		}
	}

	files, err := formatter.WriteSongsExport(songs, cmd.String("output"), cmd.String("format"), cmd.String("title"), cover)
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d songs\n", len(songs))
	for _, f := range files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// ExportLyrics fetches lyrics for --ids or the library and writes one file per song
// plus a manifest.
func (r *Runner) ExportLyrics(ctx context.Context, cmd *cli.Command) error {
	p, err := r.provider(cmd.String("provider"))
	if err != nil {
		return err
	}

	var songs []models.SongSummary
	for _, id := range shared.SplitList(cmd.String("ids")) {
		songs = append(songs, models.SongSummary{ID: id})
	}

	if cmd.Bool("library") {
		repo, db, err := r.openLibrary()
		if err != nil {
			return err
		}
		saved, err := repo.List(map[string]any{"source": p.Name()})
		db.Close()
		if err != nil {
			return err
		}
		for _, s := range saved {
			songs = append(songs, s.Song())
		}
	}

	if len(songs) == 0 {
		return fmt.Errorf("%w: --ids or --library", shared.ErrMissingArgument)
	}

	opts := tasks.LyricsExportOpts{
		Format:     firstNonEmpty(cmd.String("format"), r.config.Export.Format),
		OutputDir:  firstNonEmpty(cmd.String("output"), r.config.Export.OutputDir),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}
	if opts.NumWorkers == 0 {
		opts.NumWorkers = r.config.Export.Workers
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = r.config.Export.RateLimit
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	summary, err := tasks.NewLyricsExporter(r.logger).Export(ctx, progress, p, songs, opts)
	close(progress)
	<-done

	if summary != nil {
		r.writePlainln("Exported %d/%d lyrics to %s", summary.Succeeded, summary.Total, summary.OutputDir)
		if summary.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", summary.ManifestPath)
		}
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
