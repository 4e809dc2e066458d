package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/songx/internal/formatter"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/services"
	"github.com/desertthunder/songx/internal/shared"
	"github.com/desertthunder/songx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// searcherName combines --provider and --platform into a searcher name.
func searcherName(provider, platform string) (string, error) {
	if platform == "" {
		return provider, nil
	}
	if provider != services.AggregatorName {
		return "", fmt.Errorf("%w: --platform only applies to the aggregator", shared.ErrInvalidFlag)
	}
	return services.AggregatorName + ":" + platform, nil
}

// detailSource resolves where lyrics and metadata for a result come from. Results of
// searchers that are not providers (the aggregator) are served from the song itself.
func (r *Runner) detailSource(name string, song models.SongSummary) tasks.DetailSource {
	if p, err := r.provider(name); err == nil {
		return p
	}
	return tasks.SongSource{Source: name, Song: song}
}

// Search runs a keyword search against --provider, then each --fallback provider in order
// until one returns results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	keyword := strings.TrimSpace(cmd.StringArg("keyword"))
	if keyword == "" {
		return fmt.Errorf("%w: keyword", shared.ErrMissingArgument)
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}

	first, err := searcherName(cmd.String("provider"), cmd.String("platform"))
	if err != nil {
		return err
	}

	names := append([]string{first}, shared.SplitList(cmd.String("fallback"))...)
	searchers := make([]services.Searcher, 0, len(names))
	for _, name := range names {
		s, err := r.registry().Searcher(name)
		if err != nil {
			return err
		}
		searchers = append(searchers, s)
	}

	r.logger.Info("searching", "keyword", keyword, "providers", names, "limit", limit)
	songs, answered := services.Fallback(ctx, keyword, limit, searchers...)
	if err := ctx.Err(); err != nil {
		return err
	}

	if cmd.Bool("save") && len(songs) > 0 {
		if err := r.saveAll(ctx, answered, songs); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		return r.writePlain("No results for %q\n", keyword)
	}

	data, err := formatter.RenderSongs(songs, cmd.String("format"), fmt.Sprintf("%s results for %q", answered, keyword))
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

func (r *Runner) saveAll(ctx context.Context, source string, songs []models.SongSummary) error {
	repo, db, err := r.openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	librarian := tasks.NewLibrarian(repo, r.logger)
	for _, song := range songs {
		if _, err := librarian.Save(ctx, nil, r.detailSource(source, song), song); err != nil {
			return err
		}
	}
	r.logger.Info("saved results to library", "count", len(songs), "source", source)
	return nil
}

// Comments prints the hot comments for a song.
func (r *Runner) Comments(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	p, err := r.provider(cmd.String("provider"))
	if err != nil {
		return err
	}

	comments := p.HotComments(ctx, id)
	if cmd.Bool("json") {
		return r.writeJSON(comments, cmd.Bool("pretty"))
	}

	if len(comments) == 0 {
		return r.writePlain("No hot comments for %s\n", id)
	}
	r.writePlainHeader(fmt.Sprintf("Hot comments for %s (%s)", id, p.Name()))
	_, err = r.output.Write(formatter.CommentsToText(comments))
	return err
}

// Lyrics prints a song's lyrics, or writes them into --output.
//
// A lyrics sentinel is printed as is but never written to a file.
func (r *Runner) Lyrics(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	p, err := r.provider(cmd.String("provider"))
	if err != nil {
		return err
	}

	lyrics := p.Lyrics(ctx, id)

	if dir := cmd.String("output"); dir != "" {
		if models.IsLyricsSentinel(lyrics) {
			return fmt.Errorf("%w: %s", tasks.ErrLyricsUnavailable, lyrics)
		}
		path, err := formatter.WriteLyricsFile(dir, id, cmd.String("name"), lyrics, cmd.String("format"))
		if err != nil {
			return err
		}
		r.logger.Info("lyrics written", "path", path)
		return r.writePlain("✓ Lyrics saved to %s\n", path)
	}

	if cmd.Bool("strip") && !models.IsLyricsSentinel(lyrics) {
		lyrics = formatter.StripTimestamps(lyrics)
	}
	return r.writePlain("%s\n", strings.TrimRight(lyrics, "\n"))
}

// Extra prints title, artist, cover and audio URL for a song.
func (r *Runner) Extra(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}

	p, err := r.provider(cmd.String("provider"))
	if err != nil {
		return err
	}

	extra := p.Extra(ctx, id)

	if path := cmd.String("cover"); path != "" {
		if err := saveCover(extra.CoverURL, path); err != nil {
			return err
		}
		r.logger.Info("cover saved", "path", path)
	}

	if cmd.Bool("open") {
		if extra.AudioURL == "" {
			return fmt.Errorf("%w: no audio url for %s", shared.ErrMissingArgument, id)
		}
		if err := shared.OpenBrowser(extra.AudioURL); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(extra, cmd.Bool("pretty"))
	}
	_, err = r.output.Write(formatter.ExtraToText(extra))
	return err
}

func saveCover(url, path string) error {
	data, err := formatter.DownloadImage(url)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cover: %w", err)
	}
	return nil
}
