package tasks

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songx/internal/formatter"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
	"golang.org/x/time/rate"
)

// LyricsExportOpts contains configuration for batch lyrics exports.
type LyricsExportOpts struct {
	Format     string  // txt, lrc or json (default: txt)
	OutputDir  string  // Base output directory (default: lyrics_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Lyrics requests per second (default: 2)
}

// LyricsExportResult is the outcome for a single song.
type LyricsExportResult struct {
	Song    models.SongSummary
	File    string
	Success bool
	Error   error
}

// LyricsExportSummary aggregates a whole export run.
type LyricsExportSummary struct {
	Total        int
	Succeeded    int
	Failed       int
	OutputDir    string
	ManifestPath string
	Results      []LyricsExportResult
}

// LyricsExporter writes lyric files for many songs with a bounded worker pool.
//
// Requests are paced by a token bucket on the caller side; the adapters themselves do not throttle.
type LyricsExporter struct {
	logger *log.Logger
}

// NewLyricsExporter creates a LyricsExporter. A nil logger discards output.
func NewLyricsExporter(logger *log.Logger) *LyricsExporter {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &LyricsExporter{logger: logger}
}

func (o *LyricsExportOpts) applyDefaults() {
	if o.Format == "" {
		o.Format = formatter.LyricsText
	}
	if o.OutputDir == "" {
		o.OutputDir = fmt.Sprintf("lyrics_export_%d", time.Now().Unix())
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = 4
	}
	if o.NumWorkers > 10 {
		o.NumWorkers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 2.0
	}
}

// Export fetches lyrics for every song from src and writes one file per song plus a manifest.
//
// Sentinel lyrics count as failures. On cancellation the songs already exported are
// kept and reported, and the context error is returned with the partial summary.
func (e *LyricsExporter) Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	src LyricsSource,
	songs []models.SongSummary,
	opts LyricsExportOpts,
) (*LyricsExportSummary, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: provider not initialized", shared.ErrServiceUnavailable)
	}
	if len(songs) == 0 {
		return nil, fmt.Errorf("%w: no songs to export", shared.ErrMissingArgument)
	}

	opts.applyDefaults()
	if _, err := formatter.RenderLyrics("", "", "", opts.Format); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := &LyricsExportSummary{
		Total:     len(songs),
		OutputDir: opts.OutputDir,
		Results:   make([]LyricsExportResult, 0, len(songs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan models.SongSummary, len(songs))
	results := make(chan LyricsExportResult, len(songs))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.worker(ctx, &wg, src, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, song := range songs {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, fetchingLyricsUpdate(i+1, len(songs), song))
			jobs <- song
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		summary.Results = append(summary.Results, res)

		if res.Success {
			summary.Succeeded++
			sendProgress(prog, exportCompletedUpdate(completed, len(songs), res))
		} else {
			summary.Failed++
			e.logger.Warn("lyrics export failed", "song_id", res.Song.ID, "error", res.Error)
			sendProgress(prog, exportFailedUpdate(completed, len(songs), res))
		}
	}

	manifestPath, err := formatter.WriteManifest(opts.OutputDir, buildManifest(src.Name(), opts.Format, summary))
	if err != nil {
		return summary, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	summary.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (e *LyricsExporter) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	src LyricsSource,
	jobs <-chan models.SongSummary,
	results chan<- LyricsExportResult,
	opts LyricsExportOpts,
) {
	defer wg.Done()

	for song := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportOne(ctx, src, song, opts)
	}
}

func (e *LyricsExporter) exportOne(ctx context.Context, src LyricsSource, song models.SongSummary, opts LyricsExportOpts) LyricsExportResult {
	result := LyricsExportResult{Song: song}

	text := src.Lyrics(ctx, song.ID)
	if models.IsLyricsSentinel(text) {
		result.Error = fmt.Errorf("%w: %s", ErrLyricsUnavailable, text)
		return result
	}

	path, err := formatter.WriteLyricsFile(opts.OutputDir, song.ID, song.Name, text, opts.Format)
	if err != nil {
		result.Error = err
		return result
	}

	result.File = path
	result.Success = true
	return result
}

func buildManifest(provider, format string, summary *LyricsExportSummary) *formatter.Manifest {
	manifest := &formatter.Manifest{
		Provider:  provider,
		Format:    format,
		CreatedAt: time.Now().UTC(),
		Total:     summary.Total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Entries:   make([]formatter.ManifestEntry, 0, len(summary.Results)),
	}

	for _, res := range summary.Results {
		entry := formatter.ManifestEntry{SongID: res.Song.ID, File: res.File, Status: "ok"}
		if !res.Success {
			entry.Status = "failed"
			if res.Error != nil {
				entry.Error = res.Error.Error()
			}
		}
		manifest.Entries = append(manifest.Entries, entry)
	}
	return manifest
}
