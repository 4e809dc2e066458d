package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/songx/internal/formatter"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
	tu "github.com/desertthunder/songx/internal/testing"
)

func songsFor(ids ...string) []models.SongSummary {
	songs := make([]models.SongSummary, 0, len(ids))
	for _, id := range ids {
		songs = append(songs, models.SongSummary{ID: id, Name: "Song " + id})
	}
	return songs
}

func TestLyricsExport_SuccessfulExport(t *testing.T) {
	tests := []struct {
		name   string
		format string
		ext    string
		check  func(t *testing.T, content string)
	}{
		{
			name:   "plain text strips timestamps",
			format: "txt",
			ext:    ".txt",
			check: func(t *testing.T, content string) {
				if content != "hello\n" {
					t.Errorf("unexpected content %q", content)
				}
			},
		},
		{
			name:   "lrc keeps timestamps",
			format: "lrc",
			ext:    ".lrc",
			check: func(t *testing.T, content string) {
				if content != "[00:01.00]hello" {
					t.Errorf("unexpected content %q", content)
				}
			},
		},
		{
			name:   "json wraps lyrics",
			format: "json",
			ext:    ".json",
			check: func(t *testing.T, content string) {
				if !strings.Contains(content, `"lyrics": "[00:01.00]hello"`) {
					t.Errorf("unexpected content %q", content)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "lyrics")
			provider := &tu.MockProvider{LyricsText: "[00:01.00]hello"}

			summary, err := NewLyricsExporter(nil).Export(context.Background(), nil, provider, songsFor("1", "2", "3"), LyricsExportOpts{
				Format:    tt.format,
				OutputDir: dir,
				RateLimit: 1000,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if summary.Total != 3 || summary.Succeeded != 3 || summary.Failed != 0 {
				t.Errorf("unexpected summary %+v", summary)
			}
			if provider.Calls("lyrics") != 3 {
				t.Errorf("expected 3 lyrics calls, got %d", provider.Calls("lyrics"))
			}

			tu.AssertDirExists(t, dir)
			path := filepath.Join(dir, "1 - Song 1"+tt.ext)
			tu.AssertFileExists(t, path)
			tt.check(t, tu.MustReadFile(t, path))
			tu.AssertFileExists(t, filepath.Join(dir, formatter.ManifestFile))
		})
	}
}

func TestLyricsExport_PartialFailures(t *testing.T) {
	dir := t.TempDir()
	provider := &tu.MockProvider{
		LyricsText: "la la",
		LyricsByID: map[string]string{
			"2": models.LyricsNotFound,
			"3": models.LyricsFetchFailed,
		},
	}

	summary, err := NewLyricsExporter(nil).Export(context.Background(), nil, provider, songsFor("1", "2", "3"), LyricsExportOpts{
		OutputDir: dir,
		RateLimit: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Succeeded != 1 || summary.Failed != 2 {
		t.Errorf("expected 1 success and 2 failures, got %+v", summary)
	}
	for _, res := range summary.Results {
		if res.Song.ID != "1" && !errors.Is(res.Error, ErrLyricsUnavailable) {
			t.Errorf("expected ErrLyricsUnavailable for %s, got %v", res.Song.ID, res.Error)
		}
	}

	var manifest formatter.Manifest
	data, _ := os.ReadFile(summary.ManifestPath)
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("invalid manifest: %v", err)
	}
	if manifest.Failed != 2 || len(manifest.Entries) != 3 || manifest.Provider != "mock" {
		t.Errorf("unexpected manifest %+v", manifest)
	}
}

func TestLyricsExport_InvalidInput(t *testing.T) {
	exporter := NewLyricsExporter(nil)
	ctx := context.Background()

	if _, err := exporter.Export(ctx, nil, nil, songsFor("1"), LyricsExportOpts{}); !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
	if _, err := exporter.Export(ctx, nil, &tu.MockProvider{}, nil, LyricsExportOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
	if _, err := exporter.Export(ctx, nil, &tu.MockProvider{}, songsFor("1"), LyricsExportOpts{Format: "doc", OutputDir: t.TempDir()}); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestLyricsExport_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &tu.MockProvider{LyricsText: "x"}
	summary, err := NewLyricsExporter(nil).Export(ctx, nil, provider, songsFor("1", "2", "3", "4"), LyricsExportOpts{
		OutputDir: t.TempDir(),
		RateLimit: 0.5,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if summary == nil || summary.Succeeded == summary.Total {
		t.Errorf("expected partial summary, got %+v", summary)
	}
}

func TestLyricsExport_DefaultOptions(t *testing.T) {
	opts := LyricsExportOpts{NumWorkers: 50}
	opts.applyDefaults()

	if opts.Format != "txt" || opts.RateLimit != 2.0 || opts.NumWorkers != 10 {
		t.Errorf("unexpected defaults %+v", opts)
	}
	if !strings.HasPrefix(opts.OutputDir, "lyrics_export_") {
		t.Errorf("unexpected output dir %s", opts.OutputDir)
	}

	opts = LyricsExportOpts{}
	opts.applyDefaults()
	if opts.NumWorkers != 4 {
		t.Errorf("expected 4 workers, got %d", opts.NumWorkers)
	}
}

func TestLyricsExport_RateLimiting(t *testing.T) {
	provider := &tu.MockProvider{LyricsText: "x"}

	start := time.Now()
	_, err := NewLyricsExporter(nil).Export(context.Background(), nil, provider, songsFor("1", "2", "3"), LyricsExportOpts{
		OutputDir: t.TempDir(),
		RateLimit: 10,
	})
	if err != nil {
		t.Fatal(err)
	}

	// burst of one: the 2nd and 3rd jobs each wait ~100ms
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("expected pacing, finished in %v", elapsed)
	}
}

func TestLyricsExport_ProgressUpdates(t *testing.T) {
	progress := make(chan ProgressUpdate, 100)
	provider := &tu.MockProvider{LyricsText: "x"}

	_, err := NewLyricsExporter(nil).Export(context.Background(), progress, provider, songsFor("1", "2"), LyricsExportOpts{
		OutputDir: t.TempDir(),
		RateLimit: 1000,
	})
	if err != nil {
		t.Fatal(err)
	}
	close(progress)

	phases := map[Phase]int{}
	for update := range progress {
		phases[update.Phase]++
	}
	if phases[FetchLyrics] != 2 || phases[ExportLyrics] != 2 || phases[WriteManifest] != 1 {
		t.Errorf("unexpected phases %v", phases)
	}
}

func TestSendProgress_NeverBlocks(t *testing.T) {
	full := make(chan ProgressUpdate)
	done := make(chan struct{})
	go func() {
		sendProgress(full, ProgressUpdate{})
		sendProgress(nil, ProgressUpdate{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sendProgress blocked")
	}
}

func TestPhase_String(t *testing.T) {
	if FetchLyrics.String() != "fetch_lyrics" || Phase(99).String() != "" {
		t.Error("unexpected phase names")
	}
}
