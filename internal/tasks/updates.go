package tasks

import (
	"fmt"

	"github.com/desertthunder/songx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchDetails Phase = iota
	SaveSong
	FetchLyrics
	ExportLyrics
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchDetails:
		return "fetch_details"
	case SaveSong:
		return "save_song"
	case FetchLyrics:
		return "fetch_lyrics"
	case ExportLyrics:
		return "export_lyrics"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchDetailsUpdate(song models.SongSummary, source string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Fetching lyrics and metadata for %s from %s...", song.Name, source),
	}
}

func savedSongUpdate(saved *models.SavedSong) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveSong,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Saved #%d: %s - %s", saved.Sequence(), saved.Song().Artists, saved.Song().Name),
		Data:    saved,
	}
}

func fetchingLyricsUpdate(step, total int, song models.SongSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLyrics,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching lyrics: %s...", step, total, displayName(song)),
	}
}

func exportCompletedUpdate(step, total int, res LyricsExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportLyrics,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.File),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res LyricsExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportLyrics,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, displayName(res.Song), res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written to %s", path),
	}
}

func displayName(song models.SongSummary) string {
	if song.Name == "" {
		return song.ID
	}
	return fmt.Sprintf("%s (%s)", song.Name, song.ID)
}
