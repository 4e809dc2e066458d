// package formatter renders songs, comments and lyrics to CSV, Markdown, plain text and lyric files
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

// Output formats for song listings.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "txt"
)

// Output formats for lyric files.
const (
	LyricsText = "txt"
	LyricsLRC  = "lrc"
	LyricsJSON = "json"
)

// ManifestFile is written alongside every lyrics export.
const ManifestFile = "export_manifest.json"

// SongsToCSV converts songs to CSV with columns: ID, Name, Artists, Duration, Source, URL
func SongsToCSV(songs []models.SongSummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Duration", "Source", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			song.ID,
			song.Name,
			song.Artists,
			strconv.Itoa(song.Duration),
			song.Source,
			song.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsToMarkdown renders songs as a numbered Markdown list under title, with an optional cover image
func SongsToMarkdown(title string, songs []models.SongSummary, imageFilename string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(songs))

	for i, song := range songs {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]", i+1, song.Artists, song.Name, shared.FormatDuration(song.Duration))
		if song.Source != "" {
			fmt.Fprintf(&buf, " `%s:%s`", song.Source, song.ID)
		}
		if song.Link != "" {
			fmt.Fprintf(&buf, " ([link](%s))", song.Link)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// SongsToText renders songs as plain numbered lines
func SongsToText(songs []models.SongSummary) []byte {
	var buf bytes.Buffer

	for i, song := range songs {
		fmt.Fprintf(&buf, "%d. [%s] %s - %s", i+1, song.ID, song.Artists, song.Name)
		if song.Duration > 0 {
			fmt.Fprintf(&buf, " (%s)", shared.FormatDuration(song.Duration))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// RenderSongs renders songs in one of [FormatCSV], [FormatMarkdown] or [FormatText]
func RenderSongs(songs []models.SongSummary, format, title string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return SongsToCSV(songs)
	case FormatMarkdown, "markdown":
		return SongsToMarkdown(title, songs, ""), nil
	case FormatText, "text", "":
		return SongsToText(songs), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// CommentsToText renders hot comments as "nickname (likes): content" lines.
//
// Comments are opaque upstream objects; missing fields render as "?".
func CommentsToText(comments models.CommentList) []byte {
	var buf bytes.Buffer

	for i, c := range comments {
		nickname := "?"
		if user, ok := c["user"].(map[string]any); ok {
			if name, ok := user["nickname"].(string); ok && name != "" {
				nickname = name
			}
		}
		content, ok := c["content"].(string)
		if !ok {
			content = "?"
		}
		fmt.Fprintf(&buf, "%d. %s (%v likes): %s\n", i+1, nickname, valueOr(c["likedCount"], "0"), content)
	}

	return buf.Bytes()
}

// ExtraToText renders extra metadata as aligned key/value lines
func ExtraToText(extra models.ExtraMetadata) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Title:  %s\n", extra.Title)
	fmt.Fprintf(&buf, "Author: %s\n", extra.Author)
	fmt.Fprintf(&buf, "Cover:  %s\n", valueOr(extra.CoverURL, "-"))
	fmt.Fprintf(&buf, "Audio:  %s\n", valueOr(extra.AudioURL, "-"))
	return buf.Bytes()
}

func valueOr(v any, fallback string) any {
	if v == nil || v == "" {
		return fallback
	}
	return v
}

var timeTag = regexp.MustCompile(`\[\d{1,3}:\d{1,2}(?:[.:]\d{1,3})?\]`)
var metaTag = regexp.MustCompile(`^\[[a-zA-Z#]+:.*\]$`)

// StripTimestamps converts LRC text to plain lines, dropping time and metadata tags
func StripTimestamps(lrc string) string {
	var lines []string
	for line := range strings.SplitSeq(lrc, "\n") {
		line = strings.TrimRight(line, "\r")
		if metaTag.MatchString(strings.TrimSpace(line)) {
			continue
		}
		line = strings.TrimSpace(timeTag.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

var unsafeName = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// LyricsFilename builds a filesystem-safe file name: "{songID} - {name}.{format}"
func LyricsFilename(songID, name, format string) string {
	name = strings.TrimSpace(unsafeName.ReplaceAllString(name, "_"))
	songID = unsafeName.ReplaceAllString(songID, "_")
	if name == "" {
		return fmt.Sprintf("%s.%s", songID, format)
	}
	return fmt.Sprintf("%s - %s.%s", songID, shared.Truncate(name, 80), format)
}

type lyricsDocument struct {
	SongID string `json:"song_id"`
	Name   string `json:"name,omitempty"`
	Lyrics string `json:"lyrics"`
}

// RenderLyrics renders lyrics in one of [LyricsText], [LyricsLRC] or [LyricsJSON]
func RenderLyrics(songID, name, lyrics, format string) ([]byte, error) {
	switch format {
	case LyricsLRC:
		return []byte(lyrics), nil
	case LyricsText, "":
		return []byte(StripTimestamps(lyrics) + "\n"), nil
	case LyricsJSON:
		return shared.MarshalJSON(lyricsDocument{SongID: songID, Name: name, Lyrics: lyrics}, true)
	default:
		return nil, fmt.Errorf("%w: unknown lyrics format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteLyricsFile renders lyrics and writes them into dir, returning the file path
func WriteLyricsFile(dir, songID, name, lyrics, format string) (string, error) {
	if format == "" {
		format = LyricsText
	}

	data, err := RenderLyrics(songID, name, lyrics, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, LyricsFilename(songID, name, format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write lyrics file: %w", err)
	}
	return path, nil
}

// ManifestEntry records the outcome for one song in an export
type ManifestEntry struct {
	SongID string `json:"song_id"`
	File   string `json:"file,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Manifest summarizes a lyrics export
type Manifest struct {
	Provider  string          `json:"provider"`
	Format    string          `json:"format"`
	CreatedAt time.Time       `json:"created_at"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Entries   []ManifestEntry `json:"entries"`
}

// WriteManifest writes manifest as indented JSON to dir/[ManifestFile]
func WriteManifest(dir string, manifest *Manifest) (string, error) {
	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return "", fmt.Errorf("failed to generate manifest: %w", err)
	}

	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteSongsExport renders songs and writes them to path.
//
// For Markdown, a non-empty imageURL is downloaded next to path as cover.jpg; a
// failed download only drops the image.
func WriteSongsExport(songs []models.SongSummary, path, format, title, imageURL string) ([]string, error) {
	files := []string{}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	if (format == FormatMarkdown || format == "markdown") && imageURL != "" {
		coverName := ""
		if image, derr := DownloadImage(imageURL); derr == nil {
			coverPath := filepath.Join(filepath.Dir(path), "cover.jpg")
			if werr := os.WriteFile(coverPath, image, 0644); werr == nil {
				coverName = "cover.jpg"
				files = append(files, coverPath)
			}
		}
		data = SongsToMarkdown(title, songs, coverName)
	} else {
		data, err = RenderSongs(songs, format, title)
		if err != nil {
			return nil, err
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return append(files, path), nil
}
