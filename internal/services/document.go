package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

// Document is a decoded JSON object. Numbers are kept as [json.Number].
type Document map[string]any

func decodeDocument(body []byte) (Document, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Document{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return Document{}, err
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return Document{}, errors.New("unexpected data after JSON value")
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func asDocument(v any) (Document, bool) {
	switch m := v.(type) {
	case map[string]any:
		return Document(m), true
	case Document:
		return m, true
	default:
		return nil, false
	}
}

// Map returns the nested object at key.
func (d Document) Map(key string) (Document, bool) {
	return asDocument(d[key])
}

// List returns the array at key.
func (d Document) List(key string) ([]any, bool) {
	v, ok := d[key].([]any)
	return v, ok
}

// String returns the scalar at key rendered as text. Strings and numbers qualify.
func (d Document) String(key string) (string, bool) {
	return scalarString(d[key])
}

// StringOr is [Document.String] with a fallback for absent, null or non-scalar values.
func (d Document) StringOr(key, fallback string) string {
	if s, ok := d.String(key); ok {
		return s
	}
	return fallback
}

// Int returns the integer at key, or 0.
func (d Document) Int(key string) int {
	switch v := d[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// Path walks nested objects and returns the value at the final key.
func (d Document) Path(keys ...string) (any, bool) {
	var cur any = d
	for _, k := range keys {
		m, ok := asDocument(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[k]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	default:
		return "", false
	}
}

// parseNetEaseSongs maps the result.songs list shared by the public web API and the
// NodeJS mirror. A missing or mistyped list yields an empty, non-nil slice.
func parseNetEaseSongs(doc Document, limit int, source string, logger *log.Logger) []models.SongSummary {
	songs := []models.SongSummary{}

	result, ok := doc.Map("result")
	if !ok {
		logger.Error("malformed search response", "provider", source, "missing", "result", "body", excerpt(doc))
		return songs
	}
	records, ok := result.List("songs")
	if !ok {
		logger.Error("malformed search response", "provider", source, "missing", "result.songs", "body", excerpt(doc))
		return songs
	}

	for _, raw := range records {
		if len(songs) >= limit {
			break
		}
		rec, ok := asDocument(raw)
		if !ok {
			logger.Debug("skipping non-object song record", "provider", source)
			continue
		}
		id, ok := rec.String("id")
		if !ok || id == "" {
			logger.Debug("skipping song record without id", "provider", source)
			continue
		}

		songs = append(songs, models.SongSummary{
			ID:       id,
			Name:     rec.StringOr("name", models.UnknownSong),
			Artists:  joinArtists(rec),
			Duration: rec.Int("duration"),
			Source:   source,
		})
	}
	return songs
}

func joinArtists(rec Document) string {
	list, _ := rec.List("artists")
	names := make([]string, 0, len(list))
	for _, raw := range list {
		if artist, ok := asDocument(raw); ok {
			if name, ok := artist.String("name"); ok && name != "" {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return models.UnknownArtist
	}
	return strings.Join(names, models.ArtistDelimiter)
}

// lyricsFrom extracts lrc.lyric from a successful lyrics response.
func lyricsFrom(doc Document) string {
	v, ok := doc.Path("lrc", "lyric")
	if !ok {
		return models.LyricsNotFound
	}
	text, ok := v.(string)
	if !ok {
		return models.LyricsNotFound
	}
	return text
}

// commentsFrom extracts the hotComments list, keeping only object entries.
func commentsFrom(doc Document) models.CommentList {
	comments := models.CommentList{}
	list, ok := doc.List("hotComments")
	if !ok {
		return comments
	}
	for _, raw := range list {
		if c, ok := asDocument(raw); ok {
			comments = append(comments, models.Comment(c))
		}
	}
	return comments
}

func excerpt(doc Document) string {
	data, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return shared.Truncate(string(data), excerptLen)
}
