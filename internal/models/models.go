// package models defines the normalized song records shared by every provider adapter
package models

import "time"

// ArtistDelimiter joins multiple artist names into [SongSummary.Artists].
const ArtistDelimiter = "、"

// Placeholder values used in place of absent upstream fields.
const (
	UnknownSong   = "unknown song"
	UnknownArtist = "unknown artist"
)

// Lyrics sentinels. LyricsNotFound means the upstream answered but had no lyrics;
// LyricsFetchFailed means the request or its decoding failed.
const (
	LyricsNotFound    = "lyrics not found"
	LyricsFetchFailed = "lyrics fetch failed"
)

// IsLyricsSentinel reports whether text is one of the lyrics sentinels rather than real lyrics.
func IsLyricsSentinel(text string) bool {
	return text == LyricsNotFound || text == LyricsFetchFailed
}

// SongSummary is a single search result normalized across providers.
//
// Duration is in milliseconds and is zero when the upstream does not report it.
// URL, Link, Lyrics and CoverURL are only filled by the aggregator.
type SongSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Artists  string `json:"artists"`
	Duration int    `json:"duration,omitempty"`
	URL      string `json:"url,omitempty"`
	Link     string `json:"link,omitempty"`
	Lyrics   string `json:"lyrics,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Comment is an upstream comment object passed through untouched.
type Comment map[string]any

// CommentList is an ordered list of upstream comments.
type CommentList []Comment

// ExtraMetadata holds playback details for a song. It is never partially filled:
// absent fields carry their placeholder.
type ExtraMetadata struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverURL string `json:"cover_url"`
	AudioURL string `json:"audio_url"`
}

// NewExtraMetadata returns an [ExtraMetadata] with every field set to its placeholder.
func NewExtraMetadata() ExtraMetadata {
	return ExtraMetadata{Title: UnknownSong, Author: UnknownArtist}
}

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}
