// Package models defines the normalized records every provider adapter returns.
//
// # Data Transfer Objects
//
//   - [SongSummary] : one search hit, artists joined with [ArtistDelimiter]
//   - [CommentList] : upstream comment objects, passed through untouched
//   - [ExtraMetadata] : title, author, cover and audio URL, never partial
//
// Lyrics are plain strings. [LyricsNotFound] and [LyricsFetchFailed] are distinct
// sentinels: the former means the upstream had no lyrics, the latter that the
// request or decoding failed.
//
// # Persistent Entities
//
//   - [SavedSong] : a library entry implementing [Model]
//
// The [Repository] interface defines standard CRUD operations for database access.
package models
