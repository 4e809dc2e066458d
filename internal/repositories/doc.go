// Package repositories implements SQLite persistence for the local song library.
//
// [SongRepository] stores songs the user saved from any provider, keyed by a
// generated UUID and unique per (source, song_id) among live rows. Deletes are soft:
// deleted_at is set and every query excludes such rows.
//
// [NextSequence] atomically increments the songs_sequence counter so library
// entries list in the order they were saved.
package repositories
