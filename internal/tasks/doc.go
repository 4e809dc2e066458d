// Package tasks runs the multi-step operations that sit on top of the provider adapters.
//
// # Library
//
// [Librarian.Save] fetches lyrics and extra metadata for a search result in parallel
// and stores the combined entry through a [SongStore].
//
// # Lyrics export
//
// [LyricsExporter.Export] fans song ids out to a bounded worker pool. A token bucket
// from golang.org/x/time/rate paces how fast jobs are handed out, each worker writes
// one lyric file through the formatter package, and a manifest summarizing every
// outcome is written last.
//
// # Progress Reporting
//
// Operations accept an optional chan<- [ProgressUpdate]. Sends never block: when the
// channel is full the update is dropped.
package tasks
