// Package services adapts three music-search upstreams to one normalized schema.
//
// # Providers
//
//   - [NetEaseService] talks to the public NetEase web API plus two mirrors for lyrics and audio.
//   - [NodeService] talks to a self-hosted NetEase NodeJS REST mirror.
//   - [Aggregator] talks to the txqq multi-platform aggregator and only searches.
//
// NetEaseService and NodeService implement [Provider]. The aggregator yields a
// [Searcher] per platform so every backend can sit behind the same search call.
//
// # Requests
//
// Each adapter owns one [Session] created at construction. [Session.Request] sends a
// GET or POST, decodes the JSON object into a [Document] and logs every failure.
// Adapters never return upstream errors: a failed search is an empty slice, failed
// comments are an empty list, lyrics degrade to [models.LyricsNotFound] or
// [models.LyricsFetchFailed], and extra metadata keeps its placeholders.
//
// # Response shapes
//
// Mirrors disagree on the /song/url layout. [AudioURLShapes] lists the known
// layouts in priority order and [MatchShape] picks the first that fits.
//
// # Composition
//
// Adapters do not know about each other. [Registry] builds all of them from a
// [shared.Config] and [Fallback] tries searchers in order until one has results.
package services
