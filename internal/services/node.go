// NetEase NodeJS API adapter for self-hosted mirrors such as https://163api.qijieya.cn.
package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

const (
	nodeSearchPath   = "search"
	nodeCommentsPath = "comment/hot"
	nodeLyricsPath   = "lyric"
	nodeSongURLPath  = "song/url"

	nodeCommentLimit = 10
	nodeBitrate      = 320000
)

// NodeService implements [Provider] against a NetEase NodeJS REST mirror.
type NodeService struct {
	session *Session
	logger  *log.Logger
}

// NewNodeService creates the adapter. POST bodies are JSON and every request
// carries browser-like headers with the mirror itself as Referer.
func NewNodeService(config shared.NodeConfig, opts ServiceOpts) *NodeService {
	logger := opts.logger(NodeName)

	headers := map[string]string{"Accept": "application/json, text/plain, */*"}
	if config.UserAgent != "" {
		headers["User-Agent"] = config.UserAgent
	}
	if config.BaseURL != "" {
		headers["Referer"] = strings.TrimRight(config.BaseURL, "/") + "/"
	}

	session := NewSession(SessionOpts{
		Name:       NodeName,
		BaseURL:    config.BaseURL,
		Headers:    headers,
		Encoding:   JSONEncoding,
		HTTPClient: opts.HTTPClient,
		Timeout:    opts.Timeout,
		Logger:     logger,
	})

	logger.Debug("node adapter ready", "base_url", session.BaseURL())
	return &NodeService{session: session, logger: logger}
}

// Name returns "node".
func (s *NodeService) Name() string { return NodeName }

// Search posts to /search and maps result.songs.
func (s *NodeService) Search(ctx context.Context, keyword string, limit int) []models.SongSummary {
	limit = normalizeLimit(limit)
	payload := Payload{"keywords": keyword, "limit": limit, "type": 1, "offset": 0}

	doc, err := s.session.Request(ctx, http.MethodPost, nodeSearchPath, payload)
	if err != nil {
		s.logger.Error("search failed", "keyword", keyword, "error", err)
		return []models.SongSummary{}
	}
	return parseNetEaseSongs(doc, limit, NodeName, s.logger)
}

// HotComments posts to /comment/hot with type 0 (song).
func (s *NodeService) HotComments(ctx context.Context, songID string) models.CommentList {
	payload := Payload{"id": songID, "type": 0, "limit": nodeCommentLimit}

	doc, err := s.session.Request(ctx, http.MethodPost, nodeCommentsPath, payload)
	if err != nil {
		s.logger.Error("hot comments failed", "song_id", songID, "error", err)
		return models.CommentList{}
	}
	return commentsFrom(doc)
}

// Lyrics reads lrc.lyric from /lyric.
func (s *NodeService) Lyrics(ctx context.Context, songID string) string {
	doc, err := s.session.Request(ctx, http.MethodGet, nodeLyricsPath, Payload{"id": songID, "os": "pc"})
	if err != nil {
		s.logger.Error("lyrics failed", "song_id", songID, "error", err)
		return models.LyricsFetchFailed
	}
	return lyricsFrom(doc)
}

// Extra resolves the 320k audio url from /song/url. The mirror reports no title,
// artist or cover here, so those keep their placeholders.
func (s *NodeService) Extra(ctx context.Context, songID string) models.ExtraMetadata {
	extra := models.NewExtraMetadata()

	// Some mirrors read "id", others "ids".
	payload := Payload{"id": songID, "ids": songID, "br": nodeBitrate}
	s.logger.Debug("requesting audio url", "song_id", songID)

	doc, err := s.session.Request(ctx, http.MethodPost, nodeSongURLPath, payload)
	if err != nil {
		s.logger.Error("audio url request failed", "song_id", songID, "error", err)
		return extra
	}
	if len(doc) == 0 {
		s.logger.Error("empty audio url response", "song_id", songID)
		return extra
	}

	shape, audioURL, ok := MatchShape(doc, AudioURLShapes)
	if !ok {
		s.logger.Error("unrecognized audio url response", "song_id", songID, "body", excerpt(doc))
		return extra
	}
	if audioURL == "" {
		s.logger.Error("audio url is empty", "song_id", songID, "shape", shape.Name, "body", excerpt(doc))
		return extra
	}

	s.logger.Debug("audio url resolved", "song_id", songID, "shape", shape.Name)
	extra.AudioURL = audioURL
	return extra
}

// Close releases the session's idle connections.
func (s *NodeService) Close() error { return s.session.Close() }
