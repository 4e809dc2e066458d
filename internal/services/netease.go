// NetEase public web API adapter.
//
// Search and hot comments hit music.163.com directly; lyrics and extra metadata
// go through third-party mirrors that take the NetEase song id.
package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

// NetEaseService implements [Provider] against the public NetEase web API.
type NetEaseService struct {
	config  shared.NetEaseConfig
	session *Session
	logger  *log.Logger
}

// NewNetEaseService creates the adapter and its [Session].
//
// POST requests carry the User-Agent and GET requests carry the Referer, which is
// what the upstream endpoints accept. GET responses without a JSON content type are ignored.
func NewNetEaseService(config shared.NetEaseConfig, opts ServiceOpts) *NetEaseService {
	logger := opts.logger(NetEaseName)

	postHeaders := map[string]string{}
	if config.UserAgent != "" {
		postHeaders["User-Agent"] = config.UserAgent
	}
	getHeaders := map[string]string{}
	if config.Referer != "" {
		getHeaders["Referer"] = config.Referer
	}

	session := NewSession(SessionOpts{
		Name:        NetEaseName,
		GetHeaders:  getHeaders,
		PostHeaders: postHeaders,
		Cookies:     config.Cookies,
		Encoding:    FormEncoding,
		StrictGET:   true,
		HTTPClient:  opts.HTTPClient,
		Timeout:     opts.Timeout,
		Logger:      logger,
	})

	return &NetEaseService{config: config, session: session, logger: logger}
}

// Name returns "netease".
func (s *NetEaseService) Name() string { return NetEaseName }

// Search queries the web search endpoint for songs matching keyword.
func (s *NetEaseService) Search(ctx context.Context, keyword string, limit int) []models.SongSummary {
	limit = normalizeLimit(limit)
	payload := Payload{"s": keyword, "limit": limit, "type": 1, "offset": 0}

	doc, err := s.session.Request(ctx, http.MethodPost, s.config.SearchURL, payload)
	if err != nil {
		s.logger.Error("search failed", "keyword", keyword, "error", err)
		return []models.SongSummary{}
	}
	return parseNetEaseSongs(doc, limit, NetEaseName, s.logger)
}

// HotComments posts the pre-encrypted params pair to the hot comments endpoint.
func (s *NetEaseService) HotComments(ctx context.Context, songID string) models.CommentList {
	payload := Payload{"params": s.config.Params, "encSecKey": s.config.EncSecKey}

	doc, err := s.session.Request(ctx, http.MethodPost, s.commentsURL(songID), payload)
	if err != nil {
		s.logger.Error("hot comments failed", "song_id", songID, "error", err)
		return models.CommentList{}
	}
	return commentsFrom(doc)
}

// Lyrics fetches lrc.lyric from the lyrics mirror.
func (s *NetEaseService) Lyrics(ctx context.Context, songID string) string {
	doc, err := s.session.Request(ctx, http.MethodGet, s.config.LyricsURL, Payload{"id": songID})
	if err != nil {
		s.logger.Error("lyrics failed", "song_id", songID, "error", err)
		return models.LyricsFetchFailed
	}
	return lyricsFrom(doc)
}

// Extra fetches title, singer, cover and audio url from the extra metadata mirror.
func (s *NetEaseService) Extra(ctx context.Context, songID string) models.ExtraMetadata {
	extra := models.NewExtraMetadata()

	payload := Payload{"id": songID, "br": 7, "type": "json"}
	doc, err := s.session.Request(ctx, http.MethodGet, s.config.ExtraURL, payload)
	if err != nil {
		s.logger.Error("extra metadata failed", "song_id", songID, "error", err)
		return extra
	}

	extra.Title = doc.StringOr("title", extra.Title)
	extra.Author = doc.StringOr("singer", extra.Author)
	extra.CoverURL = doc.StringOr("cover", extra.CoverURL)
	extra.AudioURL = doc.StringOr("music_url", extra.AudioURL)
	return extra
}

// Close releases the session's idle connections.
func (s *NetEaseService) Close() error { return s.session.Close() }

func (s *NetEaseService) commentsURL(songID string) string {
	id := url.PathEscape(songID)
	if strings.Contains(s.config.CommentsURL, "%s") {
		return strings.Replace(s.config.CommentsURL, "%s", id, 1)
	}
	return s.config.CommentsURL + id
}
