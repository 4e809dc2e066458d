// Multi-platform aggregator adapter (txqq). One endpoint searches many platforms,
// selected by a platform token.
package services

import (
	"context"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

// Platform tokens understood by the aggregator.
const (
	PlatformNetEase  = "netease"
	PlatformQQ       = "qq"
	PlatformKugou    = "kugou"
	PlatformKuwo     = "kuwo"
	PlatformBaidu    = "baidu"
	PlatformMigu     = "migu"
	Platform1Ting    = "1ting"
	Platform5SingYC  = "5singyc"
	Platform5SingFC  = "5singfc"
	PlatformLizhi    = "lizhi"
	PlatformQingting = "qingting"
	PlatformXimalaya = "ximalaya"
	PlatformKG       = "kg"
)

// Platforms lists every known platform token.
var Platforms = []string{
	PlatformNetEase, PlatformQQ, PlatformKugou, PlatformKuwo, PlatformBaidu, PlatformMigu,
	Platform1Ting, Platform5SingYC, Platform5SingFC, PlatformLizhi, PlatformQingting,
	PlatformXimalaya, PlatformKG,
}

// ValidPlatform reports whether p is a known platform token. Unknown tokens are
// still sent upstream by [Aggregator.Search].
func ValidPlatform(p string) bool {
	return slices.Contains(Platforms, p)
}

// Aggregator searches the txqq aggregator. It implements [io.Closer] and hands out
// per-platform [Searcher]s through [Aggregator.Platform].
type Aggregator struct {
	session *Session
	logger  *log.Logger
}

// NewAggregator creates the adapter with the browser-style XHR headers the upstream expects.
func NewAggregator(config shared.AggregatorConfig, opts ServiceOpts) *Aggregator {
	logger := opts.logger(AggregatorName)

	headers := map[string]string{
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"X-Requested-With": "XMLHttpRequest",
	}
	if config.UserAgent != "" {
		headers["User-Agent"] = config.UserAgent
	}
	if config.Referer != "" {
		headers["Referer"] = config.Referer
	}

	session := NewSession(SessionOpts{
		Name:       AggregatorName,
		BaseURL:    config.BaseURL,
		Headers:    headers,
		Encoding:   FormEncoding,
		HTTPClient: opts.HTTPClient,
		Timeout:    opts.Timeout,
		Logger:     logger,
	})

	return &Aggregator{session: session, logger: logger}
}

// Search looks keyword up by name on platform.
func (a *Aggregator) Search(ctx context.Context, keyword, platform string, limit int) []models.SongSummary {
	limit = normalizeLimit(limit)
	songs := []models.SongSummary{}
	source := AggregatorName + ":" + platform

	if !ValidPlatform(platform) {
		a.logger.Warn("unknown platform, passing through", "platform", platform)
	}

	payload := Payload{"input": keyword, "filter": "name", "type": platform, "page": 1}
	doc, err := a.session.Request(ctx, http.MethodPost, "", payload)
	if err != nil {
		a.logger.Error("search failed", "platform", platform, "keyword", keyword, "error", err)
		return songs
	}

	records, ok := doc.List("songs")
	if !ok {
		a.logger.Error("malformed search response", "platform", platform, "missing", "songs", "body", excerpt(doc))
		return songs
	}

	for _, raw := range records {
		if len(songs) >= limit {
			break
		}
		rec, ok := asDocument(raw)
		if !ok {
			continue
		}
		id, ok := rec.String("songid")
		if !ok || id == "" {
			a.logger.Debug("skipping song record without songid", "platform", platform)
			continue
		}

		songs = append(songs, models.SongSummary{
			ID:       id,
			Name:     rec.StringOr("title", models.UnknownSong),
			Artists:  rec.StringOr("author", models.UnknownArtist),
			URL:      rec.StringOr("url", ""),
			Link:     rec.StringOr("link", ""),
			Lyrics:   rec.StringOr("lrc", ""),
			CoverURL: rec.StringOr("pic", ""),
			Source:   source,
		})
	}
	return songs
}

// Platform returns a [Searcher] bound to one platform.
func (a *Aggregator) Platform(platform string) Searcher {
	return platformSearcher{aggregator: a, platform: platform}
}

// Close releases the session's idle connections.
func (a *Aggregator) Close() error { return a.session.Close() }

type platformSearcher struct {
	aggregator *Aggregator
	platform   string
}

func (p platformSearcher) Name() string { return AggregatorName + ":" + p.platform }

func (p platformSearcher) Search(ctx context.Context, keyword string, limit int) []models.SongSummary {
	return p.aggregator.Search(ctx, keyword, p.platform, limit)
}
