package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

// DefaultLimit is the number of search results returned when the caller passes a non-positive limit.
const DefaultLimit = 5

// Provider names accepted by [Registry].
const (
	NetEaseName    = "netease"
	NodeName       = "node"
	AggregatorName = "aggregator"
)

// Searcher is anything that can turn a keyword into normalized search results.
type Searcher interface {
	// Name identifies the searcher in logs and on [models.SongSummary.Source].
	Name() string

	// Search returns at most limit results in upstream order. It never returns nil.
	Search(ctx context.Context, keyword string, limit int) []models.SongSummary
}

// Provider is a full single-platform adapter.
//
// Every method is best-effort: upstream failures are logged and surface as empty
// results or placeholder values, never as errors.
type Provider interface {
	Searcher

	// HotComments returns the upstream's hot comments for a song, passed through untouched.
	HotComments(ctx context.Context, songID string) models.CommentList

	// Lyrics returns the raw lyric text or one of the lyrics sentinels.
	Lyrics(ctx context.Context, songID string) string

	// Extra returns playback details with placeholders for anything missing.
	Extra(ctx context.Context, songID string) models.ExtraMetadata

	// Close releases the adapter's connection pool.
	Close() error
}

// ServiceOpts carries the dependencies shared by every adapter constructor.
type ServiceOpts struct {
	HTTPClient *http.Client // optional; each adapter builds its own when nil
	Timeout    time.Duration
	Logger     *log.Logger
}

func (o ServiceOpts) logger(name string) *log.Logger {
	if o.Logger == nil {
		return shared.DiscardLogger()
	}
	return shared.WithLogger(o.Logger, "provider", name)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// Registry owns one instance of every adapter built from a [shared.Config] and resolves them by name.
type Registry struct {
	netease         *NetEaseService
	node            *NodeService
	aggregator      *Aggregator
	defaultPlatform string
}

// NewRegistry constructs every adapter. No network I/O happens until a capability is called.
func NewRegistry(config *shared.Config, opts ServiceOpts) *Registry {
	if opts.Timeout == 0 && config.HTTP.Timeout > 0 {
		opts.Timeout = time.Duration(config.HTTP.Timeout) * time.Second
	}

	platform := config.Providers.Aggregator.DefaultPlatform
	if platform == "" {
		platform = PlatformNetEase
	}

	return &Registry{
		netease:         NewNetEaseService(config.Providers.NetEase, opts),
		node:            NewNodeService(config.Providers.Node, opts),
		aggregator:      NewAggregator(config.Providers.Aggregator, opts),
		defaultPlatform: platform,
	}
}

// Names lists the provider names accepted by [Registry.Provider].
func (r *Registry) Names() []string {
	return []string{NetEaseName, NodeName}
}

// Provider returns the full adapter registered under name.
func (r *Registry) Provider(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NetEaseName, "":
		return r.netease, nil
	case NodeName:
		return r.node, nil
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownProvider, name)
	}
}

// Searcher resolves name to a [Searcher]. Besides the full providers it accepts
// "aggregator" (default platform) and "aggregator:<platform>".
func (r *Registry) Searcher(name string) (Searcher, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == AggregatorName {
		return r.aggregator.Platform(r.defaultPlatform), nil
	}
	if platform, ok := strings.CutPrefix(name, AggregatorName+":"); ok {
		if platform == "" {
			return nil, fmt.Errorf("%w: empty aggregator platform", shared.ErrInvalidArgument)
		}
		return r.aggregator.Platform(platform), nil
	}
	return r.Provider(name)
}

// Aggregator returns the multi-platform search adapter.
func (r *Registry) Aggregator() *Aggregator { return r.aggregator }

// DefaultPlatform is the aggregator platform used when none is named.
func (r *Registry) DefaultPlatform() string { return r.defaultPlatform }

// Close closes every adapter and joins their errors.
func (r *Registry) Close() error {
	return errors.Join(r.netease.Close(), r.node.Close(), r.aggregator.Close())
}

// Fallback tries each searcher in order and returns the first non-empty result together
// with the name of the searcher that produced it. With no hits it returns an empty slice
// and an empty name.
func Fallback(ctx context.Context, keyword string, limit int, searchers ...Searcher) ([]models.SongSummary, string) {
	for _, s := range searchers {
		if ctx.Err() != nil {
			break
		}
		if songs := s.Search(ctx, keyword, limit); len(songs) > 0 {
			return songs, s.Name()
		}
	}
	return []models.SongSummary{}, ""
}
