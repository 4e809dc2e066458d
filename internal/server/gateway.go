package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/services"
	"github.com/desertthunder/songx/internal/shared"
)

// Resolver looks adapters up by name. [services.Registry] is one.
type Resolver interface {
	Provider(name string) (services.Provider, error)
	Searcher(name string) (services.Searcher, error)
}

// SongLister lists saved songs. repositories.SongRepository is one.
type SongLister interface {
	List(criteria map[string]any) ([]*models.SavedSong, error)
}

// Gateway exposes the provider capabilities as a read-only JSON API.
type Gateway struct {
	resolver Resolver
	library  SongLister
	logger   *log.Logger
	mux      *http.ServeMux
}

const (
	routeSearch   = "GET /api/{provider}/search"
	routeFallback = "GET /api/search"
	routeComments = "GET /api/{provider}/comments/{id}"
	routeLyrics   = "GET /api/{provider}/lyrics/{id}"
	routeExtra    = "GET /api/{provider}/extra/{id}"
	routeLibrary  = "GET /api/library"
)

// NewGateway creates a Gateway. library may be nil, in which case /api/library answers 503.
func NewGateway(resolver Resolver, library SongLister, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	g := &Gateway{resolver: resolver, library: library, logger: logger, mux: http.NewServeMux()}

	g.mux.HandleFunc(routeSearch, g.search)
	g.mux.HandleFunc(routeFallback, g.fallback)
	g.mux.HandleFunc(routeComments, g.comments)
	g.mux.HandleFunc(routeLyrics, g.lyrics)
	g.mux.HandleFunc(routeExtra, g.extra)
	g.mux.HandleFunc(routeLibrary, g.listLibrary)
	return g
}

// Routes implements [Handler].
func (g *Gateway) Routes() []string {
	return []string{"/api/"}
}

// ServeHTTP implements [http.Handler].
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

type searchResponse struct {
	Provider string               `json:"provider"`
	Keyword  string               `json:"keyword"`
	Songs    []models.SongSummary `json:"songs"`
}

type lyricsResponse struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
	Lyrics   string `json:"lyrics"`
	Found    bool   `json:"found"`
}

type commentsResponse struct {
	Provider string             `json:"provider"`
	ID       string             `json:"id"`
	Comments models.CommentList `json:"comments"`
}

type extraResponse struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
	models.ExtraMetadata
}

type librarySong struct {
	LibraryID string `json:"library_id"`
	Sequence  int    `json:"sequence"`
	models.SongSummary
	AudioURL  string `json:"audio_url,omitempty"`
	HasLyrics bool   `json:"has_lyrics"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

type healthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers"`
}

// HealthHandler reports liveness along with the provider names the gateway serves.
func HealthHandler(providers []string) http.Handler {
	if providers == nil {
		providers = []string{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Providers: providers})
	})
}

// Mount registers the health check and the gateway on router.
func Mount(router Router, gateway *Gateway, providers []string) {
	router.Handle(http.MethodGet, "/health", HealthHandler(providers))
	router.Handler(gateway)
}

func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return services.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 100 {
		return 0, errors.New("limit must be between 1 and 100")
	}
	return n, nil
}

func (g *Gateway) search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := r.PathValue("provider")
	if platform := r.URL.Query().Get("platform"); platform != "" && name == services.AggregatorName {
		name = services.AggregatorName + ":" + platform
	}

	searcher, err := g.resolver.Searcher(name)
	if err != nil {
		g.resolveError(w, err)
		return
	}

	songs := searcher.Search(r.Context(), keyword, limit)
	writeJSON(w, http.StatusOK, searchResponse{Provider: searcher.Name(), Keyword: keyword, Songs: songs})
}

// fallback tries ?providers=a,b,c in order and answers with the first non-empty result.
func (g *Gateway) fallback(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	names := shared.SplitList(r.URL.Query().Get("providers"))
	if len(names) == 0 {
		names = []string{services.NetEaseName, services.AggregatorName}
	}

	searchers := make([]services.Searcher, 0, len(names))
	for _, name := range names {
		s, err := g.resolver.Searcher(name)
		if err != nil {
			g.resolveError(w, err)
			return
		}
		searchers = append(searchers, s)
	}

	songs, answered := services.Fallback(r.Context(), keyword, limit, searchers...)
	writeJSON(w, http.StatusOK, searchResponse{Provider: answered, Keyword: keyword, Songs: songs})
}

func (g *Gateway) provider(w http.ResponseWriter, r *http.Request) (services.Provider, bool) {
	p, err := g.resolver.Provider(r.PathValue("provider"))
	if err != nil {
		g.resolveError(w, err)
		return nil, false
	}
	return p, true
}

func (g *Gateway) comments(w http.ResponseWriter, r *http.Request) {
	p, ok := g.provider(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, commentsResponse{Provider: p.Name(), ID: id, Comments: p.HotComments(r.Context(), id)})
}

func (g *Gateway) lyrics(w http.ResponseWriter, r *http.Request) {
	p, ok := g.provider(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	text := p.Lyrics(r.Context(), id)
	writeJSON(w, http.StatusOK, lyricsResponse{Provider: p.Name(), ID: id, Lyrics: text, Found: !models.IsLyricsSentinel(text)})
}

func (g *Gateway) extra(w http.ResponseWriter, r *http.Request) {
	p, ok := g.provider(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, extraResponse{Provider: p.Name(), ID: id, ExtraMetadata: p.Extra(r.Context(), id)})
}

func (g *Gateway) listLibrary(w http.ResponseWriter, r *http.Request) {
	if g.library == nil {
		writeError(w, http.StatusServiceUnavailable, "library not configured")
		return
	}

	criteria := map[string]any{}
	if source := r.URL.Query().Get("source"); source != "" {
		criteria["source"] = source
	}
	if name := r.URL.Query().Get("name"); name != "" {
		criteria["name"] = name
	}

	saved, err := g.library.List(criteria)
	if err != nil {
		g.logger.Error("failed to list library", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list library")
		return
	}

	out := make([]librarySong, 0, len(saved))
	for _, s := range saved {
		out = append(out, librarySong{
			LibraryID:   s.ID(),
			Sequence:    s.Sequence(),
			SongSummary: s.Song(),
			AudioURL:    s.Extra().AudioURL,
			HasLyrics:   s.Lyrics() != "",
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (g *Gateway) resolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		g.logger.Error("failed to resolve provider", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
