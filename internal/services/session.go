package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songx/internal/shared"
)

// excerptLen bounds how much of a response body is copied into log entries.
const excerptLen = 200

// Errors returned by [Session.Request]. Only [ErrUnsupportedMethod] signals a caller bug;
// the others are already logged and come with an empty [Document].
var (
	ErrUnsupportedMethod = fmt.Errorf("%w: unsupported request method", shared.ErrInvalidArgument)
	ErrTransport         = fmt.Errorf("%w: transport failure", shared.ErrAPIRequest)
	ErrStatus            = fmt.Errorf("%w: unexpected status", shared.ErrAPIRequest)
	ErrDecode            = fmt.Errorf("%w: malformed response body", shared.ErrAPIRequest)
)

// Encoding selects how POST payloads are written.
type Encoding int

const (
	FormEncoding Encoding = iota // application/x-www-form-urlencoded
	JSONEncoding                 // application/json
)

// Payload is the key/value body of a request. GET requests send it as query parameters.
type Payload map[string]any

// SessionOpts configures a [Session].
type SessionOpts struct {
	Name        string            // provider name used in log entries
	BaseURL     string            // relative targets are resolved against it
	Headers     map[string]string // sent on every request
	GetHeaders  map[string]string // sent on GET only
	PostHeaders map[string]string // sent on POST only
	Cookies     map[string]string
	Encoding    Encoding
	StrictGET   bool // ignore GET responses whose Content-Type is not JSON
	HTTPClient  *http.Client
	Timeout     time.Duration // used only when HTTPClient is nil
	Logger      *log.Logger
}

// Session is the long-lived HTTP resource owned by one provider adapter.
//
// It holds its own connection pool and is safe for concurrent use; nothing in it
// changes after construction. Release the pool with [Session.Close].
type Session struct {
	name        string
	baseURL     string
	headers     map[string]string
	getHeaders  map[string]string
	postHeaders map[string]string
	cookies     []*http.Cookie
	encoding    Encoding
	strictGET   bool
	httpClient  *http.Client
	logger      *log.Logger
}

// NewSession creates a [Session]. Without an HTTPClient a client with a private transport is built.
func NewSession(opts SessionOpts) *Session {
	client := opts.HTTPClient
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		client = &http.Client{Transport: transport, Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	base := opts.BaseURL
	if base != "" {
		base = strings.TrimRight(base, "/") + "/"
	}

	names := make([]string, 0, len(opts.Cookies))
	for name := range opts.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: opts.Cookies[name]})
	}

	return &Session{
		name:        opts.Name,
		baseURL:     base,
		headers:     opts.Headers,
		getHeaders:  opts.GetHeaders,
		postHeaders: opts.PostHeaders,
		cookies:     cookies,
		encoding:    opts.Encoding,
		strictGET:   opts.StrictGET,
		httpClient:  client,
		logger:      logger,
	}
}

// BaseURL returns the normalized base URL, always ending in "/" when set.
func (s *Session) BaseURL() string { return s.baseURL }

// Request performs a single GET or POST and decodes the JSON object in the response.
//
// method is matched case-insensitively; anything other than GET or POST returns
// [ErrUnsupportedMethod] before any I/O. Every other failure is logged and returned
// as a categorized error together with an empty, non-nil [Document]. An empty body
// decodes to an empty Document with no error.
func (s *Session) Request(ctx context.Context, method, target string, payload Payload) (Document, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if m != http.MethodGet && m != http.MethodPost {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	fullURL, err := s.resolve(target)
	if err != nil {
		s.logger.Error("invalid request url", "provider", s.name, "target", target, "error", err)
		return Document{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	req, err := s.newRequest(ctx, m, fullURL, payload)
	if err != nil {
		s.logger.Error("failed to create request", "provider", s.name, "url", fullURL, "error", err)
		return Document{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	reqID := shared.GenerateID()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("request failed", "provider", s.name, "id", reqID, "method", m, "url", req.URL.String(), "error", err)
		return Document{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	s.logger.Debug("request", "provider", s.name, "id", reqID, "method", m, "url", req.URL.String(), "status", resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("failed to read response", "provider", s.name, "id", reqID, "url", req.URL.String(), "error", err)
		return Document{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("unexpected status", "provider", s.name, "id", reqID, "url", req.URL.String(),
			"status", resp.StatusCode, "body", shared.Truncate(string(body), excerptLen))
		return Document{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	if m == http.MethodGet && s.strictGET && !isJSONContentType(resp.Header.Get("Content-Type")) {
		s.logger.Debug("ignoring non-JSON response", "provider", s.name, "id", reqID,
			"content_type", resp.Header.Get("Content-Type"))
		return Document{}, nil
	}

	doc, err := decodeDocument(body)
	if err != nil {
		s.logger.Error("JSON decode failed", "provider", s.name, "id", reqID, "url", req.URL.String(),
			"error", err, "body", shared.Truncate(string(body), excerptLen))
		return Document{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return doc, nil
}

// Close releases idle pooled connections. It is safe to call more than once.
func (s *Session) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *Session) resolve(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return target, nil
	}
	if s.baseURL == "" {
		return "", fmt.Errorf("relative target %q without a base URL", target)
	}
	return s.baseURL + strings.TrimLeft(target, "/"), nil
}

func (s *Session) newRequest(ctx context.Context, method, fullURL string, payload Payload) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
		extra       map[string]string
	)

	switch method {
	case http.MethodGet:
		u, err := url.Parse(fullURL)
		if err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			q := u.Query()
			for k, v := range payload {
				q.Set(k, formatValue(v))
			}
			u.RawQuery = q.Encode()
		}
		fullURL = u.String()
		extra = s.getHeaders
	case http.MethodPost:
		if s.encoding == JSONEncoding {
			data, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal payload: %w", err)
			}
			body = bytes.NewReader(data)
			contentType = "application/json"
		} else {
			form := url.Values{}
			for k, v := range payload {
				form.Set(k, formatValue(v))
			}
			body = strings.NewReader(form.Encode())
			contentType = "application/x-www-form-urlencoded"
		}
		extra = s.postHeaders
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}

	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	return req, nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func isJSONContentType(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
