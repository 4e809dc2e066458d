package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/songx/internal/shared"
	tu "github.com/desertthunder/songx/internal/testing"
)

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSession", func(t *testing.T) {
		t.Run("Normalizes Base URL", func(t *testing.T) {
			for _, base := range []string{"http://example.com", "http://example.com/", "http://example.com///"} {
				s := NewSession(SessionOpts{BaseURL: base})
				if s.BaseURL() != "http://example.com/" {
					t.Errorf("expected normalized base URL, got %q", s.BaseURL())
				}
			}
		})

		t.Run("Nil Logger Uses Discard", func(t *testing.T) {
			s := NewSession(SessionOpts{})
			if s.logger == nil {
				t.Fatal("expected logger to be set")
			}
		})
	})

	t.Run("Request", func(t *testing.T) {
		t.Run("Unsupported Method Sends Nothing", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL})
			for _, method := range []string{"PUT", "DELETE", "patch", ""} {
				doc, err := s.Request(ctx, method, "x", nil)
				if !errors.Is(err, ErrUnsupportedMethod) {
					t.Errorf("%q: expected ErrUnsupportedMethod, got %v", method, err)
				}
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("%q: expected error to wrap ErrInvalidArgument", method)
				}
				if doc != nil {
					t.Errorf("%q: expected nil document, got %v", method, doc)
				}
			}

			if hits.Load() != 0 {
				t.Errorf("expected zero requests, got %d", hits.Load())
			}
		})

		t.Run("Method Is Case Insensitive", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"method":"` + r.Method + `"}`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL})
			doc, err := s.Request(ctx, "post", "/", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if doc.StringOr("method", "") != http.MethodPost {
				t.Errorf("expected POST, got %v", doc["method"])
			}
		})

		t.Run("GET Encodes Payload As Query", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/lyric" {
					t.Errorf("expected /lyric, got %s", r.URL.Path)
				}
				if r.URL.Query().Get("id") != "42" || r.URL.Query().Get("os") != "pc" {
					t.Errorf("unexpected query: %s", r.URL.RawQuery)
				}
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL + "/"})
			if _, err := s.Request(ctx, http.MethodGet, "/lyric", Payload{"id": "42", "os": "pc"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("POST Form Encoding", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
					t.Errorf("unexpected content type %q", ct)
				}
				if err := r.ParseForm(); err != nil {
					t.Fatal(err)
				}
				if r.PostForm.Get("s") != "moonlight" || r.PostForm.Get("limit") != "3" {
					t.Errorf("unexpected form: %v", r.PostForm)
				}
				w.Write([]byte(`{"ok":true}`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{Encoding: FormEncoding})
			if _, err := s.Request(ctx, http.MethodPost, server.URL, Payload{"s": "moonlight", "limit": 3}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("POST JSON Encoding", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("unexpected content type %q", ct)
				}
				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatal(err)
				}
				if body["keywords"] != "moonlight" {
					t.Errorf("unexpected body: %v", body)
				}
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL, Encoding: JSONEncoding})
			if _, err := s.Request(ctx, http.MethodPost, "search", Payload{"keywords": "moonlight"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Sends Headers And Cookies", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != "songx-test" {
					t.Errorf("missing common header")
				}
				switch r.Method {
				case http.MethodGet:
					if r.Header.Get("Referer") != "http://ref" {
						t.Errorf("missing GET header")
					}
					if r.Header.Get("X-Post") != "" {
						t.Errorf("POST header leaked into GET")
					}
				case http.MethodPost:
					if r.Header.Get("X-Post") != "yes" {
						t.Errorf("missing POST header")
					}
				}
				c, err := r.Cookie("appver")
				if err != nil || c.Value != "2.0.2" {
					t.Errorf("missing cookie: %v", err)
				}
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{
				BaseURL:     server.URL,
				Headers:     map[string]string{"User-Agent": "songx-test"},
				GetHeaders:  map[string]string{"Referer": "http://ref"},
				PostHeaders: map[string]string{"X-Post": "yes"},
				Cookies:     map[string]string{"appver": "2.0.2"},
			})
			s.Request(ctx, http.MethodGet, "", nil)
			s.Request(ctx, http.MethodPost, "", nil)
		})

		t.Run("Non-2xx Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(strings.Repeat("x", 1000)))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL})
			doc, err := s.Request(ctx, http.MethodGet, "", nil)
			if !errors.Is(err, ErrStatus) || !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrStatus, got %v", err)
			}
			if doc == nil || len(doc) != 0 {
				t.Errorf("expected empty non-nil document, got %v", doc)
			}
		})

		t.Run("Malformed JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"result": [`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL})
			doc, err := s.Request(ctx, http.MethodPost, "", nil)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
			if doc == nil || len(doc) != 0 {
				t.Errorf("expected empty document, got %v", doc)
			}
		})

		t.Run("Trailing Data", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"lrc":{"lyric":"x"}}<html>502</html>`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL})
			doc, err := s.Request(ctx, http.MethodPost, "", nil)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
			if len(doc) != 0 {
				t.Errorf("expected empty document, got %v", doc)
			}
		})

		t.Run("Trailing Whitespace", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{\"code\":200}\n\n"))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL})
			doc, err := s.Request(ctx, http.MethodPost, "", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if code, _ := doc.String("code"); code != "200" {
				t.Errorf("expected code 200, got %v", doc)
			}
		})

		t.Run("Non-Object JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[1,2,3]`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL})
			if _, err := s.Request(ctx, http.MethodPost, "", nil); !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})

		t.Run("Empty Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL})
			doc, err := s.Request(ctx, http.MethodPost, "", nil)
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if doc == nil || len(doc) != 0 {
				t.Errorf("expected empty document, got %v", doc)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			addr := server.URL
			server.Close()

			s := NewSession(SessionOpts{BaseURL: addr})
			doc, err := s.Request(ctx, http.MethodGet, "", nil)
			if !errors.Is(err, ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
			if doc == nil {
				t.Error("expected non-nil document")
			}
		})

		t.Run("Round Trip Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			s := NewSession(SessionOpts{BaseURL: "http://upstream.test", HTTPClient: client})
			if _, err := s.Request(ctx, http.MethodGet, "", nil); !errors.Is(err, ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})

		t.Run("Body Read Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     make(http.Header),
			}, nil)}
			s := NewSession(SessionOpts{BaseURL: "http://upstream.test", HTTPClient: client})
			doc, err := s.Request(ctx, http.MethodPost, "", nil)
			if !errors.Is(err, ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
			if doc == nil || len(doc) != 0 {
				t.Errorf("expected empty document, got %v", doc)
			}
		})

		t.Run("Relative Target Without Base", func(t *testing.T) {
			s := NewSession(SessionOpts{})
			if _, err := s.Request(ctx, http.MethodGet, "lyric", nil); !errors.Is(err, ErrTransport) {
				t.Errorf("expected ErrTransport, got %v", err)
			}
		})

		t.Run("Strict GET Ignores Non-JSON", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte(`{"lrc":{"lyric":"hidden"}}`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL, StrictGET: true})
			doc, err := s.Request(ctx, http.MethodGet, "", nil)
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if len(doc) != 0 {
				t.Errorf("expected empty document, got %v", doc)
			}

			doc, err = s.Request(ctx, http.MethodPost, "", nil)
			if err != nil || len(doc) == 0 {
				t.Errorf("expected POST to decode regardless of content type, got %v %v", doc, err)
			}
		})

		t.Run("Large Ids Survive Decoding", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"id": 1234567890123456789}`))
			}))
			defer server.Close()

			s := NewSession(SessionOpts{BaseURL: server.URL})
			doc, _ := s.Request(ctx, http.MethodGet, "", nil)
			if got := doc.StringOr("id", ""); got != "1234567890123456789" {
				t.Errorf("expected exact id, got %q", got)
			}
		})
	})

	t.Run("Close", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.Write([]byte(`{"ok":1}`))
		}))
		defer server.Close()

		s := NewSession(SessionOpts{BaseURL: server.URL})
		if err := s.Close(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if err := s.Close(); err != nil {
			t.Errorf("expected second close to succeed, got %v", err)
		}
		if doc, err := s.Request(ctx, http.MethodGet, "", nil); err != nil || len(doc) != 1 {
			t.Errorf("expected request after close to work, got %v %v", doc, err)
		}
	})
}

func TestDocument(t *testing.T) {
	doc, err := decodeDocument([]byte(`{
		"a": {"b": {"c": "deep"}},
		"n": 7, "s": "text", "list": [1, 2], "null": null, "f": 1.5
	}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	t.Run("Path", func(t *testing.T) {
		v, ok := doc.Path("a", "b", "c")
		if !ok || v != "deep" {
			t.Errorf("expected deep, got %v", v)
		}
		if _, ok := doc.Path("a", "x", "c"); ok {
			t.Error("expected missing path")
		}
		if _, ok := doc.Path("s", "x"); ok {
			t.Error("expected non-object traversal to fail")
		}
	})

	t.Run("Scalars", func(t *testing.T) {
		if doc.StringOr("n", "") != "7" {
			t.Errorf("expected number rendered as text")
		}
		if doc.Int("n") != 7 {
			t.Errorf("expected 7, got %d", doc.Int("n"))
		}
		if doc.Int("f") != 1 {
			t.Errorf("expected truncated float, got %d", doc.Int("f"))
		}
		if doc.StringOr("null", "fallback") != "fallback" {
			t.Error("expected null to use fallback")
		}
		if doc.StringOr("list", "fallback") != "fallback" {
			t.Error("expected list to use fallback")
		}
	})

	t.Run("Collections", func(t *testing.T) {
		if l, ok := doc.List("list"); !ok || len(l) != 2 {
			t.Errorf("expected list of 2, got %v", l)
		}
		if _, ok := doc.Map("s"); ok {
			t.Error("expected string not to be a map")
		}
	})

	t.Run("Null Body", func(t *testing.T) {
		doc, err := decodeDocument([]byte("null"))
		if err != nil || doc == nil {
			t.Errorf("expected empty document, got %v %v", doc, err)
		}
	})
}
