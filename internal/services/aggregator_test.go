package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/songx/internal/models"
	"github.com/desertthunder/songx/internal/shared"
)

func newAggregatorTestServer(t *testing.T, handler http.HandlerFunc) *Aggregator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := shared.DefaultConfig().Providers.Aggregator
	cfg.BaseURL = server.URL
	agg := NewAggregator(cfg, ServiceOpts{})
	t.Cleanup(func() { agg.Close() })
	return agg
}

func TestAggregator(t *testing.T) {
	ctx := context.Background()

	t.Run("Search", func(t *testing.T) {
		t.Run("Maps Fields", func(t *testing.T) {
			agg := newAggregatorTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				r.ParseForm()
				if r.PostForm.Get("input") != "moonlight" || r.PostForm.Get("filter") != "name" ||
					r.PostForm.Get("type") != "qq" || r.PostForm.Get("page") != "1" {
					t.Errorf("unexpected form %v", r.PostForm)
				}
				if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
					t.Error("expected XHR header")
				}
				writeJSON(w, `{"songs": [
					{"songid": 101, "title": "T", "author": "A", "url": "u", "link": "l", "lrc": "[00:00]x", "pic": "p"},
					{"songid": "102"},
					{"title": "no id"},
					{"songid": 103}
				]}`)
			})

			songs := agg.Search(ctx, "moonlight", PlatformQQ, 5)
			if len(songs) != 3 {
				t.Fatalf("expected 3 songs, got %d", len(songs))
			}

			want := models.SongSummary{
				ID: "101", Name: "T", Artists: "A", URL: "u", Link: "l",
				Lyrics: "[00:00]x", CoverURL: "p", Source: "aggregator:qq",
			}
			if songs[0] != want {
				t.Errorf("expected %+v, got %+v", want, songs[0])
			}
			if songs[1].Name != models.UnknownSong || songs[1].Artists != models.UnknownArtist {
				t.Errorf("expected placeholders, got %+v", songs[1])
			}
			if songs[1].Duration != 0 {
				t.Error("expected no duration from aggregator")
			}
		})

		t.Run("Truncates To Limit", func(t *testing.T) {
			agg := newAggregatorTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"songs": [{"songid": 1}, {"songid": 2}, {"songid": 3}, {"songid": 4}, {"songid": 5}]}`)
			})

			songs := agg.Search(ctx, "moonlight", PlatformNetEase, 2)
			if len(songs) != 2 || songs[0].ID != "1" || songs[1].ID != "2" {
				t.Errorf("expected first two songs, got %+v", songs)
			}
		})

		t.Run("Songs Not A List", func(t *testing.T) {
			agg := newAggregatorTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"songs": null, "error": "nothing"}`)
			})

			if songs := agg.Search(ctx, "x", PlatformKugou, 5); songs == nil || len(songs) != 0 {
				t.Errorf("expected empty slice, got %v", songs)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			agg := newAggregatorTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			})

			if songs := agg.Search(ctx, "x", PlatformKugou, 5); songs == nil || len(songs) != 0 {
				t.Errorf("expected empty slice, got %v", songs)
			}
		})

		t.Run("Unknown Platform Passes Through", func(t *testing.T) {
			agg := newAggregatorTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				r.ParseForm()
				if r.PostForm.Get("type") != "spotify" {
					t.Errorf("expected platform passed through, got %q", r.PostForm.Get("type"))
				}
				writeJSON(w, `{"songs": []}`)
			})
			agg.Search(ctx, "x", "spotify", 5)
		})
	})

	t.Run("Platform", func(t *testing.T) {
		agg := newAggregatorTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			if r.PostForm.Get("type") != PlatformKuwo {
				t.Errorf("expected kuwo, got %q", r.PostForm.Get("type"))
			}
			writeJSON(w, `{"songs": [{"songid": 1}]}`)
		})

		var s Searcher = agg.Platform(PlatformKuwo)
		if s.Name() != "aggregator:kuwo" {
			t.Errorf("unexpected name %s", s.Name())
		}
		if songs := s.Search(ctx, "x", 0); len(songs) != 1 {
			t.Errorf("expected 1 song, got %d", len(songs))
		}
	})

	t.Run("ValidPlatform", func(t *testing.T) {
		for _, p := range Platforms {
			if !ValidPlatform(p) {
				t.Errorf("expected %s to be valid", p)
			}
		}
		if ValidPlatform("spotify") {
			t.Error("expected spotify to be unknown")
		}
	})
}
