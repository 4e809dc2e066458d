// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/songx/internal/models"
)

// MockProvider is a test double for services.Provider.
//
// Results are returned as configured; LyricsByID takes precedence over LyricsText.
// It is safe for concurrent use.
type MockProvider struct {
	ProviderName string
	Songs        []models.SongSummary
	Comments     models.CommentList
	LyricsText   string
	LyricsByID   map[string]string
	ExtraData    models.ExtraMetadata

	mu     sync.Mutex
	calls  map[string]int
	closed bool
}

func (m *MockProvider) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[op]++
}

// Calls returns how many times op ("search", "comments", "lyrics", "extra") was called.
func (m *MockProvider) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Closed reports whether Close was called.
func (m *MockProvider) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) Search(ctx context.Context, keyword string, limit int) []models.SongSummary {
	m.record("search")
	if m.Songs == nil {
		return []models.SongSummary{}
	}
	if limit > 0 && limit < len(m.Songs) {
		return m.Songs[:limit]
	}
	return m.Songs
}

func (m *MockProvider) HotComments(ctx context.Context, songID string) models.CommentList {
	m.record("comments")
	if m.Comments == nil {
		return models.CommentList{}
	}
	return m.Comments
}

func (m *MockProvider) Lyrics(ctx context.Context, songID string) string {
	m.record("lyrics")
	if text, ok := m.LyricsByID[songID]; ok {
		return text
	}
	if m.LyricsText == "" {
		return models.LyricsNotFound
	}
	return m.LyricsText
}

func (m *MockProvider) Extra(ctx context.Context, songID string) models.ExtraMetadata {
	m.record("extra")
	if m.ExtraData == (models.ExtraMetadata{}) {
		return models.NewExtraMetadata()
	}
	return m.ExtraData
}

func (m *MockProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
