// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/tunefeed/internal/services"
)

// MockCatalog is a test double for [services.Catalog]. Unset functions return
// empty results.
type MockCatalog struct {
	SongsFn       func(ctx context.Context, page int) (*services.SongPage, error)
	ArtistSongsFn func(ctx context.Context, artistID int) ([]services.Track, error)
	SectionsFn    func(ctx context.Context) ([]services.Section, error)
}

func (m *MockCatalog) Songs(ctx context.Context, page int) (*services.SongPage, error) {
	if m.SongsFn != nil {
		return m.SongsFn(ctx, page)
	}
	return &services.SongPage{Page: page}, nil
}

func (m *MockCatalog) ArtistSongs(ctx context.Context, artistID int) ([]services.Track, error) {
	if m.ArtistSongsFn != nil {
		return m.ArtistSongsFn(ctx, artistID)
	}
	return []services.Track{}, nil
}

func (m *MockCatalog) Sections(ctx context.Context) ([]services.Section, error) {
	if m.SectionsFn != nil {
		return m.SectionsFn(ctx)
	}
	return []services.Section{}, nil
}

// MockAuthenticator is a test double for [services.Authenticator].
type MockAuthenticator struct {
	LoginFn   func(ctx context.Context, username, password string) (*services.User, error)
	MeFn      func(ctx context.Context) (*services.User, error)
	RefreshFn func(ctx context.Context) error
	LogoutFn  func(ctx context.Context) error

	RefreshCalls int
	LogoutCalls  int
}

func (m *MockAuthenticator) Login(ctx context.Context, username, password string) (*services.User, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, username, password)
	}
	return &services.User{Username: username}, nil
}

func (m *MockAuthenticator) Me(ctx context.Context) (*services.User, error) {
	if m.MeFn != nil {
		return m.MeFn(ctx)
	}
	return &services.User{Username: "listener"}, nil
}

func (m *MockAuthenticator) Refresh(ctx context.Context) error {
	m.RefreshCalls++
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx)
	}
	return nil
}

func (m *MockAuthenticator) Logout(ctx context.Context) error {
	m.LogoutCalls++
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx)
	}
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

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
