// Package testing holds test doubles shared across packages: writers and readers that fail
// on demand, a canned [http.RoundTripper], and file assertions.
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
)

var errInjected = errors.New("injected failure")

// FWriter fails every write.
type FWriter struct{}

func (*FWriter) Write([]byte) (int, error) { return 0, errInjected }

// FCloser is a response body whose reads fail.
type FCloser struct{}

func (*FCloser) Read([]byte) (int, error) { return 0, errInjected }
func (*FCloser) Close() error            { return nil }

// LimitedWriter forwards to target until maxWrites writes have succeeded, then fails.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

// NewLimitedWriter returns a writer that has already performed written writes.
func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.written >= l.maxWrites {
		return 0, errInjected
	}
	l.written++
	return l.target.Write(p)
}

// MockRoundTripper returns the same response or error for every request and counts calls.
type MockRoundTripper struct {
	response *http.Response
	err      error
	calls    atomic.Int32
}

func NewMockRoundTripper(r *http.Response, err error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: err}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.calls.Add(1)
	if m.response != nil && m.response.Request == nil {
		m.response.Request = req
	}
	return m.response, m.err
}

// Calls reports how many requests reached the transport.
func (m *MockRoundTripper) Calls() int { return int(m.calls.Load()) }

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file %s: %v", path, err)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(content)
}
