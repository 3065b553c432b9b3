// Package proxy loads the operator's proxy list and picks an egress proxy for each remote call.
//
// Entries are "host:port" strings read once at startup. Selection is uniform random with
// replacement and keeps no state between calls, so two calls may return the same entry.
package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"strings"
)

// Credentials authenticate against every proxy in the list.
// They are applied only when both fields are set.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) complete() bool {
	return c.Username != "" && c.Password != ""
}

// Load reads one proxy per line from path, trimming whitespace and skipping blank lines.
//
// A missing file is not an error and yields an empty list.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open proxy list: %w", err)
	}
	defer f.Close()

	entries := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proxy list: %w", err)
	}
	return entries, nil
}

// Selector picks proxies from an immutable list.
type Selector struct {
	entries []string
	creds   Credentials
	intn    func(n int) int
}

// NewSelector copies entries so later changes by the caller have no effect.
func NewSelector(entries []string, creds Credentials) *Selector {
	return &Selector{
		entries: append([]string(nil), entries...),
		creds:   creds,
		intn:    rand.IntN,
	}
}

// Pick returns a uniformly random entry, or false when the list is empty.
func (s *Selector) Pick() (string, bool) {
	if len(s.entries) == 0 {
		return "", false
	}
	return s.entries[s.intn(len(s.entries))], true
}

// URL renders entry as an HTTP proxy URL, embedding credentials when both are configured.
// The same URL serves plain and TLS traffic.
func (s *Selector) URL(entry string) string {
	u := url.URL{Scheme: "http", Host: entry}
	if s.creds.complete() {
		u.User = url.UserPassword(s.creds.Username, s.creds.Password)
	}
	return u.String()
}

// PickURL is [Selector.Pick] followed by [Selector.URL].
func (s *Selector) PickURL() (string, bool) {
	entry, ok := s.Pick()
	if !ok {
		return "", false
	}
	return s.URL(entry), true
}

// Entries returns a copy of the loaded list.
func (s *Selector) Entries() []string {
	return append([]string(nil), s.entries...)
}

// Len returns the number of loaded entries.
func (s *Selector) Len() int { return len(s.entries) }
