// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/kilnbuild/kiln/pkg/repo"
)

// Memory is an in-memory repo.Transport keyed by URL. It backs dry-run
// publishing and tests. Failures can be injected per URL prefix.
type Memory struct {
	mu       sync.Mutex
	files    map[string][]byte
	failures map[string]error
	puts     []string
	requests []repo.Request
}

// NewMemory returns an empty Memory transport.
func NewMemory() *Memory {
	return &Memory{
		files:    make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// Store sets the content at url.
func (m *Memory) Store(url string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[url] = slices.Clone(body)
}

// Fail makes every operation on URLs starting with prefix return err.
func (m *Memory) Fail(prefix string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[prefix] = err
}

// Recover removes a failure injected with Fail.
func (m *Memory) Recover(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, prefix)
}

// Content returns the content stored at url.
func (m *Memory) Content(url string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[url]
	return slices.Clone(b), ok
}

// URLs returns every stored URL, sorted.
func (m *Memory) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.files))
}

// Puts returns the URLs written by Put, in call order.
func (m *Memory) Puts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.puts)
}

// Requests returns every request received, in call order.
func (m *Memory) Requests() []repo.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

func (m *Memory) begin(ctx context.Context, req repo.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.requests = append(m.requests, req)
	for prefix, err := range m.failures {
		if strings.HasPrefix(req.URL, prefix) {
			return err
		}
	}
	return nil
}

// Get implements repo.Transport.
func (m *Memory) Get(ctx context.Context, req repo.Request) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, req); err != nil {
		return nil, err
	}
	b, ok := m.files[req.URL]
	if !ok {
		return nil, fmt.Errorf("GET %s: %w", req.URL, repo.ErrNotFound)
	}
	return slices.Clone(b), nil
}

// Head implements repo.Transport.
func (m *Memory) Head(ctx context.Context, req repo.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, req); err != nil {
		return err
	}
	if _, ok := m.files[req.URL]; !ok {
		return fmt.Errorf("HEAD %s: %w", req.URL, repo.ErrNotFound)
	}
	return nil
}

// Put implements repo.Transport.
func (m *Memory) Put(ctx context.Context, req repo.Request, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, req); err != nil {
		return err
	}
	m.files[req.URL] = slices.Clone(body)
	m.puts = append(m.puts, req.URL)
	return nil
}

// List implements repo.Lister over the stored URLs.
func (m *Memory) List(ctx context.Context, req repo.Request) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(ctx, req); err != nil {
		return nil, err
	}
	dir := strings.TrimSuffix(req.URL, "/") + "/"
	var out []string
	for url := range m.files {
		rest, ok := strings.CutPrefix(url, dir)
		if !ok {
			continue
		}
		name, _, isDir := strings.Cut(rest, "/")
		if isDir {
			name += "/"
		}
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("LIST %s: %w", req.URL, repo.ErrNotFound)
	}
	slices.Sort(out)
	return out, nil
}
