// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kilnbuild/kiln/pkg/repo"
)

// Mux dispatches each request to the transport registered for its URL
// scheme.
type Mux struct {
	byScheme map[string]repo.Transport
}

// NewMux returns a Mux serving http and https with h and file URLs with f.
func NewMux(h *HTTP, f *File) *Mux {
	m := &Mux{byScheme: make(map[string]repo.Transport)}
	m.Handle("http", h)
	m.Handle("https", h)
	m.Handle("file", f)
	return m
}

// Handle registers t for scheme, replacing any previous registration.
func (m *Mux) Handle(scheme string, t repo.Transport) {
	m.byScheme[strings.ToLower(scheme)] = t
}

func (m *Mux) route(rawURL string) (repo.Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", repo.RedactURL(rawURL), err)
	}
	t, ok := m.byScheme[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("no transport for scheme %q", u.Scheme)
	}
	return t, nil
}

// Get implements repo.Transport.
func (m *Mux) Get(ctx context.Context, req repo.Request) ([]byte, error) {
	t, err := m.route(req.URL)
	if err != nil {
		return nil, err
	}
	return t.Get(ctx, req)
}

// Head implements repo.Transport.
func (m *Mux) Head(ctx context.Context, req repo.Request) error {
	t, err := m.route(req.URL)
	if err != nil {
		return err
	}
	return t.Head(ctx, req)
}

// Put implements repo.Transport.
func (m *Mux) Put(ctx context.Context, req repo.Request, body []byte) error {
	t, err := m.route(req.URL)
	if err != nil {
		return err
	}
	return t.Put(ctx, req, body)
}

// List implements repo.Lister when the routed transport does.
func (m *Mux) List(ctx context.Context, req repo.Request) ([]string, error) {
	t, err := m.route(req.URL)
	if err != nil {
		return nil, err
	}
	l, ok := t.(repo.Lister)
	if !ok {
		return nil, fmt.Errorf("transport for %s cannot list: %w", repo.RedactURL(req.URL), repo.ErrNotFound)
	}
	return l.List(ctx, req)
}
