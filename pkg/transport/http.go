// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/kilnbuild/kiln/pkg/repo"
)

const (
	// DefaultTimeout bounds every single repository operation.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps downloaded descriptors and listings (64 MB).
	maxResponseBytes = 64 << 20

	defaultUserAgent = "kiln/dev"
)

var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*"([^"?#]+)"`)

// ErrResponseTooLarge is returned when a response body exceeds the size cap.
var ErrResponseTooLarge = errors.New("response body too large")

type (
	// StatusError is returned for unexpected HTTP status codes.
	StatusError struct {
		Method string
		URL    string
		Code   int
	}

	// RealmMismatchError is returned when a server challenges for a realm
	// other than the one the credentials are bound to.
	RealmMismatchError struct {
		URL       string
		Want, Got string
	}

	// HTTP is a repo.Transport for http and https repositories.
	HTTP struct {
		client    *http.Client
		timeout   time.Duration
		userAgent string
		observer  Observer
		logger    *slog.Logger
		maxBytes  int64
	}

	// HTTPOption configures an HTTP transport during construction.
	HTTPOption func(*HTTP)
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Error implements the error interface.
func (e *RealmMismatchError) Error() string {
	return fmt.Sprintf("%s: server requests realm %q, credentials are for realm %q", e.URL, e.Got, e.Want)
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = c
	}
}

// WithTimeout sets the per-operation timeout. Zero or negative keeps the default.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTP) {
		h.userAgent = ua
	}
}

// WithObserver reports every operation to o.
func WithObserver(o Observer) HTTPOption {
	return func(h *HTTP) {
		if o != nil {
			h.observer = o
		}
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTP) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMaxResponseBytes caps the size of a downloaded body. Zero or negative
// keeps the default of 64 MB.
func WithMaxResponseBytes(n int64) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

// NewHTTP creates an HTTP transport.
// Defaults: http.DefaultClient, DefaultTimeout, user agent "kiln/dev".
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:    http.DefaultClient,
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
		observer:  nopObserver{},
		logger:    slog.Default(),
		maxBytes:  maxResponseBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get implements repo.Transport.
func (h *HTTP) Get(ctx context.Context, req repo.Request) ([]byte, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp, err := h.do(ctx, http.MethodGet, req, nil)
	if err != nil {
		h.observe(OpGet, err, 0, start)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	switch {
	case err != nil:
		err = fmt.Errorf("reading %s: %w", repo.RedactURL(req.URL), err)
	case int64(len(data)) > h.maxBytes:
		data, err = nil, fmt.Errorf("reading %s: %w (limit %d bytes)", repo.RedactURL(req.URL), ErrResponseTooLarge, h.maxBytes)
	}
	h.observe(OpGet, err, len(data), start)
	return data, err
}

// Head implements repo.Transport.
func (h *HTTP) Head(ctx context.Context, req repo.Request) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp, err := h.do(ctx, http.MethodHead, req, nil)
	if err == nil {
		_ = resp.Body.Close()
	}
	h.observe(OpHead, err, 0, start)
	return err
}

// Put implements repo.Transport.
func (h *HTTP) Put(ctx context.Context, req repo.Request, body []byte) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	resp, err := h.do(ctx, http.MethodPut, req, body)
	if err == nil {
		_ = resp.Body.Close()
	}
	h.observe(OpPut, err, len(body), start)
	return err
}

// List implements repo.Lister by scraping the links of a directory index page.
func (h *HTTP) List(ctx context.Context, req repo.Request) ([]string, error) {
	data, err := h.Get(ctx, req)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range hrefPattern.FindAllSubmatch(data, -1) {
		name := string(m[1])
		if strings.Contains(name, "://") || strings.HasPrefix(name, "/") || strings.HasPrefix(name, "..") {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// do executes a request. Credentials are sent up front when no realm is
// configured; with a realm they are only sent after a 401 challenge naming
// that realm.
func (h *HTTP) do(ctx context.Context, method string, req repo.Request, body []byte) (*http.Response, error) {
	creds := req.Credentials
	preemptive := !creds.IsZero() && creds.Realm == ""

	resp, err := h.send(ctx, method, req.URL, body, preemptive, creds)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !creds.IsZero() && !preemptive {
		realm := challengeRealm(resp.Header.Values("WWW-Authenticate"))
		_ = resp.Body.Close()
		if realm != creds.Realm {
			return nil, &RealmMismatchError{URL: repo.RedactURL(req.URL), Want: creds.Realm, Got: realm}
		}
		h.logger.Debug("answering basic auth challenge", "url", repo.RedactURL(req.URL), "realm", realm)
		resp, err = h.send(ctx, method, req.URL, body, true, creds)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", method, repo.RedactURL(req.URL), repo.ErrNotFound)
	default:
		_ = resp.Body.Close()
		return nil, &StatusError{Method: method, URL: repo.RedactURL(req.URL), Code: resp.StatusCode}
	}
}

func (h *HTTP) send(ctx context.Context, method, rawURL string, body []byte, withAuth bool, creds repo.Credentials) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	if withAuth {
		req.SetBasicAuth(creds.Username, creds.Password)
	}
	if body != nil {
		req.ContentLength = int64(len(body))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, repo.RedactURL(rawURL), err)
	}
	return resp, nil
}

func (h *HTTP) observe(op string, err error, n int, start time.Time) {
	h.observer.ObserveOperation("http", op, outcomeOf(err), n, time.Since(start))
}

// challengeRealm extracts the realm of the first Basic challenge.
func challengeRealm(headers []string) string {
	for _, hdr := range headers {
		scheme, params, _ := strings.Cut(strings.TrimSpace(hdr), " ")
		if !strings.EqualFold(scheme, "basic") {
			continue
		}
		for param := range strings.SplitSeq(params, ",") {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if ok && strings.EqualFold(strings.TrimSpace(key), "realm") {
				return strings.Trim(strings.TrimSpace(value), `"`)
			}
		}
		return ""
	}
	return ""
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, repo.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeUnreachable
	}
}
