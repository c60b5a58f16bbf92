// SPDX-License-Identifier: MPL-2.0

package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kilnbuild/kiln/pkg/repo"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingObserver) ObserveOperation(scheme, op, outcome string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, scheme+"/"+op+"/"+outcome)
}

func TestHTTP_GetHeadPut(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		stored = map[string][]byte{"/repo/a.pom": []byte("<project/>")}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			stored[r.URL.Path] = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet, http.MethodHead:
			body, ok := stored[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(body)
		}
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	h := NewHTTP(WithObserver(obs))
	ctx := context.Background()

	got, err := h.Get(ctx, repo.Request{URL: srv.URL + "/repo/a.pom"})
	if err != nil || string(got) != "<project/>" {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	if err := h.Head(ctx, repo.Request{URL: srv.URL + "/repo/missing.jar"}); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("Head(missing) error = %v, want ErrNotFound", err)
	}
	if err := h.Put(ctx, repo.Request{URL: srv.URL + "/repo/b.jar"}, []byte("jar")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := h.Head(ctx, repo.Request{URL: srv.URL + "/repo/b.jar"}); err != nil {
		t.Errorf("Head(uploaded) error = %v", err)
	}

	want := []string{"http/get/ok", "http/head/not_found", "http/put/ok", "http/head/ok"}
	if !slices.Equal(obs.calls, want) {
		t.Errorf("observer calls = %v, want %v", obs.calls, want)
	}
}

func TestHTTP_ServerErrorIsUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTP().Head(context.Background(), repo.Request{URL: srv.URL + "/x"})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Fatalf("Head() error = %v, want StatusError 502", err)
	}
	if errors.Is(err, repo.ErrNotFound) {
		t.Error("5xx must not be reported as not found")
	}
}

func TestHTTP_GetRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		size := 10
		if r.URL.Path == "/big" {
			size = 11
		}
		_, _ = w.Write(make([]byte, size))
	}))
	defer srv.Close()

	h := NewHTTP(WithMaxResponseBytes(10))
	ctx := context.Background()

	got, err := h.Get(ctx, repo.Request{URL: srv.URL + "/exact"})
	if err != nil || len(got) != 10 {
		t.Fatalf("Get(exact) = %d bytes, %v; want 10 bytes", len(got), err)
	}
	got, err = h.Get(ctx, repo.Request{URL: srv.URL + "/big"})
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("Get(big) error = %v, want ErrResponseTooLarge", err)
	}
	if got != nil {
		t.Errorf("Get(big) returned %d bytes, want none", len(got))
	}
}

func TestHTTP_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := NewHTTP(WithTimeout(50*time.Millisecond)).Head(context.Background(), repo.Request{URL: srv.URL + "/slow"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Head() error = %v, want deadline exceeded", err)
	}
}

func TestHTTP_Auth(t *testing.T) {
	t.Parallel()

	const realm = "Sonatype Nexus Repository Manager"

	newServer := func(challengeRealm string, attempts *[]bool) *httptest.Server {
		var mu sync.Mutex
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			mu.Lock()
			*attempts = append(*attempts, ok)
			mu.Unlock()
			if !ok || user != "deployer" || pass != "secret" {
				w.Header().Set("WWW-Authenticate", `Basic realm="`+challengeRealm+`"`)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
	}

	tests := []struct {
		name         string
		serverRealm  string
		creds        repo.Credentials
		wantErr      bool
		wantAttempts []bool
	}{
		{
			name:         "preemptive without realm",
			serverRealm:  realm,
			creds:        repo.Credentials{Username: "deployer", Password: "secret"},
			wantAttempts: []bool{true},
		},
		{
			name:         "challenge with matching realm",
			serverRealm:  realm,
			creds:        repo.Credentials{Realm: realm, Username: "deployer", Password: "secret"},
			wantAttempts: []bool{false, true},
		},
		{
			name:         "challenge with other realm",
			serverRealm:  "elsewhere",
			creds:        repo.Credentials{Realm: realm, Username: "deployer", Password: "secret"},
			wantErr:      true,
			wantAttempts: []bool{false},
		},
		{
			name:         "no credentials",
			serverRealm:  realm,
			wantErr:      true,
			wantAttempts: []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var attempts []bool
			srv := newServer(tt.serverRealm, &attempts)
			defer srv.Close()

			err := NewHTTP().Put(context.Background(), repo.Request{URL: srv.URL + "/a.jar", Credentials: tt.creds}, []byte("x"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Put() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !slices.Equal(attempts, tt.wantAttempts) {
				t.Errorf("auth attempts = %v, want %v", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestHTTP_List(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html><body>
<a href="../">../</a>
<a href="1.0/">1.0/</a>
<a HREF="1.1/">1.1/</a>
<a href="https://elsewhere/x">x</a>
<a href="ivy-2.0.xml">ivy-2.0.xml</a>
</body></html>`)
	}))
	defer srv.Close()

	got, err := NewHTTP().List(context.Background(), repo.Request{URL: srv.URL + "/org/mod/"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"1.0/", "1.1/", "ivy-2.0.xml"}
	if !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestChallengeRealm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		headers []string
		want    string
	}{
		{[]string{`Basic realm="Nexus"`}, "Nexus"},
		{[]string{`Bearer realm="x"`, `Basic charset="UTF-8", realm="Repo"`}, "Repo"},
		{[]string{`Basic`}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := challengeRealm(tt.headers); got != tt.want {
			t.Errorf("challengeRealm(%v) = %q, want %q", tt.headers, got, tt.want)
		}
	}
}
