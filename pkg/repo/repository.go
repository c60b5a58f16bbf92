// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/types"
)

// Default Ivy patterns, used when a repository does not set its own.
const (
	DefaultIvyArtifactPattern = "[organisation]/[module]/[type]s/[artifact]-[revision](-[type]).[ext]"
	DefaultIvyMetadataPattern = "[organisation]/[module]/ivy-[revision].xml"
)

// ivyPrefix selects the Ivy layout in Parse.
const ivyPrefix = "ivy:"

// Publish policies.
const (
	// PublishAny accepts every version.
	PublishAny PublishPolicy = iota
	// PublishSnapshotsOnly accepts snapshot versions only.
	PublishSnapshotsOnly
	// PublishReleasesOnly accepts non-snapshot versions only.
	PublishReleasesOnly
)

type (
	// Kind is the layout family of a repository: MavenKind or IvyKind.
	Kind interface {
		kind()
		// Name returns "maven" or "ivy".
		Name() string
	}

	// MavenKind is the fixed Maven layout.
	MavenKind struct{}

	// IvyKind is the pattern-templated Ivy layout. Empty pattern lists fall
	// back to the defaults.
	IvyKind struct {
		ArtifactPatterns []string
		IvyPatterns      []string
	}

	// Credentials are HTTP Basic credentials. When Realm is set they are only
	// sent in answer to a challenge naming that realm.
	Credentials struct {
		Realm    string
		Username string
		Password string
	}

	// PublishPolicy restricts the versions a repository accepts as a
	// publication target.
	PublishPolicy int

	// Repository is an immutable repository description. Use the With*
	// methods to derive modified copies.
	Repository struct {
		url         string
		kind        Kind
		credentials Credentials
		policy      PublishPolicy
	}
)

func (MavenKind) kind()        {}
func (MavenKind) Name() string { return "maven" }
func (IvyKind) kind()          {}
func (IvyKind) Name() string   { return "ivy" }

// ArtifactPatternsOrDefault returns the artifact patterns, or the default one.
func (k IvyKind) ArtifactPatternsOrDefault() []string {
	if len(k.ArtifactPatterns) == 0 {
		return []string{DefaultIvyArtifactPattern}
	}
	return slices.Clone(k.ArtifactPatterns)
}

// IvyPatternsOrDefault returns the metadata patterns, or the default one.
func (k IvyKind) IvyPatternsOrDefault() []string {
	if len(k.IvyPatterns) == 0 {
		return []string{DefaultIvyMetadataPattern}
	}
	return slices.Clone(k.IvyPatterns)
}

// IsZero reports whether no credentials are set.
func (c Credentials) IsZero() bool { return c.Username == "" && c.Password == "" }

// Maven returns a Maven repository rooted at rawURL.
func Maven(rawURL string) Repository {
	return Repository{url: normalizeURL(rawURL), kind: MavenKind{}}
}

// Ivy returns an Ivy repository rooted at rawURL using the default patterns.
func Ivy(rawURL string) Repository {
	return Repository{url: normalizeURL(rawURL), kind: IvyKind{}}
}

// Parse builds a repository from its textual form. An "ivy:" prefix selects
// the Ivy layout, anything else is Maven. Absolute filesystem paths become
// file URLs.
func Parse(s string) (Repository, error) {
	raw := strings.TrimSpace(s)
	isIvy := false
	if len(raw) >= len(ivyPrefix) && strings.EqualFold(raw[:len(ivyPrefix)], ivyPrefix) {
		isIvy = true
		raw = raw[len(ivyPrefix):]
	}
	if raw == "" {
		return Repository{}, types.NewConfigurationError(types.MalformedRepository, s, "empty repository location")
	}
	if filepath.IsAbs(raw) {
		raw = (&url.URL{Scheme: "file", Path: filepath.ToSlash(raw)}).String()
	}
	u, err := checkURL(raw)
	if err != nil {
		return Repository{}, err
	}
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return Repository{}, types.NewConfigurationError(types.MalformedRepository, s, "unsupported scheme %q", u.Scheme)
	}
	if isIvy {
		return Ivy(raw), nil
	}
	return Maven(raw), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Repository {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func normalizeURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// URL returns the repository root URL without a trailing slash.
func (r Repository) URL() string { return r.url }

// Kind returns the layout family. The zero Repository is Maven.
func (r Repository) Kind() Kind {
	if r.kind == nil {
		return MavenKind{}
	}
	return r.kind
}

// IsIvy reports whether r uses the Ivy layout.
func (r Repository) IsIvy() bool {
	_, ok := r.kind.(IvyKind)
	return ok
}

// Credentials returns the configured credentials.
func (r Repository) Credentials() Credentials { return r.credentials }

// PublishPolicy returns the publication filter.
func (r Repository) PublishPolicy() PublishPolicy { return r.policy }

// WithCredentials returns a copy of r using the given username and password.
// The realm is kept.
func (r Repository) WithCredentials(username, password string) Repository {
	r.credentials.Username = username
	r.credentials.Password = password
	return r
}

// WithRealm returns a copy of r whose credentials are bound to realm.
func (r Repository) WithRealm(realm string) Repository {
	r.credentials.Realm = realm
	return r
}

// WithArtifactPatterns returns a copy of r using the Ivy layout with the
// given artifact patterns.
func (r Repository) WithArtifactPatterns(patterns ...string) Repository {
	k, _ := r.kind.(IvyKind)
	r.kind = IvyKind{ArtifactPatterns: slices.Clone(patterns), IvyPatterns: slices.Clone(k.IvyPatterns)}
	return r
}

// WithIvyPatterns returns a copy of r using the Ivy layout with the given
// metadata patterns.
func (r Repository) WithIvyPatterns(patterns ...string) Repository {
	k, _ := r.kind.(IvyKind)
	r.kind = IvyKind{ArtifactPatterns: slices.Clone(k.ArtifactPatterns), IvyPatterns: slices.Clone(patterns)}
	return r
}

// WithPublishPolicy returns a copy of r with the given publication filter.
func (r Repository) WithPublishPolicy(p PublishPolicy) Repository {
	r.policy = p
	return r
}

// Accepts reports whether r takes publications of version v.
func (r Repository) Accepts(v coord.Version) bool {
	switch r.policy {
	case PublishSnapshotsOnly:
		return v.IsSnapshot()
	case PublishReleasesOnly:
		return !v.IsSnapshot()
	default:
		return true
	}
}

// IsLocal reports whether r is a file repository.
func (r Repository) IsLocal() bool { return strings.HasPrefix(r.url, "file:") }

// String returns the redacted URL prefixed by "ivy:" for Ivy repositories.
func (r Repository) String() string {
	s := RedactURL(r.url)
	if r.IsIvy() {
		return ivyPrefix + s
	}
	return s
}

// Validate checks that the repository has a usable URL and patterns.
func (r Repository) Validate() error {
	if _, err := checkURL(r.url); err != nil {
		return err
	}
	if k, ok := r.kind.(IvyKind); ok {
		for _, p := range append(k.ArtifactPatternsOrDefault(), k.IvyPatternsOrDefault()...) {
			if err := validatePattern(p); err != nil {
				return types.NewConfigurationError(types.MalformedRepository, p, "%v", err)
			}
		}
	}
	return nil
}

// checkURL parses an absolute repository URL. Which schemes can be reached
// is up to the Transport.
func checkURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, types.NewConfigurationError(types.MalformedRepository, raw, "%v", err)
	}
	if u.Scheme == "" {
		return nil, types.NewConfigurationError(types.MalformedRepository, raw, "missing scheme")
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return nil, types.NewConfigurationError(types.MalformedRepository, raw, "missing host")
	}
	return u, nil
}

// RedactURL strips user info, query parameters and fragments from a URL for
// safe inclusion in logs and error messages.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
