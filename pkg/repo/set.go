// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/pkg/coord"
)

type (
	// Set is an ordered list of repositories, tried left to right.
	Set struct {
		repos  []Repository
		logger *slog.Logger
	}

	// Location is where an artifact was found.
	Location struct {
		Repository Repository
		URL        string
		// FileVersion is the version used in the file name; it differs from
		// the module version for timestamped snapshots.
		FileVersion coord.Version
		// Trace lists every repository tried, including the failed ones
		// before the hit.
		Trace Trace
	}
)

// NewSet returns a Set trying repos in order.
func NewSet(repos ...Repository) Set {
	return Set{repos: slices.Clone(repos)}
}

// And returns a copy of s with repos appended.
func (s Set) And(repos ...Repository) Set {
	return Set{repos: append(slices.Clone(s.repos), repos...), logger: s.logger}
}

// WithLogger returns a copy of s that logs lookup misses to logger.
func (s Set) WithLogger(logger *slog.Logger) Set {
	return Set{repos: s.repos, logger: logger}
}

func (s Set) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

// Repositories returns the repositories in order.
func (s Set) Repositories() []Repository { return slices.Clone(s.repos) }

// Len returns the number of repositories.
func (s Set) Len() int { return len(s.repos) }

// FirstAccepting returns the first repository whose publish policy accepts v.
func (s Set) FirstAccepting(v coord.Version) (Repository, bool) {
	for _, r := range s.repos {
		if r.Accepts(v) {
			return r, true
		}
	}
	return Repository{}, false
}

// Locate finds the artifact a in the first repository holding it. An
// unreachable repository, or one missing the artifact, is recorded in the
// trace and skipped. The returned error is an *ArtifactNotFoundError once
// every repository has been tried, or the context error on cancellation.
func (s Set) Locate(ctx context.Context, t Transport, a coord.Artifact) (Location, error) {
	var trace Trace
	for _, r := range s.repos {
		if err := ctx.Err(); err != nil {
			return Location{}, err
		}
		loc, err := r.locate(ctx, t, a)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Location{}, ctxErr
		}
		trace = append(trace, Attempt{Repository: r.String(), URL: RedactURL(loc.URL), Err: err})
		if err == nil {
			loc.Trace = trace
			return loc, nil
		}
		s.log().Debug("artifact lookup missed", "repo", r.String(), "artifact", a.String(), "error", err)
	}
	return Location{}, &ArtifactNotFoundError{Artifact: a.String(), Trace: trace}
}

func (r Repository) locate(ctx context.Context, t Transport, a coord.Artifact) (Location, error) {
	var lastURL string
	for _, p := range r.ArtifactPaths(a, "") {
		req := r.request(p)
		lastURL = req.URL
		err := t.Head(ctx, req)
		if err == nil {
			return Location{Repository: r, URL: req.URL, FileVersion: a.Module.Version}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Location{URL: req.URL}, &RepositoryUnreachableError{Repository: r.String(), Err: err}
		}
	}

	if !r.IsIvy() && a.Module.Version.IsSnapshot() {
		fileVersion, err := r.snapshotFileVersion(ctx, t, a)
		if err != nil {
			return Location{URL: lastURL}, err
		}
		req := r.request(MavenArtifactPath(a, fileVersion))
		err = t.Head(ctx, req)
		switch {
		case err == nil:
			return Location{Repository: r, URL: req.URL, FileVersion: fileVersion}, nil
		case !errors.Is(err, ErrNotFound):
			return Location{URL: req.URL}, &RepositoryUnreachableError{Repository: r.String(), Err: err}
		}
		lastURL = req.URL
	}
	return Location{URL: lastURL}, fmt.Errorf("%s: %w", RedactURL(lastURL), ErrNotFound)
}

// snapshotFileVersion reads the version-level metadata of a snapshot to find
// the timestamped file version of a.
func (r Repository) snapshotFileVersion(ctx context.Context, t Transport, a coord.Artifact) (coord.Version, error) {
	md, err := r.FetchMetadata(ctx, t, VersionMetadataPath(a.Module))
	if err != nil {
		return "", err
	}
	ext := a.Ext
	if ext == "" {
		ext = coord.DefaultExt
	}
	v, ok := md.SnapshotFileVersion(ext, a.Classifier)
	if !ok {
		return "", fmt.Errorf("%s has no snapshot entry: %w", VersionMetadataPath(a.Module), ErrNotFound)
	}
	return v, nil
}

// FetchMetadata downloads and parses the maven-metadata.xml at path. A
// missing file wraps ErrNotFound; any other failure is a
// *RepositoryUnreachableError.
func (r Repository) FetchMetadata(ctx context.Context, t Transport, path string) (*Metadata, error) {
	data, err := t.Get(ctx, r.request(path))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, &RepositoryUnreachableError{Repository: r.String(), Err: err}
	}
	return ParseMetadata(data)
}

// FetchDescriptor downloads the descriptor (POM or ivy.xml) of m from r.
// fileVersion selects the timestamped file of a snapshot; pass "" otherwise.
func (r Repository) FetchDescriptor(ctx context.Context, t Transport, m coord.VersionedModule, fileVersion coord.Version) ([]byte, error) {
	var lastErr error
	for _, p := range r.DescriptorPaths(m, fileVersion) {
		data, err := t.Get(ctx, r.request(p))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, &RepositoryUnreachableError{Repository: r.String(), Err: err}
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrNotFound
	}
	return nil, lastErr
}

// Exists reports whether path exists in r.
func (r Repository) Exists(ctx context.Context, t Transport, path string) (bool, error) {
	err := t.Head(ctx, r.request(path))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, &RepositoryUnreachableError{Repository: r.String(), Err: err}
	}
}

// Upload stores body at path in r.
func (r Repository) Upload(ctx context.Context, t Transport, path string, body []byte) error {
	if err := t.Put(ctx, r.request(path), body); err != nil {
		return fmt.Errorf("uploading %s: %w", RedactURL(r.Resolve(path)), err)
	}
	return nil
}

// ListVersions returns the versions of id known to any repository, sorted in
// ascending order. Maven repositories are asked for their module-level
// maven-metadata.xml; Ivy repositories are listed through the transport when
// it implements Lister.
func (s Set) ListVersions(ctx context.Context, t Transport, id coord.ModuleID) ([]coord.Version, Trace, error) {
	var (
		trace Trace
		all   []coord.Version
	)
	for _, r := range s.repos {
		if err := ctx.Err(); err != nil {
			return nil, trace, err
		}
		versions, url, err := r.listVersions(ctx, t, id)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, trace, ctxErr
		}
		if err == nil && len(versions) == 0 {
			err = fmt.Errorf("no versions listed: %w", ErrNotFound)
		}
		trace = append(trace, Attempt{Repository: r.String(), URL: RedactURL(url), Err: err})
		for _, v := range versions {
			if !slices.Contains(all, v) {
				all = append(all, v)
			}
		}
	}
	if len(all) == 0 {
		return nil, trace, &ArtifactNotFoundError{Artifact: id.String(), Trace: trace}
	}
	coord.SortVersions(all)
	return all, trace, nil
}

func (r Repository) listVersions(ctx context.Context, t Transport, id coord.ModuleID) ([]coord.Version, string, error) {
	k, ok := r.kind.(IvyKind)
	if !ok {
		path := ModuleMetadataPath(id)
		md, err := r.FetchMetadata(ctx, t, path)
		if err != nil {
			return nil, r.Resolve(path), err
		}
		return md.VersionList(), r.Resolve(path), nil
	}

	lister, ok := t.(Lister)
	if !ok {
		return nil, r.url, fmt.Errorf("transport cannot list ivy revisions: %w", ErrNotFound)
	}
	const placeholder = "\x00"
	expanded := expandPattern(k.IvyPatternsOrDefault()[0], map[string]string{
		"organisation": id.Group,
		"organization": id.Group,
		"orgPath":      id.GroupPath(),
		"module":       id.Name,
		"artifact":     "ivy",
		"type":         "ivy",
		"ext":          "xml",
		"revision":     placeholder,
	})
	segments := strings.Split(expanded, "/")
	idx := slices.IndexFunc(segments, func(s string) bool { return strings.Contains(s, placeholder) })
	if idx < 0 {
		return nil, r.url, fmt.Errorf("ivy pattern has no [revision]: %w", ErrNotFound)
	}
	dir := strings.Join(segments[:idx], "/")
	prefix, suffix, _ := strings.Cut(segments[idx], placeholder)
	req := r.request(dir + "/")

	entries, err := lister.List(ctx, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, req.URL, err
		}
		return nil, req.URL, &RepositoryUnreachableError{Repository: r.String(), Err: err}
	}
	var out []coord.Version
	for _, e := range entries {
		e = strings.TrimSuffix(e, "/")
		if !strings.HasPrefix(e, prefix) || !strings.HasSuffix(e, suffix) || len(e) <= len(prefix)+len(suffix) {
			continue
		}
		v := coord.Version(e[len(prefix) : len(e)-len(suffix)])
		if v.Validate() == nil && !v.IsRange() {
			out = append(out, v)
		}
	}
	return out, req.URL, nil
}
