// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/repo"
)

type (
	// Clock supplies the publication time when the caller passes none.
	Clock interface {
		Now() time.Time
	}

	// Publisher uploads publications through a transport.
	Publisher struct {
		transport repo.Transport
		clock     Clock
		logger    *slog.Logger
		verify    bool
	}

	// Option configures a Publisher.
	Option func(*Publisher)

	// Receipt describes a completed publication.
	Receipt struct {
		ID         string
		Module     coord.VersionedModule
		Repository string
		// FileVersion is the version in the uploaded file names; it is the
		// timestamped version for Maven snapshots.
		FileVersion coord.Version
		// Timestamp and BuildNumber identify a snapshot publication. Both
		// are zero for releases; Ivy snapshots carry no build number.
		Timestamp   string
		BuildNumber int
		Uploaded    []string
		PublishedAt time.Time
	}

	systemClock struct{}

	// upload is one file of a publication.
	upload struct {
		name string
		path string
		data []byte
	}

	// session tracks the uploads of one Publish call.
	session struct {
		p         *Publisher
		repo      repo.Repository
		module    string
		completed []string
		urls      []string
	}
)

func (systemClock) Now() time.Time { return time.Now() }

// New returns a Publisher uploading through t.
func New(t repo.Transport, opts ...Option) *Publisher {
	p := &Publisher{transport: t, clock: systemClock{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithClock sets the clock used when Publish receives a zero timestamp.
func WithClock(c Clock) Option {
	return func(p *Publisher) { p.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithVerify reads every artifact back after the publication and checks it
// against its uploaded SHA-1.
func WithVerify() Option {
	return func(p *Publisher) { p.verify = true }
}

// Publish uploads d to the first repository of repos accepting its version.
// A zero timestamp means now. Publishing a release that already exists
// fails with *ArtifactAlreadyExistsError before anything is uploaded; an
// upload failure returns *PublishTransportError.
func (p *Publisher) Publish(ctx context.Context, d *Descriptor, repos repo.Set, timestamp time.Time) (*Receipt, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	target, ok := repos.FirstAccepting(d.Module.Version)
	if !ok {
		return nil, fmt.Errorf("%s: %w", d.Module, ErrNoRepository)
	}
	if timestamp.IsZero() {
		timestamp = p.clock.Now()
	}
	timestamp = timestamp.UTC().Truncate(time.Second)

	s := &session{p: p, repo: target, module: d.Module.String()}
	var (
		receipt *Receipt
		err     error
	)
	if target.IsIvy() {
		receipt, err = s.publishIvy(ctx, d, timestamp)
	} else {
		receipt, err = s.publishMaven(ctx, d, timestamp)
	}
	if err != nil {
		return nil, err
	}
	receipt.ID = uuid.NewString()
	receipt.Module = d.Module
	receipt.Repository = target.String()
	receipt.Uploaded = s.urls
	receipt.PublishedAt = timestamp
	p.logger.Info("published", "module", d.Module.String(), "repo", target.String(),
		"files", len(s.urls), "receipt", receipt.ID)
	return receipt, nil
}

// ensureAbsent fails when any of paths already exists in the repository.
func (s *session) ensureAbsent(ctx context.Context, paths []string) error {
	for _, path := range paths {
		exists, err := s.repo.Exists(ctx, s.p.transport, path)
		if err != nil {
			return err
		}
		if exists {
			return &ArtifactAlreadyExistsError{Module: s.module, Repository: s.repo.String(), URL: repo.RedactURL(s.repo.Resolve(path))}
		}
	}
	return nil
}

// uploadAll uploads files in order, each followed by its checksums. On
// failure the remaining files and pending are reported as incomplete.
func (s *session) uploadAll(ctx context.Context, files []upload, pending ...string) error {
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return s.failure(err, files[i:], pending)
		}
		if err := s.repo.Upload(ctx, s.p.transport, f.path, f.data); err != nil {
			return s.failure(err, files[i:], pending)
		}
		s.urls = append(s.urls, repo.RedactURL(s.repo.Resolve(f.path)))
		for _, alg := range Algorithms {
			sumPath := f.path + "." + alg.Ext
			if err := s.repo.Upload(ctx, s.p.transport, sumPath, []byte(alg.Sum(f.data))); err != nil {
				return s.failure(err, files[i:], pending)
			}
			s.urls = append(s.urls, repo.RedactURL(s.repo.Resolve(sumPath)))
		}
		s.completed = append(s.completed, f.name)
		s.p.logger.Debug("uploaded", "module", s.module, "file", f.name, "repo", s.repo.String())
	}
	return nil
}

func (s *session) failure(err error, remaining []upload, pending []string) error {
	incomplete := make([]string, 0, len(remaining)+len(pending))
	for _, f := range remaining {
		incomplete = append(incomplete, f.name)
	}
	incomplete = append(incomplete, pending...)
	return &PublishTransportError{
		Module:     s.module,
		Repository: s.repo.String(),
		Completed:  append([]string(nil), s.completed...),
		Incomplete: incomplete,
		Err:        err,
	}
}

// verifyUploads reads artifacts back and checks their SHA-1 siblings.
func (s *session) verifyUploads(ctx context.Context, files []upload) error {
	if !s.p.verify {
		return nil
	}
	sha1 := Algorithms[len(Algorithms)-1]
	var errs []error
	for _, f := range files {
		req := repo.Request{URL: s.repo.Resolve(f.path), Credentials: s.repo.Credentials()}
		data, err := s.p.transport.Get(ctx, req)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sum, err := s.p.transport.Get(ctx, repo.Request{URL: req.URL + "." + sha1.Ext, Credentials: req.Credentials})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, sha1.Verify(repo.RedactURL(req.URL), data, sum))
	}
	return errors.Join(errs...)
}

func artifactUploads(d *Descriptor, path func(coord.Artifact) string) ([]upload, error) {
	out := make([]upload, 0, len(d.Artifacts))
	for _, a := range d.Artifacts {
		data, err := a.data()
		if err != nil {
			return nil, err
		}
		ca := d.artifact(a)
		out = append(out, upload{name: ca.FileName(), path: path(ca), data: data})
	}
	return out, nil
}
