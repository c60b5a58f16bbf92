// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/repo"
)

// DefaultWorkers bounds concurrent repository lookups.
const DefaultWorkers = 4

type (
	// Resolver resolves dependency sets against repositories. It is safe for
	// concurrent use; every Resolve call has its own state.
	Resolver struct {
		transport repo.Transport
		workers   int
		logger    *slog.Logger
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// New returns a Resolver fetching through t.
func New(t repo.Transport, opts ...Option) *Resolver {
	r := &Resolver{transport: t, workers: DefaultWorkers, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithWorkers sets the size of the lookup pool. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolve is a shorthand for New(t).Resolve(ctx, req).
func Resolve(ctx context.Context, t repo.Transport, req Request) (*Result, error) {
	return New(t).Resolve(ctx, req)
}

// Resolve resolves req. Configuration errors abort before any repository is
// contacted. Unresolved modules are reported in the Result; in strict mode
// they also produce a *DependencyResolutionError returned with the complete
// Result. Cancellation discards the partial state and returns ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s, err := newSession(r, req)
	if err != nil {
		return nil, err
	}

	for round := 1; ; round++ {
		w, err := s.walk(ctx)
		if err != nil {
			return nil, err
		}
		listed, err := s.fetchListings(ctx, w)
		if err != nil {
			return nil, err
		}
		changed := s.choose(w)
		fetched, err := s.fetchNodes(ctx, w)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("resolution round", "scope", req.Scope, "round", round,
			"modules", len(w.order), "listed", listed, "fetched", fetched, "changed", changed)
		if !changed && listed == 0 && fetched == 0 {
			break
		}
	}

	w, err := s.walk(ctx)
	if err != nil {
		return nil, err
	}
	res := s.result(w)
	if req.Strict && len(res.Unresolved) > 0 {
		return res, &DependencyResolutionError{Scope: req.Scope, Unresolved: res.Unresolved}
	}
	return res, nil
}

// pool runs n tasks on at most r.workers goroutines. Each task owns slot i
// of the caller's result slice, so no task writes shared state.
func (r *Resolver) pool(ctx context.Context, n int, task func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			task(gctx, i)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// fetchListings lists the versions of every module requested through a
// range and not listed yet.
func (s *session) fetchListings(ctx context.Context, w *walk) (int, error) {
	var ids []coord.ModuleID
	for _, id := range w.order {
		if _, done := s.listings[id]; done {
			continue
		}
		if _, pinned := s.req.Versions.VersionOf(id); pinned {
			continue
		}
		for _, v := range w.requests[id] {
			if v.IsRange() {
				ids = append(ids, id)
				break
			}
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	out := make([]*listing, len(ids))
	err := s.r.pool(ctx, len(ids), func(ctx context.Context, i int) {
		versions, trace, err := s.req.Repositories.ListVersions(ctx, s.r.transport, ids[i])
		out[i] = &listing{versions: versions, trace: trace, err: err}
	})
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		s.listings[id] = out[i]
	}
	return len(ids), nil
}

// fetchNodes locates the artifacts of every chosen version met by w and
// reads the descriptors of those not fetched yet. One task handles one
// module version.
func (s *session) fetchNodes(ctx context.Context, w *walk) (int, error) {
	type job struct {
		module coord.VersionedModule
		keys   []artifactKey
	}
	var jobs []job
	for _, id := range w.order {
		v, ok := s.chosen[id]
		if !ok {
			continue
		}
		j := job{module: id.At(v)}
		for _, spec := range w.artifacts[id] {
			k := artifactKey{module: j.module, classifier: spec.classifier, ext: spec.ext}
			if _, done := s.nodes[k]; !done {
				j.keys = append(j.keys, k)
			}
		}
		if len(j.keys) > 0 {
			jobs = append(jobs, j)
		}
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	out := make([][]*node, len(jobs))
	err := s.r.pool(ctx, len(jobs), func(ctx context.Context, i int) {
		out[i] = s.fetchModule(ctx, jobs[i].module, jobs[i].keys)
	})
	if err != nil {
		return 0, err
	}
	n := 0
	for i, j := range jobs {
		for k, key := range j.keys {
			s.nodes[key] = out[i][k]
			n++
		}
	}
	return n, nil
}

// fetchModule locates each artifact of m and reads the descriptor next to
// the first one found. It runs on a pool worker and only reads session
// state that is not written during a fetch phase.
func (s *session) fetchModule(ctx context.Context, m coord.VersionedModule, keys []artifactKey) []*node {
	out := make([]*node, len(keys))
	var deps []depset.Dependency
	descriptorRead := false
	for i, k := range keys {
		a := coord.NewArtifact(m, k.classifier, k.ext)
		loc, err := s.req.Repositories.WithLogger(s.r.logger).Locate(ctx, s.r.transport, a)
		if err != nil {
			out[i] = &node{artifact: a, err: err}
			continue
		}
		if !descriptorRead {
			deps = s.r.transitiveDependencies(ctx, loc, m)
			descriptorRead = true
		}
		out[i] = &node{artifact: a, location: loc}
	}
	for _, n := range out {
		if n.err == nil {
			n.deps = deps
		}
	}
	return out
}
