// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
)

type (
	artifactKey struct {
		module     coord.VersionedModule
		classifier string
		ext        string
	}

	artifactSpec struct {
		classifier string
		ext        string
	}

	// node is the fetched state of one artifact of a module version.
	node struct {
		artifact coord.Artifact
		location repo.Location
		err      error
		deps     []depset.Dependency
	}

	listing struct {
		versions []coord.Version
		trace    repo.Trace
		err      error
	}

	// root is a declared dependency selected by the requested scope.
	root struct {
		dep    depset.Dependency
		scopes []string
		expand bool
	}

	// session is the state of one Resolve call. Only the coordinator
	// goroutine running Resolve writes it; pool workers read roots and req
	// and return their results by slot.
	session struct {
		r      *Resolver
		req    Request
		graph  *scope.Graph
		roots  []root
		chosen map[coord.ModuleID]coord.Version

		nodes    map[artifactKey]*node
		listings map[coord.ModuleID]*listing

		// seen holds the signature of every choice set taken so far. Once
		// one repeats, choices may only rise so the rounds terminate.
		seen      map[string]bool
		raiseOnly bool
	}

	// walk is what one traversal over the current choices met.
	walk struct {
		order     []coord.ModuleID
		requests  map[coord.ModuleID][]coord.Version
		artifacts map[coord.ModuleID][]artifactSpec
		scopes    map[coord.ModuleID][]string
	}

	// state is a dependency edge queued during a walk, with the exclusions
	// accumulated along its path.
	state struct {
		dep        depset.Dependency
		scopes     []string
		exclusions []coord.ModuleID
		expand     bool
	}
)

func newSession(r *Resolver, req Request) (*session, error) {
	g := req.graph()
	ancestors, err := g.Ancestors(req.Scope)
	if err != nil {
		return nil, err
	}
	entries, err := req.Dependencies.DeclaredWith(g, req.Scope)
	if err != nil {
		return nil, err
	}

	s := &session{
		r:        r,
		req:      req,
		graph:    g,
		chosen:   make(map[coord.ModuleID]coord.Version),
		nodes:    make(map[artifactKey]*node),
		listings: make(map[coord.ModuleID]*listing),
		seen:     make(map[string]bool),
	}
	for _, e := range entries {
		if e.Dependency.IsProject() {
			r.logger.Debug("skipping project dependency", "project", string(e.Dependency.Project))
			continue
		}
		scopes := []string{req.Scope}
		if !e.IsUnscoped() {
			scopes = slices.DeleteFunc(e.EffectiveScopes(), func(name string) bool {
				return !slices.Contains(ancestors, name)
			})
		}
		s.roots = append(s.roots, root{
			dep:    e.Dependency,
			scopes: scopes,
			expand: !e.Dependency.Intransitive && s.anyTransitive(scopes),
		})
	}
	return s, nil
}

func (s *session) anyTransitive(scopes []string) bool {
	for _, name := range scopes {
		if sc, ok := s.graph.Lookup(name); ok && sc.Transitive {
			return true
		}
	}
	return false
}

// walk traverses the graph from the roots, descending only into module
// versions already chosen and fetched. Cancellation is checked before each
// expansion.
func (s *session) walk(ctx context.Context) (*walk, error) {
	w := &walk{
		requests:  make(map[coord.ModuleID][]coord.Version),
		artifacts: make(map[coord.ModuleID][]artifactSpec),
		scopes:    make(map[coord.ModuleID][]string),
	}
	seen := make(map[string]bool)
	queue := make([]state, 0, len(s.roots))
	for _, rt := range s.roots {
		queue = append(queue, state{dep: rt.dep, scopes: rt.scopes, expand: rt.expand})
	}

	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]
		w.record(st)

		key := st.key()
		if seen[key] || !st.expand {
			continue
		}
		seen[key] = true

		id := st.dep.Module
		v, ok := s.chosen[id]
		if !ok {
			continue
		}
		spec := st.spec()
		n := s.nodes[artifactKey{module: id.At(v), classifier: spec.classifier, ext: spec.ext}]
		if n == nil || n.err != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		exclusions := mergeModules(st.exclusions, st.dep.EffectiveExclusions(s.req.Exclusions))
		for _, child := range n.deps {
			if child.IsProject() || excluded(exclusions, child.Module) {
				continue
			}
			queue = append(queue, state{
				dep:        child,
				scopes:     st.scopes,
				exclusions: exclusions,
				expand:     !child.Intransitive,
			})
		}
	}
	return w, nil
}

func (w *walk) record(st state) {
	id := st.dep.Module
	if _, ok := w.requests[id]; !ok {
		w.order = append(w.order, id)
	}
	if !slices.Contains(w.requests[id], st.dep.Version) {
		w.requests[id] = append(w.requests[id], st.dep.Version)
	}
	if spec := st.spec(); !slices.Contains(w.artifacts[id], spec) {
		w.artifacts[id] = append(w.artifacts[id], spec)
	}
	for _, name := range st.scopes {
		if !slices.Contains(w.scopes[id], name) {
			w.scopes[id] = append(w.scopes[id], name)
		}
	}
}

func (st state) spec() artifactSpec {
	a := coord.NewArtifact(coord.VersionedModule{}, st.dep.Classifier, st.dep.Ext)
	return artifactSpec{classifier: a.Classifier, ext: a.Ext}
}

// key identifies an expansion: the same artifact reached with the same
// scopes and exclusions expands identically.
func (st state) key() string {
	scopes := slices.Clone(st.scopes)
	slices.Sort(scopes)
	excl := make([]string, 0, len(st.exclusions)+len(st.dep.Exclusions))
	for _, ex := range mergeModules(st.exclusions, st.dep.Exclusions) {
		excl = append(excl, ex.String())
	}
	slices.Sort(excl)
	spec := st.spec()
	return strings.Join([]string{
		st.dep.Module.String(), spec.classifier, spec.ext,
		strings.Join(scopes, ","), strings.Join(excl, ","),
	}, "|")
}

// choose picks a version for every module met by w and reports whether a
// choice changed. A pin always wins. Otherwise the highest version
// satisfying a requirement of the current walk is taken, so a version asked
// for only by a displaced module version is dropped again. If a choice set
// comes back (two versions of a cycle requesting each other), later rounds
// only ever raise choices.
func (s *session) choose(w *walk) bool {
	next := make(map[coord.ModuleID]coord.Version, len(w.order))
	if s.raiseOnly {
		maps.Copy(next, s.chosen)
	}
	for _, id := range w.order {
		if pin, ok := s.req.Versions.VersionOf(id); ok {
			next[id] = pin
			continue
		}
		best, ok := s.highest(id, w.requests[id])
		if !ok {
			continue
		}
		if cur, ok := next[id]; ok && coord.Compare(cur, best) >= 0 {
			continue
		}
		next[id] = best
	}
	if maps.Equal(next, s.chosen) {
		return false
	}
	s.chosen = next

	sig := choiceSignature(next)
	if s.seen[sig] && !s.raiseOnly {
		s.r.logger.Debug("choices oscillate, keeping the highest from now on", "scope", s.req.Scope)
		s.raiseOnly = true
	}
	s.seen[sig] = true
	return true
}

func choiceSignature(chosen map[coord.ModuleID]coord.Version) string {
	ids := slices.SortedFunc(maps.Keys(chosen), coord.CompareModuleIDs)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.At(chosen[id]).String()
	}
	return strings.Join(parts, ";")
}

// highest returns the highest version satisfying any of requirements.
// Ranges are evaluated against the listed versions of id.
func (s *session) highest(id coord.ModuleID, requirements []coord.Version) (coord.Version, bool) {
	var best coord.Version
	for _, req := range requirements {
		candidate, ok := s.satisfy(id, req)
		if !ok {
			continue
		}
		if best == "" || coord.Compare(candidate, best) > 0 {
			best = candidate
		}
	}
	return best, best != ""
}

func (s *session) satisfy(id coord.ModuleID, req coord.Version) (coord.Version, bool) {
	if !req.IsRange() {
		return req, true
	}
	l := s.listings[id]
	if l == nil || l.err != nil {
		return "", false
	}
	rng, err := coord.ParseRange(req)
	if err != nil {
		return "", false
	}
	return rng.Highest(l.versions)
}

// result builds the Result from the final walk.
func (s *session) result(w *walk) *Result {
	res := &Result{Scope: s.req.Scope}
	for _, id := range w.order {
		requirements := w.requests[id]
		v, ok := s.chosen[id]
		if !ok {
			res.Unresolved = append(res.Unresolved, s.unsatisfied(id, requirements))
			continue
		}

		m := Module{Module: id.At(v), Scopes: s.ordered(w.scopes[id])}
		complete := true
		for _, spec := range w.artifacts[id] {
			n := s.nodes[artifactKey{module: m.Module, classifier: spec.classifier, ext: spec.ext}]
			if n == nil {
				continue
			}
			if n.err != nil {
				complete = false
				u := Unresolved{Module: id, Version: v, Artifact: n.artifact.String(), Reason: "artifact not found", Err: n.err}
				var notFound *repo.ArtifactNotFoundError
				if errors.As(n.err, &notFound) {
					u.Trace = notFound.Trace
				}
				res.Unresolved = append(res.Unresolved, u)
				continue
			}
			m.Artifacts = append(m.Artifacts, Artifact{Artifact: n.artifact, Location: n.location})
		}
		if complete {
			res.Modules = append(res.Modules, m)
		}

		if c, ok := s.conflict(id, v, requirements); ok {
			res.Conflicts = append(res.Conflicts, c)
		}
	}

	slices.SortStableFunc(res.Modules, func(a, b Module) int { return coord.CompareModuleIDs(a.Module.ID, b.Module.ID) })
	slices.SortStableFunc(res.Unresolved, func(a, b Unresolved) int { return coord.CompareModuleIDs(a.Module, b.Module) })
	slices.SortStableFunc(res.Conflicts, func(a, b Conflict) int { return coord.CompareModuleIDs(a.Module, b.Module) })
	return res
}

func (s *session) unsatisfied(id coord.ModuleID, requirements []coord.Version) Unresolved {
	names := make([]string, 0, len(requirements))
	for _, r := range requirements {
		names = append(names, r.String())
	}
	u := Unresolved{Module: id, Reason: "no version satisfies " + strings.Join(names, ", ")}
	if len(requirements) > 0 {
		u.Version = requirements[0]
	}
	if l := s.listings[id]; l != nil {
		u.Trace = l.trace
		u.Err = l.err
		if l.err == nil {
			u.Reason += fmt.Sprintf(" (available: %d versions)", len(l.versions))
		}
	}
	return u
}

func (s *session) conflict(id coord.ModuleID, chosen coord.Version, requirements []coord.Version) (Conflict, bool) {
	_, pinned := s.req.Versions.VersionOf(id)
	var displaced []coord.Version
	for _, req := range requirements {
		candidate, ok := s.satisfy(id, req)
		if !ok || candidate == chosen || slices.Contains(displaced, candidate) {
			continue
		}
		displaced = append(displaced, candidate)
	}
	if len(displaced) == 0 {
		return Conflict{}, false
	}
	coord.SortVersions(displaced)
	return Conflict{Module: id, Chosen: chosen, Displaced: displaced, Pinned: pinned}, true
}

// ordered returns names in scope definition order.
func (s *session) ordered(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range s.graph.Names() {
		if slices.Contains(names, name) {
			out = append(out, name)
		}
	}
	return out
}

func mergeModules(a, b []coord.ModuleID) []coord.ModuleID {
	out := slices.Clone(a)
	for _, id := range b {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func excluded(exclusions []coord.ModuleID, id coord.ModuleID) bool {
	return slices.ContainsFunc(exclusions, func(ex coord.ModuleID) bool { return ex.Matches(id) })
}
