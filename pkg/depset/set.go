// SPDX-License-Identifier: MPL-2.0

package depset

import (
	"errors"
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/scope"
)

type (
	// ScopedDependency is a dependency together with the scopes it is
	// declared in, or a scope mapping. A dependency with neither applies to
	// every scope.
	ScopedDependency struct {
		Dependency Dependency
		Scopes     []string
		Mapping    scope.Mapping
	}

	// Set is an ordered collection of scoped dependencies. Entries are keyed
	// by (module, effective scope set); a later entry with the same key
	// replaces the earlier one in place.
	Set struct {
		entries []ScopedDependency
	}
)

// EffectiveScopes returns the declared scopes, or the mapping's source scopes
// when the dependency is declared through a mapping.
func (s ScopedDependency) EffectiveScopes() []string {
	if !s.Mapping.IsZero() {
		return s.Mapping.SourceScopes()
	}
	return slices.Clone(s.Scopes)
}

// IsUnscoped reports whether s applies to every scope.
func (s ScopedDependency) IsUnscoped() bool {
	return len(s.Scopes) == 0 && s.Mapping.IsZero()
}

func (s ScopedDependency) key() string {
	scopes := s.EffectiveScopes()
	slices.Sort(scopes)
	id := s.Dependency.Module.String()
	if s.Dependency.IsProject() {
		id = "project:" + string(s.Dependency.Project)
	}
	return id + "|" + strings.Join(scopes, scope.ListSeparator)
}

// Of returns a Set holding entries, deduplicated.
func Of(entries ...ScopedDependency) Set {
	var s Set
	for _, e := range entries {
		s = s.add(e)
	}
	return s
}

// And returns a copy of s with dep declared in scopes.
func (s Set) And(dep Dependency, scopes ...string) Set {
	return s.add(ScopedDependency{Dependency: dep, Scopes: slices.Clone(scopes)})
}

// AndMapped returns a copy of s with dep declared through mapping.
func (s Set) AndMapped(dep Dependency, mapping scope.Mapping) Set {
	return s.add(ScopedDependency{Dependency: dep, Mapping: mapping})
}

// Without returns a copy of s without any entry on module id.
func (s Set) Without(id coord.ModuleID) Set {
	out := Set{entries: make([]ScopedDependency, 0, len(s.entries))}
	for _, e := range s.entries {
		if e.Dependency.IsProject() || e.Dependency.Module != id {
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// Merge concatenates a and b, keeping first-seen order. Entries of b replace
// entries of a that share their key.
func Merge(a, b Set) Set {
	out := a
	for _, e := range b.entries {
		out = out.add(e)
	}
	return out
}

func (s Set) add(e ScopedDependency) Set {
	e.Scopes = slices.Clone(e.Scopes)
	e.Dependency = e.Dependency.clone()
	out := Set{entries: slices.Clone(s.entries)}
	k := e.key()
	for i := range out.entries {
		if out.entries[i].key() == k {
			out.entries[i] = e
			return out
		}
	}
	out.entries = append(out.entries, e)
	return out
}

// Entries returns the entries in declaration order.
func (s Set) Entries() []ScopedDependency {
	return slices.Clone(s.entries)
}

// Len returns the number of entries.
func (s Set) Len() int { return len(s.entries) }

// ModuleDependencies returns the module (non-project) entries.
func (s Set) ModuleDependencies() []ScopedDependency {
	var out []ScopedDependency
	for _, e := range s.entries {
		if !e.Dependency.IsProject() {
			out = append(out, e)
		}
	}
	return out
}

// ModuleIDs returns every distinct module referenced by the set, in
// declaration order.
func (s Set) ModuleIDs() []coord.ModuleID {
	var out []coord.ModuleID
	for _, e := range s.ModuleDependencies() {
		if !slices.Contains(out, e.Dependency.Module) {
			out = append(out, e.Dependency.Module)
		}
	}
	return out
}

// DeclaredWith returns the entries that apply when resolving name: those
// whose effective scopes intersect the ancestors of name, plus the unscoped
// ones. A dependency declared for compile is therefore part of test when test
// extends compile.
func (s Set) DeclaredWith(g *scope.Graph, name string) ([]ScopedDependency, error) {
	if _, err := g.Ancestors(name); err != nil {
		return nil, err
	}
	var out []ScopedDependency
	for _, e := range s.entries {
		if e.IsUnscoped() || g.IsInOrExtendingAny(name, e.EffectiveScopes()) {
			out = append(out, e)
		}
	}
	return out, nil
}

// EffectiveExclusions returns the union of the exclusion lists of every entry
// on module id and the exclusions registered for id.
func (s Set) EffectiveExclusions(id coord.ModuleID, exclusions ExclusionSet) []coord.ModuleID {
	var out []coord.ModuleID
	for _, e := range s.ModuleDependencies() {
		if e.Dependency.Module != id {
			continue
		}
		for _, ex := range e.Dependency.Exclusions {
			if !slices.Contains(out, ex) {
				out = append(out, ex)
			}
		}
	}
	for _, ex := range exclusions.For(id) {
		if !slices.Contains(out, ex) {
			out = append(out, ex)
		}
	}
	return out
}

// Validate checks every dependency and every declared scope name. Scope
// names are checked against g when it is not nil.
func (s Set) Validate(g *scope.Graph) error {
	var errs []error
	for _, e := range s.entries {
		if err := e.Dependency.Validate(); err != nil {
			errs = append(errs, err)
		}
		if err := e.Mapping.Validate(); err != nil {
			errs = append(errs, err)
		}
		for _, sc := range e.EffectiveScopes() {
			if err := scope.ValidateName(sc); err != nil {
				errs = append(errs, err)
				continue
			}
			if g != nil {
				if _, err := g.Ancestors(sc); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}
