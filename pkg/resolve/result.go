// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"slices"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/repo"
)

type (
	// Result is the outcome of a resolution. It is never mutated after
	// Resolve returns.
	Result struct {
		Scope string
		// Modules are the resolved modules, sorted by module id.
		Modules []Module
		// Unresolved lists the modules, or artifacts of modules, that could
		// not be resolved, sorted by module id.
		Unresolved []Unresolved
		// Conflicts lists the modules requested at more than one version.
		Conflicts []Conflict
	}

	// Module is a resolved module.
	Module struct {
		Module coord.VersionedModule
		// Scopes are the scopes whose declared dependencies led to the
		// module.
		Scopes    []string
		Artifacts []Artifact
	}

	// Artifact is a located file of a resolved module.
	Artifact struct {
		Artifact coord.Artifact
		Location repo.Location
	}

	// Unresolved is a module that could not be resolved.
	Unresolved struct {
		Module coord.ModuleID
		// Version is the chosen version, or the requested requirement when
		// no version satisfied it.
		Version coord.Version
		// Artifact is set when a specific file was not found.
		Artifact string
		Reason   string
		// Trace lists the repositories tried.
		Trace repo.Trace
		Err   error
	}

	// Conflict records a module requested at several versions.
	Conflict struct {
		Module coord.ModuleID
		Chosen coord.Version
		// Displaced are the requested versions that lost, ascending.
		Displaced []coord.Version
		Pinned    bool
	}
)

// ResolvedModules returns the coordinates of every resolved module.
func (r *Result) ResolvedModules() []coord.VersionedModule {
	out := make([]coord.VersionedModule, 0, len(r.Modules))
	for _, m := range r.Modules {
		out = append(out, m.Module)
	}
	return out
}

// Lookup returns the resolved module id.
func (r *Result) Lookup(id coord.ModuleID) (Module, bool) {
	i, found := slices.BinarySearchFunc(r.Modules, id, func(m Module, target coord.ModuleID) int {
		return coord.CompareModuleIDs(m.Module.ID, target)
	})
	if !found {
		return Module{}, false
	}
	return r.Modules[i], true
}

// VersionOf returns the resolved version of id.
func (r *Result) VersionOf(id coord.ModuleID) (coord.Version, bool) {
	m, ok := r.Lookup(id)
	return m.Module.Version, ok
}

// ScopesOf returns the scopes that pulled id in.
func (r *Result) ScopesOf(id coord.ModuleID) []string {
	m, _ := r.Lookup(id)
	return slices.Clone(m.Scopes)
}

// URLs returns the location of every resolved artifact, in module order.
func (r *Result) URLs() []string {
	var out []string
	for _, m := range r.Modules {
		for _, a := range m.Artifacts {
			out = append(out, a.Location.URL)
		}
	}
	return out
}

// IsComplete reports whether every module was resolved.
func (r *Result) IsComplete() bool { return len(r.Unresolved) == 0 }

// String returns "group:name:version[ artifact]: reason".
func (u Unresolved) String() string {
	s := u.Module.String()
	if u.Version != "" {
		s += ":" + u.Version.String()
	}
	if u.Artifact != "" {
		s += " (" + u.Artifact + ")"
	}
	s += ": " + u.Reason
	if len(u.Trace) > 0 {
		s += fmt.Sprintf(" [tried %s]", u.Trace)
	}
	return s
}
