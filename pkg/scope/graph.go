// SPDX-License-Identifier: MPL-2.0

package scope

import (
	"slices"
	"sync"

	"github.com/kilnbuild/kiln/internal/dag"
	"github.com/kilnbuild/kiln/pkg/types"
)

// Graph holds a set of scopes and their "extends" relationships.
// Edges point from a scope to the scopes it extends.
type Graph struct {
	mu     sync.RWMutex
	scopes map[string]Scope
	order  []string
	edges  *dag.Graph
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		scopes: make(map[string]Scope),
		edges:  dag.New(),
	}
}

// DefaultGraph returns a new Graph holding the conventional Java scopes:
// compile, provided, runtime (extends compile), test (extends runtime and
// provided), and the non-transitive sources and javadoc scopes.
func DefaultGraph() *Graph {
	g := NewGraph()
	g.MustDefine(Compile, nil, true, "dependencies needed to compile and run the module")
	g.MustDefine(Provided, nil, true, "dependencies supplied by the runtime environment")
	g.MustDefine(Runtime, []string{Compile}, true, "dependencies needed at runtime only")
	g.MustDefine(Test, []string{Runtime, Provided}, true, "dependencies needed to compile and run tests")
	g.MustDefine(Sources, nil, false, "source archives")
	g.MustDefine(Javadoc, nil, false, "documentation archives")
	return g
}

// Define adds or replaces a scope. Every extended scope must already be
// defined, and the definition must not make the graph cyclic. A rejected
// definition leaves the graph unchanged.
func (g *Graph) Define(name string, extends []string, transitive bool, description string) (Scope, error) {
	if err := ValidateName(name); err != nil {
		return Scope{}, err
	}
	desc := types.DescriptionText(description)
	if err := desc.Validate(); err != nil {
		return Scope{}, types.NewConfigurationError(types.IllegalScopeName, name, "%v", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var parents []string
	for _, parent := range extends {
		if _, ok := g.scopes[parent]; !ok && parent != name {
			return Scope{}, types.NewConfigurationError(types.UnknownScope, parent, "extended by %q but not defined", name)
		}
		if !slices.Contains(parents, parent) {
			parents = append(parents, parent)
		}
	}

	if cycle := g.edges.WouldCycle(name, parents); cycle != nil {
		return Scope{}, &types.ConfigurationError{
			Kind:    types.CyclicScope,
			Subject: name,
			Path:    cycle.Cycle,
		}
	}

	s := Scope{Name: name, Extends: parents, Transitive: transitive, Description: desc}
	if _, exists := g.scopes[name]; !exists {
		g.order = append(g.order, name)
	}
	g.scopes[name] = s
	g.edges.SetEdges(name, parents)
	return s.clone(), nil
}

// MustDefine is like Define but panics on error. It is meant for static
// scope tables.
func (g *Graph) MustDefine(name string, extends []string, transitive bool, description string) Scope {
	s, err := g.Define(name, extends, transitive, description)
	if err != nil {
		panic(err)
	}
	return s
}

// Lookup returns the scope named name.
func (g *Graph) Lookup(name string) (Scope, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.scopes[name]
	if !ok {
		return Scope{}, false
	}
	return s.clone(), true
}

// Scopes returns every scope in definition order.
func (g *Graph) Scopes() []Scope {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Scope, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.scopes[name].clone())
	}
	return out
}

// Names returns every scope name in definition order.
func (g *Graph) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.order)
}

// Ancestors returns name followed by every scope it extends, directly or
// transitively, without duplicates.
func (g *Graph) Ancestors(name string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.scopes[name]; !ok {
		return nil, types.NewConfigurationError(types.UnknownScope, name, "scope is not defined")
	}
	return g.edges.Reachable(name), nil
}

// IsExtending reports whether a extends b, directly or transitively.
// A scope does not extend itself.
func (g *Graph) IsExtending(a, b string) bool {
	if a == b {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges.Path(a, b) != nil
}

// InvolvedScopes returns the union of the ancestors of names, in first-seen
// order.
func (g *Graph) InvolvedScopes(names ...string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, name := range names {
		ancestors, err := g.Ancestors(name)
		if err != nil {
			return nil, err
		}
		for _, a := range ancestors {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// IsInOrExtendingAny reports whether name is one of candidates or extends
// one of them.
func (g *Graph) IsInOrExtendingAny(name string, candidates []string) bool {
	for _, c := range candidates {
		if c == name || g.IsExtending(name, c) {
			return true
		}
	}
	return false
}

// ParentFirst returns the scope names ordered so that every scope comes
// after the scopes it extends. Unrelated scopes keep definition order.
func (g *Graph) ParentFirst() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges.PostOrder()
}
