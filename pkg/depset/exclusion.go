// SPDX-License-Identifier: MPL-2.0

package depset

import (
	"maps"
	"slices"

	"github.com/kilnbuild/kiln/pkg/coord"
)

// ExclusionSet maps a module to the transitive modules dropped whenever that
// module's dependencies are expanded. The zero value is empty.
type ExclusionSet struct {
	byModule map[coord.ModuleID][]coord.ModuleID
}

// On returns a copy of e where module also excludes excluded.
func (e ExclusionSet) On(module coord.ModuleID, excluded ...coord.ModuleID) ExclusionSet {
	out := e.clone()
	current := out.byModule[module]
	for _, id := range excluded {
		if !slices.Contains(current, id) {
			current = append(current, id)
		}
	}
	out.byModule[module] = current
	return out
}

// For returns the modules excluded below module.
func (e ExclusionSet) For(module coord.ModuleID) []coord.ModuleID {
	return slices.Clone(e.byModule[module])
}

// Union returns the entries of e and other combined per module.
func (e ExclusionSet) Union(other ExclusionSet) ExclusionSet {
	out := e
	for _, module := range other.Modules() {
		out = out.On(module, other.byModule[module]...)
	}
	return out
}

// Modules returns the modules carrying exclusions, sorted.
func (e ExclusionSet) Modules() []coord.ModuleID {
	return slices.SortedFunc(maps.Keys(e.byModule), coord.CompareModuleIDs)
}

// IsEmpty reports whether e holds no exclusion.
func (e ExclusionSet) IsEmpty() bool { return len(e.byModule) == 0 }

func (e ExclusionSet) clone() ExclusionSet {
	out := ExclusionSet{byModule: make(map[coord.ModuleID][]coord.ModuleID, len(e.byModule)+1)}
	for k, v := range e.byModule {
		out.byModule[k] = slices.Clone(v)
	}
	return out
}
