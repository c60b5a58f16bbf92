// SPDX-License-Identifier: MPL-2.0

package depset

import (
	"maps"
	"slices"

	"github.com/kilnbuild/kiln/pkg/coord"
)

// VersionProvider pins modules to versions. A pin takes priority over every
// requested version or range. The zero value provides nothing.
type VersionProvider struct {
	versions map[coord.ModuleID]coord.Version
}

// Pins returns a provider pinning each module to its version.
func Pins(modules ...coord.VersionedModule) VersionProvider {
	var p VersionProvider
	for _, m := range modules {
		p = p.And(m.ID, m.Version)
	}
	return p
}

// And returns a copy of p with id pinned to version.
func (p VersionProvider) And(id coord.ModuleID, version coord.Version) VersionProvider {
	out := VersionProvider{versions: make(map[coord.ModuleID]coord.Version, len(p.versions)+1)}
	maps.Copy(out.versions, p.versions)
	out.versions[id] = version
	return out
}

// Union returns the pins of p and other. Pins of other win for modules pinned
// by both.
func (p VersionProvider) Union(other VersionProvider) VersionProvider {
	out := VersionProvider{versions: make(map[coord.ModuleID]coord.Version, len(p.versions)+len(other.versions))}
	maps.Copy(out.versions, p.versions)
	maps.Copy(out.versions, other.versions)
	return out
}

// VersionOf returns the version pinned for id.
func (p VersionProvider) VersionOf(id coord.ModuleID) (coord.Version, bool) {
	v, ok := p.versions[id]
	return v, ok
}

// ModuleIDs returns the pinned modules, sorted.
func (p VersionProvider) ModuleIDs() []coord.ModuleID {
	return slices.SortedFunc(maps.Keys(p.versions), coord.CompareModuleIDs)
}

// Modules returns every pin as a VersionedModule, sorted by module.
func (p VersionProvider) Modules() []coord.VersionedModule {
	ids := p.ModuleIDs()
	out := make([]coord.VersionedModule, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.At(p.versions[id]))
	}
	return out
}

// Len returns the number of pins.
func (p VersionProvider) Len() int { return len(p.versions) }

// IsEmpty reports whether p pins nothing.
func (p VersionProvider) IsEmpty() bool { return len(p.versions) == 0 }
