// SPDX-License-Identifier: MPL-2.0

package coord

import (
	"cmp"
	"strings"

	"github.com/kilnbuild/kiln/pkg/types"
)

// ModuleID identifies a module independently of its version.
type ModuleID struct {
	Group string
	Name  string
}

// NewModuleID returns the ModuleID for group and name.
func NewModuleID(group, name string) ModuleID {
	return ModuleID{Group: group, Name: name}
}

// ParseModuleID parses "group:name".
func ParseModuleID(s string) (ModuleID, error) {
	group, name, ok := strings.Cut(strings.TrimSpace(s), ":")
	id := ModuleID{Group: group, Name: name}
	if !ok || strings.Contains(name, ":") {
		return ModuleID{}, types.NewConfigurationError(types.MalformedCoordinate, s, "expected group:name")
	}
	if err := id.Validate(); err != nil {
		return ModuleID{}, err
	}
	return id, nil
}

// MustParseModuleID is like ParseModuleID but panics on error.
func MustParseModuleID(s string) ModuleID {
	id, err := ParseModuleID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Validate checks that both parts are present and free of separators.
func (m ModuleID) Validate() error {
	for _, part := range []string{m.Group, m.Name} {
		if strings.TrimSpace(part) == "" {
			return types.NewConfigurationError(types.MalformedCoordinate, m.String(), "group and name are required")
		}
		if strings.ContainsAny(part, ":/\\ \t") {
			return types.NewConfigurationError(types.MalformedCoordinate, m.String(), "%q contains a reserved character", part)
		}
	}
	return nil
}

// Matches reports whether m, read as an exclusion pattern, matches id. A "*"
// group or name matches any value.
func (m ModuleID) Matches(id ModuleID) bool {
	return (m.Group == "*" || m.Group == id.Group) && (m.Name == "*" || m.Name == id.Name)
}

// IsZero reports whether m is the zero ModuleID.
func (m ModuleID) IsZero() bool { return m.Group == "" && m.Name == "" }

// String returns "group:name".
func (m ModuleID) String() string { return m.Group + ":" + m.Name }

// GroupPath returns the group with dots replaced by slashes, as used by the
// Maven layout.
func (m ModuleID) GroupPath() string { return strings.ReplaceAll(m.Group, ".", "/") }

// At returns the VersionedModule for m at version v.
func (m ModuleID) At(v Version) VersionedModule { return VersionedModule{ID: m, Version: v} }

// CompareModuleIDs orders module ids lexicographically by (group, name).
func CompareModuleIDs(a, b ModuleID) int {
	if c := cmp.Compare(a.Group, b.Group); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}
