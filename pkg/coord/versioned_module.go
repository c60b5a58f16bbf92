// SPDX-License-Identifier: MPL-2.0

package coord

import (
	"strings"

	"github.com/kilnbuild/kiln/pkg/types"
)

// VersionedModule is a module at a concrete version. It is the identity used
// for artifact addressing and publication targets.
type VersionedModule struct {
	ID      ModuleID
	Version Version
}

// ParseVersionedModule parses "group:name:version".
func ParseVersionedModule(s string) (VersionedModule, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return VersionedModule{}, types.NewConfigurationError(types.MalformedCoordinate, s, "expected group:name:version")
	}
	vm := VersionedModule{ID: ModuleID{Group: parts[0], Name: parts[1]}, Version: Version(parts[2])}
	if err := vm.Validate(); err != nil {
		return VersionedModule{}, err
	}
	return vm, nil
}

// Validate checks the module id and requires a literal version.
func (v VersionedModule) Validate() error {
	if err := v.ID.Validate(); err != nil {
		return err
	}
	if err := v.Version.Validate(); err != nil {
		return err
	}
	if v.Version.IsRange() {
		return types.NewConfigurationError(types.MalformedVersion, v.Version.String(), "a versioned module needs a literal version")
	}
	return nil
}

// String returns "group:name:version".
func (v VersionedModule) String() string { return v.ID.String() + ":" + v.Version.String() }

// CompareVersionedModules orders by module id, then by version.
func CompareVersionedModules(a, b VersionedModule) int {
	if c := CompareModuleIDs(a.ID, b.ID); c != 0 {
		return c
	}
	return Compare(a.Version, b.Version)
}
