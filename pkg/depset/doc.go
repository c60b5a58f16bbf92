// SPDX-License-Identifier: MPL-2.0

// Package depset holds the declared side of dependency management: module
// and project dependencies, the scopes they are declared in, version pins
// (VersionProvider) and transitive exclusions (ExclusionSet).
//
// Every type in this package is an immutable value. Builder methods return
// modified copies, so a Set, VersionProvider or ExclusionSet can be shared by
// concurrent resolutions.
package depset
