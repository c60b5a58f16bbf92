// SPDX-License-Identifier: MPL-2.0

// Package coord provides module coordinates and the version algebra used by
// resolution and publishing.
//
// # Coordinates
//
//   - [ModuleID]: (group, name), written "group:name"
//   - [VersionedModule]: a ModuleID at a concrete [Version]
//   - [Artifact]: a VersionedModule plus optional classifier and extension
//
// # Versions
//
// A [Version] is either a literal ("1.2", "2.0-RC1", "1.0-SNAPSHOT") or a
// range expression. Literals are ordered segment by segment (see [Compare]).
// Three range forms are understood by [ParseRange]:
//
//   - interval notation: "[1.0,2.0)", "(,1.5]", "[1.0,)", "[1.2]"
//   - trailing wildcard: "1.2.+", "+", plus "latest.release" and "latest.integration"
//   - semver constraints: "^1.2.0", "~1.4", ">=1.0.0 <2.0.0"
//
// All values in this package are immutable and safe for concurrent use.
package coord
