// SPDX-License-Identifier: MPL-2.0

// Package pom reads and writes the subset of the Maven POM format used for
// dependency management: coordinates, dependencies with scopes and
// exclusions, dependencyManagement and repositories.
//
// Reading resolves ${...} references against the POM's own properties and
// project coordinates. Parent POMs are not fetched; only the coordinates
// declared in <parent> are inherited.
package pom
