// SPDX-License-Identifier: MPL-2.0

// Package types defines cross-cutting value types shared by the coordinate,
// scope, repository and publishing packages. It is a leaf dependency: it
// imports only the standard library and never imports domain packages.
//
// The configuration error taxonomy lives here so that every package that
// validates user input (scope names, coordinates, versions) reports failures
// through the same [ConfigurationError] type and [ErrConfiguration] sentinel.
package types
