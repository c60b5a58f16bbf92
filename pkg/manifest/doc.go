// SPDX-License-Identifier: MPL-2.0

// Package manifest loads kiln.cue, the project manifest.
//
// A manifest names the module being built and declares its scopes,
// dependencies, pinned versions, exclusions, repositories and publication.
// It is validated against an embedded CUE schema and then converted into
// the typed values the resolver and the publisher consume.
package manifest
