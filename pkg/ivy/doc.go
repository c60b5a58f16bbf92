// SPDX-License-Identifier: MPL-2.0

// Package ivy writes Ivy module descriptors (ivy.xml) for publication and
// reads their <dependencies> section for resolution.
//
// Scopes become Ivy configurations. A dependency declared in scopes s1,s2 is
// written with conf "s1,s2->default"; a dependency declared through a scope
// mapping keeps the mapping, e.g. "compile->runtime,master".
package ivy
