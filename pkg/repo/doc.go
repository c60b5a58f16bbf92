// SPDX-License-Identifier: MPL-2.0

// Package repo describes artifact repositories and how coordinates map to
// paths inside them.
//
// Two layout families are supported. A Maven repository uses the fixed
// "{group/as/path}/{name}/{version}/{name}-{version}[-{classifier}].{ext}"
// layout and keeps a maven-metadata.xml index per module. An Ivy repository
// substitutes coordinates into bracket patterns such as
// "[organisation]/[module]/[type]s/[artifact]-[revision](-[type]).[ext]",
// where parenthesized groups vanish when their token is empty.
//
// A Set tries its repositories in declaration order. Failures of a single
// repository are recorded in a Trace and never surface on their own; the
// lookup fails only after every repository has been tried.
//
// Network access goes through the Transport interface so that the package
// stays independent of any concrete protocol; see package transport.
package repo
