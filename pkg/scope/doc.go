// SPDX-License-Identifier: MPL-2.0

// Package scope models named dependency contexts (compile, runtime, test, ...)
// that inherit from one another, and the mappings used to translate them into
// a publication-time configuration vocabulary.
//
// A Graph is built by calling Define for each scope. Extended scopes must be
// defined first and a definition that would close a cycle is rejected with a
// types.ConfigurationError of kind CyclicScope naming the cycle.
// Once built, a Graph is safe for concurrent reads.
package scope
