// SPDX-License-Identifier: MPL-2.0

// Package resolve computes the transitive closure of a dependency set for a
// scope.
//
// Resolution runs in rounds. Each round walks the graph from the declared
// dependencies using the versions chosen so far, collects every version
// requirement met on the way, fetches what is missing (version listings for
// ranges, artifact locations and descriptors for chosen versions) through a
// bounded worker pool, then re-chooses versions. A module keeps the highest
// version any reachable requirement asks for unless a pin overrides it. The
// loop stops when a round neither fetches anything nor changes a choice; a
// last walk over the final choices produces the Result, so modules reachable
// only through a displaced version are dropped.
//
// Exclusions are scoped to the subtree of the dependency declaring them.
package resolve
