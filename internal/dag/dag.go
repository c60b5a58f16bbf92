// SPDX-License-Identifier: MPL-2.0

// Package dag provides a small directed graph with reachability queries,
// cycle-path reporting and a deterministic post-order. The scope
// graph uses it to reject cyclic "extends" declarations at definition time
// and to order configurations parent-first when writing descriptors.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains, or would contain, a cycle.
	CycleError struct {
		// Cycle lists the nodes forming the cycle. When produced by WouldCycle,
		// the first node is repeated at the end.
		Cycle []string
	}

	// Graph is a directed graph keyed by string node names. Nodes keep their
	// insertion order so every traversal is deterministic.
	Graph struct {
		adjacency map[string][]string
		nodes     []string
		nodeSet   map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to. Both nodes are added if missing.
// Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.adjacency[from], to) {
		return
	}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// SetEdges replaces every outgoing edge of from.
func (g *Graph) SetEdges(from string, to []string) {
	g.AddNode(from)
	g.adjacency[from] = nil
	for _, t := range to {
		g.AddEdge(from, t)
	}
}

// Path returns a shortest path from -> ... -> to, or nil when to is not
// reachable from from. A node reaches itself with the single-element path.
func (g *Graph) Path(from, to string) []string {
	if !g.nodeSet[from] || !g.nodeSet[to] {
		return nil
	}
	if from == to {
		return []string{from}
	}
	parent := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range g.adjacency[node] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = node
			if next == to {
				var path []string
				for n := to; n != ""; n = parent[n] {
					path = append(path, n)
				}
				slices.Reverse(path)
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// Reachable returns from followed by every node reachable from it, in
// breadth-first order without duplicates.
func (g *Graph) Reachable(from string) []string {
	if !g.nodeSet[from] {
		return nil
	}
	seen := map[string]bool{from: true}
	out := []string{from}
	for i := 0; i < len(out); i++ {
		for _, next := range g.adjacency[out[i]] {
			if !seen[next] {
				seen[next] = true
				out = append(out, next)
			}
		}
	}
	return out
}

// WouldCycle reports the cycle that adding the edges from -> to... would
// create, or nil when the graph stays acyclic.
func (g *Graph) WouldCycle(from string, to []string) *CycleError {
	for _, t := range to {
		if t == from {
			return &CycleError{Cycle: []string{from, from}}
		}
		if p := g.Path(t, from); p != nil {
			return &CycleError{Cycle: append([]string{from}, p...)}
		}
	}
	return nil
}

// PostOrder returns every node after all the nodes reachable from it.
// Roots are taken in insertion order and successors in edge order, so
// unrelated nodes keep their insertion order. Within a cycle the order is
// unspecified.
func (g *Graph) PostOrder() []string {
	out := make([]string, 0, len(g.nodes))
	done := make(map[string]bool, len(g.nodes))
	var visit func(node string)
	visit = func(node string) {
		if done[node] {
			return
		}
		done[node] = true
		for _, next := range g.adjacency[node] {
			visit(next)
		}
		out = append(out, node)
	}
	for _, node := range g.nodes {
		visit(node)
	}
	return out
}
