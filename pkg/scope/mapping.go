// SPDX-License-Identifier: MPL-2.0

package scope

import (
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/pkg/types"
)

// EntrySeparator separates the entries of a serialized Mapping.
const EntrySeparator = ";"

// mavenScopes is the Maven scope vocabulary, broadest first.
var mavenScopes = []string{Compile, Provided, Runtime, Test}

type (
	// Entry maps a set of source scopes to target configuration names.
	Entry struct {
		From []string
		To   []string
	}

	// Mapping is an ordered list of entries. It is only used when a
	// dependency is published into a configuration vocabulary that differs
	// from the scope names (Ivy configurations, Maven scopes).
	// The zero value is an empty mapping. Mappings are immutable; every
	// builder method returns a copy.
	Mapping struct {
		entries []Entry
	}
)

// MapTo returns a mapping with the single entry from -> to.
func MapTo(from string, to ...string) Mapping {
	return Mapping{}.Map([]string{from}, to...)
}

// Map returns a copy of m with the entry from -> to appended.
func (m Mapping) Map(from []string, to ...string) Mapping {
	entries := make([]Entry, 0, len(m.entries)+1)
	entries = append(entries, m.entries...)
	entries = append(entries, Entry{From: slices.Clone(from), To: slices.Clone(to)})
	return Mapping{entries: entries}
}

// ParseMapping parses the serialized form "a,b->c,d;e->f". A bare scope name
// "a" maps a to itself.
func ParseMapping(s string) (Mapping, error) {
	var m Mapping
	for raw := range strings.SplitSeq(s, EntrySeparator) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		from, to, hasArrow := strings.Cut(raw, MappingSeparator)
		sources := splitNames(from)
		targets := sources
		if hasArrow {
			targets = splitNames(to)
		}
		if len(sources) == 0 || len(targets) == 0 {
			return Mapping{}, types.NewConfigurationError(types.IllegalScopeName, raw, "mapping entry needs source and target names")
		}
		for _, name := range append(slices.Clone(sources), targets...) {
			if err := ValidateName(name); err != nil {
				return Mapping{}, err
			}
		}
		m = m.Map(sources, targets...)
	}
	return m, nil
}

func splitNames(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ListSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsZero reports whether m has no entries.
func (m Mapping) IsZero() bool { return len(m.entries) == 0 }

// Entries returns a copy of the entries in declaration order.
func (m Mapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		out[i] = Entry{From: slices.Clone(e.From), To: slices.Clone(e.To)}
	}
	return out
}

// Validate checks every source and target name.
func (m Mapping) Validate() error {
	for _, e := range m.entries {
		for _, name := range append(slices.Clone(e.From), e.To...) {
			if err := ValidateName(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// SourceScopes returns the union of every entry's source scopes.
func (m Mapping) SourceScopes() []string {
	var out []string
	for _, e := range m.entries {
		out = appendUnique(out, e.From...)
	}
	return out
}

// TargetsOf returns the union of the targets of every entry whose sources
// intersect scopes.
func (m Mapping) TargetsOf(scopes ...string) []string {
	var out []string
	for _, e := range m.entries {
		if intersects(e.From, scopes) {
			out = appendUnique(out, e.To...)
		}
	}
	return out
}

// MavenScope picks the Maven scope (compile, provided, runtime or test) for a
// dependency declared with scopes. When m is not empty the mapping targets are
// considered instead of the scopes themselves. Names outside the Maven
// vocabulary are matched through their nearest Maven ancestor in g. The
// broadest match wins; compile is returned when nothing matches.
func (m Mapping) MavenScope(g *Graph, scopes []string) string {
	candidates := scopes
	if !m.IsZero() {
		candidates = m.TargetsOf(scopes...)
	}
	best := -1
	for _, c := range candidates {
		idx := slices.Index(mavenScopes, nearestMaven(g, c))
		if idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	if best < 0 {
		return Compile
	}
	return mavenScopes[best]
}

func nearestMaven(g *Graph, name string) string {
	if slices.Contains(mavenScopes, name) {
		return name
	}
	if g == nil {
		return ""
	}
	ancestors, err := g.Ancestors(name)
	if err != nil {
		return ""
	}
	for _, a := range ancestors {
		if slices.Contains(mavenScopes, a) {
			return a
		}
	}
	return ""
}

// String returns the serialized form accepted by ParseMapping.
func (m Mapping) String() string {
	parts := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		parts = append(parts, strings.Join(e.From, ListSeparator)+MappingSeparator+strings.Join(e.To, ListSeparator))
	}
	return strings.Join(parts, EntrySeparator)
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
