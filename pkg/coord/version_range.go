// SPDX-License-Identifier: MPL-2.0

package coord

import (
	"strings"

	mm "github.com/Masterminds/semver/v3"

	"github.com/kilnbuild/kiln/pkg/types"
)

const (
	latestRelease     = "latest.release"
	latestIntegration = "latest.integration"
)

type rangeKind int

const (
	rangeExact rangeKind = iota
	rangeInterval
	rangeWildcard
	rangeSemver
)

// Range is a parsed version requirement. A literal parses to an exact range
// that only contains itself.
type Range struct {
	expr Version
	kind rangeKind

	// interval bounds; an empty bound is unbounded
	lower, upper         Version
	lowerIncl, upperIncl bool

	// wildcard prefix; releaseOnly excludes snapshots (latest.release)
	prefix      string
	releaseOnly bool

	constraint *mm.Constraints
}

// ParseRange parses a version literal or range expression.
func ParseRange(v Version) (Range, error) {
	s := strings.TrimSpace(string(v))
	r := Range{expr: v}
	switch {
	case s == "":
		return Range{}, types.NewConfigurationError(types.MalformedVersion, string(v), "version is empty")
	case s[0] == '[' || s[0] == '(' || s[0] == ']':
		return parseInterval(v, s)
	case s == latestIntegration:
		r.kind = rangeWildcard
		return r, nil
	case s == latestRelease:
		r.kind = rangeWildcard
		r.releaseOnly = true
		return r, nil
	case strings.HasSuffix(s, "+"):
		r.kind = rangeWildcard
		r.prefix = strings.TrimSuffix(s, "+")
		if strings.ContainsAny(r.prefix, "+ ,[]()") {
			return Range{}, types.NewConfigurationError(types.MalformedVersion, string(v), "'+' is only allowed as the last character")
		}
		return r, nil
	case v.IsRange():
		c, err := mm.NewConstraint(s)
		if err != nil {
			return Range{}, types.NewConfigurationError(types.MalformedVersion, string(v), "%v", err)
		}
		r.kind = rangeSemver
		r.constraint = c
		return r, nil
	}
	if err := v.Validate(); err != nil {
		return Range{}, err
	}
	r.kind = rangeExact
	return r, nil
}

// MustParseRange is like ParseRange but panics on error.
func MustParseRange(v Version) Range {
	r, err := ParseRange(v)
	if err != nil {
		panic(err)
	}
	return r
}

// parseInterval handles "[a,b]", "[a,b)", "(a,b]", "(a,b)", "[a]" and the
// Maven-style "]a,b[" exclusive notation, with either bound omitted.
func parseInterval(v Version, s string) (Range, error) {
	bad := func(detail string) (Range, error) {
		return Range{}, types.NewConfigurationError(types.MalformedVersion, string(v), "%s", detail)
	}
	if len(s) < 3 {
		return bad("interval is too short")
	}
	open, closing := s[0], s[len(s)-1]
	if !strings.ContainsRune("])[", rune(closing)) {
		return bad("interval must end with ']' or ')'")
	}
	body := s[1 : len(s)-1]
	r := Range{
		expr:      v,
		kind:      rangeInterval,
		lowerIncl: open == '[',
		upperIncl: closing == ']',
	}

	lower, upper, hasComma := strings.Cut(body, ",")
	lower, upper = strings.TrimSpace(lower), strings.TrimSpace(upper)
	if !hasComma {
		if open != '[' || closing != ']' || lower == "" {
			return bad("single-version interval must be written [x]")
		}
		upper = lower
	}
	if strings.Contains(upper, ",") {
		return bad("interval has more than two bounds")
	}
	for _, b := range []string{lower, upper} {
		if b == "" {
			continue
		}
		if err := Version(b).Validate(); err != nil || Version(b).IsRange() {
			return bad("invalid bound " + b)
		}
	}
	r.lower, r.upper = Version(lower), Version(upper)
	if r.lower != "" && r.upper != "" {
		c := Compare(r.lower, r.upper)
		if c > 0 || (c == 0 && !(r.lowerIncl && r.upperIncl)) {
			return bad("interval is empty")
		}
	}
	return r, nil
}

// String returns the original expression.
func (r Range) String() string { return string(r.expr) }

// IsDynamic reports whether resolving r requires listing candidate versions.
func (r Range) IsDynamic() bool { return r.kind != rangeExact }

// Contains reports whether the literal v satisfies r.
func (r Range) Contains(v Version) bool {
	if v.IsRange() {
		return false
	}
	switch r.kind {
	case rangeExact:
		return Compare(r.expr, v) == 0
	case rangeInterval:
		if r.lower != "" {
			c := Compare(v, r.lower)
			if c < 0 || (c == 0 && !r.lowerIncl) {
				return false
			}
		}
		if r.upper != "" {
			c := Compare(v, r.upper)
			if c > 0 || (c == 0 && !r.upperIncl) {
				return false
			}
		}
		return true
	case rangeWildcard:
		if r.releaseOnly && v.IsSnapshot() {
			return false
		}
		return strings.HasPrefix(string(v), r.prefix)
	case rangeSemver:
		sv, err := mm.NewVersion(string(v))
		if err != nil {
			return false
		}
		return r.constraint.Check(sv)
	}
	return false
}

// Highest returns the highest candidate contained in r ("latest accepted").
func (r Range) Highest(candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, c := range candidates {
		if !r.Contains(c) {
			continue
		}
		if !found || Compare(c, best) > 0 {
			best = c
			found = true
		}
	}
	return best, found
}

// Literal returns the version literal of an exact range.
func (r Range) Literal() (Version, bool) {
	if r.kind != rangeExact {
		return "", false
	}
	return r.expr, true
}
