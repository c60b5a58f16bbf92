// SPDX-License-Identifier: MPL-2.0

package coord

import (
	"cmp"
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/pkg/types"
)

// SnapshotQualifier marks a version as a moving development build.
const SnapshotQualifier = "SNAPSHOT"

// Version is a version literal or a range expression. See the package
// documentation for the accepted range forms.
type Version string

// String returns the raw version text.
func (v Version) String() string { return string(v) }

// IsRange reports whether v is a range expression rather than a literal.
func (v Version) IsRange() bool {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return false
	}
	switch {
	case s[0] == '[' || s[0] == '(' || s[0] == ']':
		return true
	case strings.HasSuffix(s, "+"):
		return true
	case s == latestRelease || s == latestIntegration:
		return true
	case strings.ContainsAny(s[:1], "^~<>=!") || strings.Contains(s, "||") || strings.Contains(s, " "):
		return true
	}
	return false
}

// IsSnapshot reports whether v carries the SNAPSHOT qualifier.
func (v Version) IsSnapshot() bool {
	return strings.HasSuffix(strings.ToUpper(string(v)), "-"+SnapshotQualifier)
}

// Validate returns a ConfigurationError when v is neither a well-formed
// literal nor a well-formed range.
func (v Version) Validate() error {
	s := string(v)
	if strings.TrimSpace(s) == "" {
		return types.NewConfigurationError(types.MalformedVersion, s, "version is empty")
	}
	if v.IsRange() {
		_, err := ParseRange(v)
		return err
	}
	if strings.ContainsAny(s, " ,:/\\[]()") {
		return types.NewConfigurationError(types.MalformedVersion, s, "literal contains a reserved character")
	}
	if strings.Contains(s, "..") || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return types.NewConfigurationError(types.MalformedVersion, s, "empty segment")
	}
	return nil
}

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool { return Compare(v, other) < 0 }

// Compare orders two version literals.
//
// Versions are split into segments on ".", "-" and "_" and at every
// digit/letter boundary. Numeric segments compare numerically, qualifier
// segments by their rank (SNAPSHOT < alpha < beta < milestone < RC < other
// qualifiers < release) and then lexically. A qualifier sorts below a numeric
// segment at the same position, and below an absent one, so "1.0" > "1.0-RC1".
// A missing numeric segment counts as zero: "1.0" == "1.0.0".
func Compare(a, b Version) int {
	as, bs := segments(string(a)), segments(string(b))
	n := max(len(as), len(bs))
	for i := range n {
		var x, y segment
		switch {
		case i >= len(as):
			x = padFor(bs[i])
			y = bs[i]
		case i >= len(bs):
			x = as[i]
			y = padFor(as[i])
		default:
			x, y = as[i], bs[i]
		}
		if c := x.compare(y); c != 0 {
			return c
		}
	}
	return 0
}

// SortVersions sorts versions in ascending order.
func SortVersions(versions []Version) {
	slices.SortStableFunc(versions, Compare)
}

// Max returns the larger of a and b; a wins on ties.
func Max(a, b Version) Version {
	if Compare(b, a) > 0 {
		return b
	}
	return a
}

type segment struct {
	numeric bool
	digits  string // numeric value without leading zeros
	text    string // lower-cased qualifier
	release bool   // padding standing for "no qualifier"
}

var qualifierRanks = map[string]int{
	"snapshot":  0,
	"alpha":     1,
	"a":         1,
	"beta":      2,
	"b":         2,
	"milestone": 3,
	"m":         3,
	"rc":        4,
	"cr":        4,
	"ga":        6,
	"final":     6,
	"release":   6,
}

const unknownQualifierRank = 5

func (s segment) rank() int {
	if s.release {
		return 6
	}
	if r, ok := qualifierRanks[s.text]; ok {
		return r
	}
	return unknownQualifierRank
}

func (s segment) compare(o segment) int {
	switch {
	case s.numeric && o.numeric:
		if c := cmp.Compare(len(s.digits), len(o.digits)); c != 0 {
			return c
		}
		return cmp.Compare(s.digits, o.digits)
	case s.numeric:
		return 1
	case o.numeric:
		return -1
	}
	sr, or := s.rank(), o.rank()
	if c := cmp.Compare(sr, or); c != 0 {
		return c
	}
	if sr == 6 {
		// ga, final and release all mean "no qualifier"
		return 0
	}
	return cmp.Compare(s.text, o.text)
}

func padFor(other segment) segment {
	if other.numeric {
		return segment{numeric: true, digits: "0"}
	}
	return segment{release: true}
}

func segments(s string) []segment {
	var out []segment
	flush := func(tok string) {
		if tok == "" {
			return
		}
		if tok[0] >= '0' && tok[0] <= '9' {
			d := strings.TrimLeft(tok, "0")
			if d == "" {
				d = "0"
			}
			out = append(out, segment{numeric: true, digits: d})
			return
		}
		out = append(out, segment{text: strings.ToLower(tok)})
	}

	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' || c == '-' || c == '_' {
			flush(s[start:i])
			start = i + 1
			continue
		}
		if i > start && isDigit(c) != isDigit(s[i-1]) {
			flush(s[start:i])
			start = i
		}
	}
	flush(s[start:])

	// Trailing zero segments do not change the ordering ("1.0" == "1").
	for len(out) > 1 {
		last := out[len(out)-1]
		if !last.numeric || last.digits != "0" {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
