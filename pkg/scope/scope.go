// SPDX-License-Identifier: MPL-2.0

package scope

import (
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/pkg/types"
)

// Well-known scope names.
const (
	Compile  = "compile"
	Provided = "provided"
	Runtime  = "runtime"
	Test     = "test"
	Sources  = "sources"
	Javadoc  = "javadoc"
)

// Reserved separators. They are used when scope sets and mappings are
// serialized ("a,b->c").
const (
	ListSeparator    = ","
	MappingSeparator = "->"
)

// Scope is a named dependency context.
type Scope struct {
	Name string
	// Extends lists the names of the directly extended scopes.
	Extends []string
	// Transitive reports whether dependencies declared in this scope bring
	// their own dependencies along.
	Transitive  bool
	Description types.DescriptionText
}

// ValidateName rejects empty names and names containing a reserved separator.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return types.NewConfigurationError(types.IllegalScopeName, name, "scope name must not be empty")
	case strings.Contains(name, ListSeparator):
		return types.NewConfigurationError(types.IllegalScopeName, name, "scope name must not contain %q", ListSeparator)
	case strings.Contains(name, MappingSeparator):
		return types.NewConfigurationError(types.IllegalScopeName, name, "scope name must not contain %q", MappingSeparator)
	case strings.ContainsAny(name, "() \t"):
		return types.NewConfigurationError(types.IllegalScopeName, name, "scope name must not contain blanks or parentheses")
	}
	return nil
}

// String returns the scope name.
func (s Scope) String() string { return s.Name }

func (s Scope) clone() Scope {
	s.Extends = slices.Clone(s.Extends)
	return s
}
