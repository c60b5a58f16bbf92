// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDependencyResolution is the sentinel wrapped by DependencyResolutionError.
var ErrDependencyResolution = errors.New("dependency resolution failed")

// DependencyResolutionError is returned in strict mode, together with the
// complete Result, when at least one module could not be resolved.
type DependencyResolutionError struct {
	Scope      string
	Unresolved []Unresolved
}

// Error implements the error interface.
func (e *DependencyResolutionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d unresolved dependencies in scope %q", len(e.Unresolved), e.Scope)
	for _, u := range e.Unresolved {
		sb.WriteString("\n  ")
		sb.WriteString(u.String())
	}
	return sb.String()
}

// Unwrap returns ErrDependencyResolution for errors.Is() compatibility.
func (e *DependencyResolutionError) Unwrap() error { return ErrDependencyResolution }
