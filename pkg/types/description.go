// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDescriptionText is the sentinel error wrapped by InvalidDescriptionTextError.
var ErrInvalidDescriptionText = errors.New("invalid description text")

type (
	// DescriptionText is a human-readable description attached to a scope or a
	// published module. The zero value means "no description".
	DescriptionText string

	// InvalidDescriptionTextError is returned when a DescriptionText is
	// non-empty but contains only whitespace.
	InvalidDescriptionTextError struct {
		Value DescriptionText
	}
)

// String returns the description text.
func (d DescriptionText) String() string { return string(d) }

// Validate returns nil for the zero value and for any text that is not
// whitespace-only.
func (d DescriptionText) Validate() error {
	if d != "" && strings.TrimSpace(string(d)) == "" {
		return &InvalidDescriptionTextError{Value: d}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidDescriptionTextError) Error() string {
	return fmt.Sprintf("invalid description %q: must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidDescriptionText for errors.Is() compatibility.
func (e *InvalidDescriptionTextError) Unwrap() error { return ErrInvalidDescriptionText }
