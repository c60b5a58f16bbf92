// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration error kinds.
const (
	// CyclicScope means a scope definition would make the scope graph cyclic.
	CyclicScope ConfigErrorKind = "cyclic scope"
	// IllegalScopeName means a scope name is empty or contains a reserved separator.
	IllegalScopeName ConfigErrorKind = "illegal scope name"
	// UnknownScope means a scope refers to a scope that has not been defined.
	UnknownScope ConfigErrorKind = "unknown scope"
	// MalformedCoordinate means a module coordinate could not be parsed.
	MalformedCoordinate ConfigErrorKind = "malformed coordinate"
	// MalformedVersion means a version literal or range could not be parsed.
	MalformedVersion ConfigErrorKind = "malformed version"
	// MalformedRepository means a repository URL or layout pattern is unusable.
	MalformedRepository ConfigErrorKind = "malformed repository"
)

// ErrConfiguration is the sentinel wrapped by every ConfigurationError.
// Configuration errors are fatal and are raised before any network activity.
var ErrConfiguration = errors.New("configuration error")

type (
	// ConfigErrorKind classifies a ConfigurationError.
	ConfigErrorKind string

	// ConfigurationError reports invalid build input: a cyclic or illegally
	// named scope, or a malformed coordinate or version.
	ConfigurationError struct {
		Kind ConfigErrorKind
		// Subject is the offending value (scope name, coordinate, version).
		Subject string
		// Path holds the cycle for CyclicScope errors, first element repeated last.
		Path []string
		// Detail is an optional free-form explanation.
		Detail string
	}
)

// NewConfigurationError builds a ConfigurationError with a formatted detail.
func NewConfigurationError(kind ConfigErrorKind, subject, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	if e.Subject != "" {
		fmt.Fprintf(&sb, " %q", e.Subject)
	}
	if len(e.Path) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Path, " -> "))
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

// Unwrap returns ErrConfiguration for errors.Is() compatibility.
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// IsConfigurationKind reports whether err, or any error it wraps or joins,
// is a ConfigurationError of the given kind.
func IsConfigurationKind(err error, kind ConfigErrorKind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *ConfigurationError:
		return e.Kind == kind
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsConfigurationKind(inner, kind) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return IsConfigurationKind(e.Unwrap(), kind)
	}
	return false
}
