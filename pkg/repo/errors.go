// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned (wrapped) by a Transport when the requested
	// resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRepositoryUnreachable is the sentinel wrapped by RepositoryUnreachableError.
	ErrRepositoryUnreachable = errors.New("repository unreachable")

	// ErrArtifactNotFound is the sentinel wrapped by ArtifactNotFoundError.
	ErrArtifactNotFound = errors.New("artifact not found")
)

type (
	// RepositoryUnreachableError reports that a repository could not be
	// contacted, rejected the credentials or timed out.
	RepositoryUnreachableError struct {
		Repository string
		Err        error
	}

	// ArtifactNotFoundError reports that no repository of a set holds an
	// artifact. Trace lists what every repository answered.
	ArtifactNotFoundError struct {
		Artifact string
		Trace    Trace
	}

	// Attempt records the outcome of one repository during a lookup.
	Attempt struct {
		Repository string
		URL        string
		Err        error
	}

	// Trace lists the attempts made by a lookup, in order.
	Trace []Attempt
)

// Error implements the error interface.
func (e *RepositoryUnreachableError) Error() string {
	return fmt.Sprintf("repository %s unreachable: %v", e.Repository, e.Err)
}

// Unwrap returns ErrRepositoryUnreachable and the underlying cause.
func (e *RepositoryUnreachableError) Unwrap() []error {
	return []error{ErrRepositoryUnreachable, e.Err}
}

// Error implements the error interface.
func (e *ArtifactNotFoundError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "artifact %s not found", e.Artifact)
	if len(e.Trace) > 0 {
		sb.WriteString(" in ")
		sb.WriteString(e.Trace.String())
	}
	return sb.String()
}

// Unwrap returns ErrArtifactNotFound for errors.Is() compatibility.
func (e *ArtifactNotFoundError) Unwrap() error { return ErrArtifactNotFound }

// Failures returns the attempts that ended with an error.
func (t Trace) Failures() Trace {
	var out Trace
	for _, a := range t {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Repositories returns the distinct repositories of the trace, in order.
func (t Trace) Repositories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range t {
		if !seen[a.Repository] {
			seen[a.Repository] = true
			out = append(out, a.Repository)
		}
	}
	return out
}

// String returns "repo (reason), repo (reason)".
func (t Trace) String() string {
	parts := make([]string, 0, len(t))
	for _, a := range t {
		switch {
		case a.Err == nil:
			parts = append(parts, a.Repository+" (found)")
		case errors.Is(a.Err, ErrRepositoryUnreachable):
			parts = append(parts, a.Repository+" (unreachable)")
		default:
			parts = append(parts, a.Repository+" (missing)")
		}
	}
	return strings.Join(parts, ", ")
}
