// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrArtifactAlreadyExists indicates a release version is already
	// present in the target repository.
	ErrArtifactAlreadyExists = errors.New("artifact already exists")

	// ErrPublishTransport indicates an upload failed partway through a
	// publication.
	ErrPublishTransport = errors.New("publish transport failure")

	// ErrNoRepository indicates no repository of the set accepts the
	// version being published.
	ErrNoRepository = errors.New("no repository accepts the version")
)

type (
	// ArtifactAlreadyExistsError is returned before any upload when a
	// release version is already published. Releases are write-once.
	ArtifactAlreadyExistsError struct {
		Module     string
		Repository string
		URL        string
	}

	// PublishTransportError reports a publication that failed partway.
	// Completed files are left in the repository.
	PublishTransportError struct {
		Module     string
		Repository string
		Completed  []string
		Incomplete []string
		Err        error
	}
)

// Error implements the error interface.
func (e *ArtifactAlreadyExistsError) Error() string {
	return fmt.Sprintf("%s is already published to %s (%s)", e.Module, e.Repository, e.URL)
}

// Unwrap returns ErrArtifactAlreadyExists for errors.Is() compatibility.
func (e *ArtifactAlreadyExistsError) Unwrap() error { return ErrArtifactAlreadyExists }

// Error implements the error interface.
func (e *PublishTransportError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "publishing %s to %s failed: %v", e.Module, e.Repository, e.Err)
	if len(e.Completed) > 0 {
		fmt.Fprintf(&sb, "\n  completed: %s", strings.Join(e.Completed, ", "))
	}
	if len(e.Incomplete) > 0 {
		fmt.Fprintf(&sb, "\n  incomplete: %s", strings.Join(e.Incomplete, ", "))
	}
	return sb.String()
}

// Unwrap returns both ErrPublishTransport and the underlying failure.
func (e *PublishTransportError) Unwrap() []error { return []error{ErrPublishTransport, e.Err} }
