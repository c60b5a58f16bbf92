// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation", &ActionableError{Operation: "load manifest"}, "failed to load manifest"},
		{"resource", &ActionableError{Operation: "load manifest", Resource: "./kiln.cue"}, "failed to load manifest: ./kiln.cue"},
		{"cause", &ActionableError{Operation: "resolve dependencies", Cause: errors.New("2 unresolved")}, "failed to resolve dependencies: 2 unresolved"},
		{
			"full",
			&ActionableError{Operation: "publish", Resource: "org.example:app:1.0", Cause: errors.New("already exists")},
			"failed to publish: org.example:app:1.0: already exists",
		},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("%s: Error() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("not found")
	err := WrapWithContext(fmt.Errorf("kiln.cue: %w", sentinel), "load manifest", ".")
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is does not reach the cause")
	}
	if WrapWithContext(nil, "x", "y") != nil {
		t.Error("WrapWithContext(nil) != nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("connection refused")
	err := NewErrorContext().
		WithOperation("publish").
		WithResource("org.example:app:1.0").
		WithSuggestion("Check the repository URL").
		WithSuggestions("Retry later").
		Wrap(fmt.Errorf("upload: %w", inner)).
		Build()

	short := err.Format(false)
	if !strings.Contains(short, "  • Check the repository URL") || !strings.Contains(short, "  • Retry later") {
		t.Errorf("Format(false) = %q", short)
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) includes the error chain")
	}

	long := err.Format(true)
	if !strings.Contains(long, "1. upload: connection refused") || !strings.Contains(long, "2. connection refused") {
		t.Errorf("Format(true) = %q", long)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build() without an operation returned an error")
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want nil", err)
	}

	ctx := NewErrorContext().WithOperation("resolve dependencies").WithIssue(DependencyResolutionFailedId)
	first := ctx.WithSuggestion("a").Build()
	second := ctx.WithSuggestion("b").Build()
	if len(first.Suggestions) != 1 || len(second.Suggestions) != 2 {
		t.Errorf("suggestions = %v then %v", first.Suggestions, second.Suggestions)
	}
	if first.Issue != DependencyResolutionFailedId {
		t.Errorf("Issue = %d", first.Issue)
	}

	var ae *ActionableError
	if !errors.As(ctx.BuildError(), &ae) {
		t.Error("BuildError() is not an *ActionableError")
	}
}
