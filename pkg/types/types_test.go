// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDescriptionText_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		desc    DescriptionText
		wantErr bool
	}{
		{"empty", "", false},
		{"text", "Dependencies needed to compile", false},
		{"whitespace", "  \t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.desc.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDescriptionText) {
				t.Errorf("error should wrap ErrInvalidDescriptionText, got %v", err)
			}
		})
	}
}

func TestFilesystemPath(t *testing.T) {
	t.Parallel()

	p := FilesystemPath("build/out/app-sources.jar")
	if p.Base() != "app-sources.jar" {
		t.Errorf("Base() = %q", p.Base())
	}
	if p.Ext() != "jar" {
		t.Errorf("Ext() = %q", p.Ext())
	}
	if err := FilesystemPath(" ").Validate(); !errors.Is(err, ErrInvalidFilesystemPath) {
		t.Errorf("Validate() on blank path = %v", err)
	}
}

func TestExitCode_Validate(t *testing.T) {
	t.Parallel()

	for _, c := range []ExitCode{ExitOK, ExitFailure, ExitConfiguration, ExitUnresolved, ExitPublish, 255} {
		if err := c.Validate(); err != nil {
			t.Errorf("ExitCode(%d).Validate() = %v", c, err)
		}
	}
	if err := ExitCode(256).Validate(); !errors.Is(err, ErrInvalidExitCode) {
		t.Errorf("ExitCode(256).Validate() = %v", err)
	}
	if !ExitOK.IsSuccess() || ExitFailure.IsSuccess() {
		t.Error("IsSuccess() mismatch")
	}
}

func TestConfigurationError(t *testing.T) {
	t.Parallel()

	err := &ConfigurationError{Kind: CyclicScope, Subject: "a", Path: []string{"a", "b", "a"}}
	if !errors.Is(err, ErrConfiguration) {
		t.Fatal("ConfigurationError should wrap ErrConfiguration")
	}
	if !strings.Contains(err.Error(), "a -> b -> a") {
		t.Errorf("Error() = %q, should contain the cycle path", err.Error())
	}

	wrapped := fmt.Errorf("defining scope: %w", err)
	if !IsConfigurationKind(wrapped, CyclicScope) {
		t.Error("IsConfigurationKind(CyclicScope) = false through wrapping")
	}
	if IsConfigurationKind(wrapped, IllegalScopeName) {
		t.Error("IsConfigurationKind(IllegalScopeName) = true for cyclic scope error")
	}

	detailed := NewConfigurationError(MalformedVersion, "1..0", "empty segment at %d", 1)
	if detailed.Error() != `malformed version "1..0": empty segment at 1` {
		t.Errorf("Error() = %q", detailed.Error())
	}
}
