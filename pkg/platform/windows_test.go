// SPDX-License-Identifier: MPL-2.0

package platform

import "testing"

func TestIsWindowsReservedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"aux", true},
		{"Con", true},
		{"nul.pom", true},
		{"lpt9.jar", true},
		{"com10", false},
		{"aux-1.0.jar", false},
		{"maven-metadata.xml", false},
		{"console", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := IsWindowsReservedName(tt.input); got != tt.want {
				t.Errorf("IsWindowsReservedName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
