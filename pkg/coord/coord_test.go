// SPDX-License-Identifier: MPL-2.0

package coord

import (
	"slices"
	"testing"

	"github.com/kilnbuild/kiln/pkg/types"
)

func TestParseModuleID(t *testing.T) {
	t.Parallel()

	id, err := ParseModuleID("org.example:lib-core")
	if err != nil {
		t.Fatalf("ParseModuleID() error = %v", err)
	}
	if id.Group != "org.example" || id.Name != "lib-core" {
		t.Errorf("ParseModuleID() = %+v", id)
	}
	if id.GroupPath() != "org/example" {
		t.Errorf("GroupPath() = %q", id.GroupPath())
	}

	for _, bad := range []string{"", "nogroup", ":name", "group:", "a:b:c", "a b:c"} {
		if _, err := ParseModuleID(bad); !types.IsConfigurationKind(err, types.MalformedCoordinate) {
			t.Errorf("ParseModuleID(%q) error = %v, want MalformedCoordinate", bad, err)
		}
	}
}

func TestModuleID_Matches(t *testing.T) {
	t.Parallel()

	target := NewModuleID("org.example", "core")
	tests := []struct {
		pattern ModuleID
		want    bool
	}{
		{NewModuleID("org.example", "core"), true},
		{NewModuleID("org.example", "*"), true},
		{NewModuleID("*", "core"), true},
		{NewModuleID("*", "*"), true},
		{NewModuleID("org.example", "api"), false},
		{NewModuleID("org", "core"), false},
	}
	for _, tt := range tests {
		if got := tt.pattern.Matches(target); got != tt.want {
			t.Errorf("%s.Matches(%s) = %v, want %v", tt.pattern, target, got, tt.want)
		}
	}
}

func TestModuleIDOrdering(t *testing.T) {
	t.Parallel()

	ids := []ModuleID{
		NewModuleID("org.b", "a"),
		NewModuleID("org.a", "z"),
		NewModuleID("org.a", "b"),
	}
	slices.SortFunc(ids, CompareModuleIDs)
	want := []ModuleID{
		NewModuleID("org.a", "b"),
		NewModuleID("org.a", "z"),
		NewModuleID("org.b", "a"),
	}
	if !slices.Equal(ids, want) {
		t.Errorf("sorted = %v, want %v", ids, want)
	}
}

func TestParseVersionedModule(t *testing.T) {
	t.Parallel()

	vm, err := ParseVersionedModule("org.example:app:1.0.0")
	if err != nil {
		t.Fatalf("ParseVersionedModule() error = %v", err)
	}
	if vm.String() != "org.example:app:1.0.0" {
		t.Errorf("String() = %q", vm.String())
	}
	if _, err := ParseVersionedModule("org.example:app:[1.0,2.0)"); err == nil {
		t.Error("ParseVersionedModule() accepted a range")
	}
	if _, err := ParseVersionedModule("org.example:app"); err == nil {
		t.Error("ParseVersionedModule() accepted a coordinate without version")
	}
}

func TestArtifactFileName(t *testing.T) {
	t.Parallel()

	vm := NewModuleID("org.example", "app").At("1.0-SNAPSHOT")

	tests := []struct {
		name string
		art  Artifact
		want string
	}{
		{"main", NewArtifact(vm, "", ""), "app-1.0-SNAPSHOT.jar"},
		{"classified", NewArtifact(vm, "sources", "jar"), "app-1.0-SNAPSHOT-sources.jar"},
		{"pom", NewArtifact(vm, "", "pom"), "app-1.0-SNAPSHOT.pom"},
	}
	for _, tt := range tests {
		if got := tt.art.FileName(); got != tt.want {
			t.Errorf("%s: FileName() = %q, want %q", tt.name, got, tt.want)
		}
	}

	stamped := NewArtifact(vm, "", "jar").FileNameAt("1.0-20240102.030405-7")
	if stamped != "app-1.0-20240102.030405-7.jar" {
		t.Errorf("FileNameAt() = %q", stamped)
	}
	if NewArtifact(vm, "sources", "jar").Type() != "sources" || NewArtifact(vm, "", "war").Type() != "war" {
		t.Error("Type() mismatch")
	}
}

func TestParseNotation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Notation
	}{
		{"org:a:1.0", Notation{ID: NewModuleID("org", "a"), Version: "1.0"}},
		{"org:a:[1.0,2.0):tests", Notation{ID: NewModuleID("org", "a"), Version: "[1.0,2.0)", Classifier: "tests"}},
		{"org:a:1.+@zip", Notation{ID: NewModuleID("org", "a"), Version: "1.+", Ext: "zip"}},
	}
	for _, tt := range tests {
		got, err := ParseNotation(tt.in)
		if err != nil {
			t.Errorf("ParseNotation(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNotation(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"org:a", "org:a:1.0:x:y", "org:a:1.0@", "org:a:1..0"} {
		if _, err := ParseNotation(bad); err == nil {
			t.Errorf("ParseNotation(%q) = nil error", bad)
		}
	}
}
