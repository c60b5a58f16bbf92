// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"slices"
	"testing"

	"github.com/kilnbuild/kiln/pkg/coord"
)

func TestMavenPaths(t *testing.T) {
	t.Parallel()

	m := coord.MustParseModuleID("org.apache.commons:commons-lang3").At("3.14.0")

	tests := []struct {
		name        string
		art         coord.Artifact
		fileVersion coord.Version
		want        string
	}{
		{"main jar", coord.NewArtifact(m, "", ""), "", "org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0.jar"},
		{"sources", coord.NewArtifact(m, "sources", "jar"), "", "org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0-sources.jar"},
		{"pom", coord.NewArtifact(m, "", "pom"), "", "org/apache/commons/commons-lang3/3.14.0/commons-lang3-3.14.0.pom"},
	}
	for _, tt := range tests {
		if got := MavenArtifactPath(tt.art, tt.fileVersion); got != tt.want {
			t.Errorf("%s: MavenArtifactPath() = %q, want %q", tt.name, got, tt.want)
		}
	}

	snap := coord.MustParseModuleID("org.example:app").At("1.0-SNAPSHOT")
	got := MavenArtifactPath(coord.NewArtifact(snap, "", "jar"), "1.0-20240102.030405-3")
	if got != "org/example/app/1.0-SNAPSHOT/app-1.0-20240102.030405-3.jar" {
		t.Errorf("timestamped snapshot path = %q", got)
	}
	if ModuleMetadataPath(snap.ID) != "org/example/app/maven-metadata.xml" {
		t.Errorf("ModuleMetadataPath() = %q", ModuleMetadataPath(snap.ID))
	}
	if VersionMetadataPath(snap) != "org/example/app/1.0-SNAPSHOT/maven-metadata.xml" {
		t.Errorf("VersionMetadataPath() = %q", VersionMetadataPath(snap))
	}
}

func TestIvyPaths(t *testing.T) {
	t.Parallel()

	m := coord.MustParseModuleID("org.example:core").At("2.1")
	r := Ivy("https://ivy.example.com/repo")

	tests := []struct {
		name string
		art  coord.Artifact
		want string
	}{
		{"main artifact drops optional group", coord.NewArtifact(m, "", "jar"), "org.example/core/jars/core-2.1.jar"},
		{"classified artifact keeps optional group", coord.NewArtifact(m, "sources", "jar"), "org.example/core/sourcess/core-2.1-sources.jar"},
	}
	for _, tt := range tests {
		got := r.ArtifactPaths(tt.art, "")
		if !slices.Equal(got, []string{tt.want}) {
			t.Errorf("%s: ArtifactPaths() = %v, want %q", tt.name, got, tt.want)
		}
	}

	if got := r.DescriptorPaths(m, ""); !slices.Equal(got, []string{"org.example/core/ivy-2.1.xml"}) {
		t.Errorf("DescriptorPaths() = %v", got)
	}

	custom := r.WithArtifactPatterns(
		"[orgPath]/[module]/[revision]/[artifact]-[revision](-[classifier]).[ext]",
		"[organisation]/[module]/[revision]/[artifact].[ext]",
	)
	got := custom.ArtifactPaths(coord.NewArtifact(m, "", "zip"), "")
	want := []string{"org/example/core/2.1/core-2.1.zip", "org.example/core/2.1/core.zip"}
	if !slices.Equal(got, want) {
		t.Errorf("custom ArtifactPaths() = %v, want %v", got, want)
	}
	if r.Resolve("/a/b") != "https://ivy.example.com/repo/a/b" {
		t.Errorf("Resolve() = %q", r.Resolve("/a/b"))
	}
}

func TestMavenRepository_Paths(t *testing.T) {
	t.Parallel()

	m := coord.MustParseModuleID("org.example:core").At("2.1")
	r := Maven("https://repo.example.com/maven2/")
	if got := r.DescriptorPaths(m, ""); !slices.Equal(got, []string{"org/example/core/2.1/core-2.1.pom"}) {
		t.Errorf("DescriptorPaths() = %v", got)
	}
	if r.URL() != "https://repo.example.com/maven2" {
		t.Errorf("URL() = %q, want trailing slash trimmed", r.URL())
	}
}

func TestExpandPattern(t *testing.T) {
	t.Parallel()

	tokens := map[string]string{"module": "m", "revision": "1", "ext": "jar", "classifier": "", "type": "jar"}
	tests := []struct {
		pattern string
		want    string
	}{
		{"[module]-[revision](-[classifier]).[ext]", "m-1.jar"},
		{"[module](_[unknown])-[revision].[ext]", "m-1.jar"},
		{"[module]/([revision])/x", "m/1/x"},
		{"[module]-[revision", "m-[revision"},
	}
	for _, tt := range tests {
		if got := expandPattern(tt.pattern, tokens); got != tt.want {
			t.Errorf("expandPattern(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestValidatePattern(t *testing.T) {
	t.Parallel()

	valid := []string{DefaultIvyArtifactPattern, DefaultIvyMetadataPattern}
	for _, p := range valid {
		if err := validatePattern(p); err != nil {
			t.Errorf("validatePattern(%q) = %v", p, err)
		}
	}
	invalid := []string{"[module]/[revision", "[module]/((-[type]))[revision]", "[module])[revision]", "[module].jar"}
	for _, p := range invalid {
		if err := validatePattern(p); err == nil {
			t.Errorf("validatePattern(%q) = nil, want error", p)
		}
	}
}
