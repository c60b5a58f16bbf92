// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kilnbuild/kiln/pkg/manifest"
	"github.com/kilnbuild/kiln/pkg/publish"
	"github.com/kilnbuild/kiln/pkg/types"
)

func TestArtifactPatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := &manifest.Manifest{
		Dir: dir,
		Publication: &manifest.Publication{
			Artifacts: []publish.Artifact{
				{Ext: "jar", File: types.FilesystemPath(filepath.Join(dir, "build", "lib.jar"))},
				{Classifier: "sources", Ext: "jar", File: types.FilesystemPath(filepath.Join(dir, "build", "lib-sources.jar"))},
				{Ext: "txt", Content: []byte("inline")},
			},
		},
	}

	got, err := artifactPatterns(m)
	if err != nil {
		t.Fatalf("artifactPatterns() error = %v", err)
	}
	want := []string{"build/lib.jar", "build/lib-sources.jar"}
	if !slices.Equal(got, want) {
		t.Errorf("artifactPatterns() = %v, want %v", got, want)
	}

	if _, err := artifactPatterns(&manifest.Manifest{Dir: dir}); err == nil {
		t.Error("artifactPatterns() without a publish section succeeded")
	}
}

func TestProjectDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "custom.cue")
	if err := os.WriteFile(file, []byte("module: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		project      string
		wantDir      string
		wantPatterns []string
	}{
		{"directory", dir, dir, []string{manifest.FileName}},
		{"manifest file", file, dir, []string{"custom.cue"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := &App{flags: rootFlags{project: tt.project}}
			if got := app.projectDir(); got != tt.wantDir {
				t.Errorf("projectDir() = %q, want %q", got, tt.wantDir)
			}
			if got := app.manifestPatterns(); !slices.Equal(got, tt.wantPatterns) {
				t.Errorf("manifestPatterns() = %v, want %v", got, tt.wantPatterns)
			}
		})
	}
}
