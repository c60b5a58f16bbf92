// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/pom"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
)

// MavenDir builds a Maven repository layout under a directory, for tests
// that resolve through file: URLs.
type MavenDir struct {
	t   testing.TB
	Dir string
}

// NewMavenDir returns a builder writing under dir.
func NewMavenDir(t testing.TB, dir string) *MavenDir {
	t.Helper()
	MustMkdirAll(t, dir)
	return &MavenDir{t: t, Dir: dir}
}

// Repository returns the file: repository rooted at the directory.
func (m *MavenDir) Repository() repo.Repository {
	m.t.Helper()
	r, err := repo.Parse(m.Dir)
	if err != nil {
		m.t.Fatalf("repo.Parse(%s): %v", m.Dir, err)
	}
	return r
}

// Add writes a jar and a POM for module, with deps as its compile
// dependencies, and lists the version in maven-metadata.xml.
func (m *MavenDir) Add(module string, deps ...string) *MavenDir {
	m.t.Helper()
	vm, err := coord.ParseVersionedModule(module)
	if err != nil {
		m.t.Fatalf("ParseVersionedModule(%s): %v", module, err)
	}
	var set depset.Set
	for _, d := range deps {
		dep, err := depset.ParseModule(d)
		if err != nil {
			m.t.Fatalf("ParseModule(%s): %v", d, err)
		}
		set = set.And(dep, scope.Compile)
	}
	data, err := pom.Write(pom.Spec{Module: vm, Dependencies: set})
	if err != nil {
		m.t.Fatalf("pom.Write(%s): %v", module, err)
	}
	m.write(repo.MavenArtifactPath(coord.NewArtifact(vm, "", "pom"), ""), data)
	m.write(repo.MavenArtifactPath(coord.NewArtifact(vm, "", "jar"), ""), []byte(module))

	mdPath := repo.ModuleMetadataPath(vm.ID)
	md := repo.NewModuleMetadata(vm.ID)
	if existing, err := os.ReadFile(filepath.Join(m.Dir, filepath.FromSlash(mdPath))); err == nil {
		if md, err = repo.ParseMetadata(existing); err != nil {
			m.t.Fatalf("ParseMetadata(%s): %v", mdPath, err)
		}
	}
	md.AddVersion(vm.Version, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	out, err := md.Marshal()
	if err != nil {
		m.t.Fatalf("Marshal(%s): %v", mdPath, err)
	}
	m.write(mdPath, out)
	return m
}

func (m *MavenDir) write(path string, data []byte) {
	m.t.Helper()
	MustWriteFile(m.t, filepath.Join(m.Dir, filepath.FromSlash(path)), data)
}

// MustMkdirAll creates path and its parents or fails the test.
func MustMkdirAll(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustWriteFile writes data to path, creating parent directories, or fails
// the test.
func MustWriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
