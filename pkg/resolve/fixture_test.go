// SPDX-License-Identifier: MPL-2.0

package resolve_test

import (
	"testing"
	"time"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/ivy"
	"github.com/kilnbuild/kiln/pkg/pom"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
	"github.com/kilnbuild/kiln/pkg/transport"
)

// fixture stages modules into an in-memory repository.
type fixture struct {
	t   *testing.T
	mem *transport.Memory
	r   repo.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, mem: transport.NewMemory(), r: repo.Maven("mem://central")}
}

// module stages a jar and a POM for notation ("group:name:version") with
// compile dependencies on deps.
func (f *fixture) module(notation string, deps ...string) coord.VersionedModule {
	f.t.Helper()
	set := depset.Set{}
	for _, d := range deps {
		set = set.And(depset.MustParseModule(d), scope.Compile)
	}
	return f.moduleWith(notation, set)
}

func (f *fixture) moduleWith(notation string, deps depset.Set) coord.VersionedModule {
	f.t.Helper()
	m, err := coord.ParseVersionedModule(notation)
	if err != nil {
		f.t.Fatalf("ParseVersionedModule(%q) error = %v", notation, err)
	}
	f.jar(m, "")
	data, err := pom.Write(pom.Spec{Module: m, Dependencies: deps})
	if err != nil {
		f.t.Fatalf("pom.Write(%s) error = %v", m, err)
	}
	f.mem.Store(f.r.Resolve(repo.MavenArtifactPath(coord.NewArtifact(m, "", "pom"), "")), data)
	return m
}

func (f *fixture) jar(m coord.VersionedModule, classifier string) {
	f.mem.Store(f.r.Resolve(repo.MavenArtifactPath(coord.NewArtifact(m, classifier, "jar"), "")), []byte("jar"))
}

// versions stages the module-level maven-metadata.xml of id.
func (f *fixture) versions(id string, versions ...coord.Version) {
	f.t.Helper()
	mid := coord.MustParseModuleID(id)
	md := repo.NewModuleMetadata(mid)
	for _, v := range versions {
		md.AddVersion(v, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	data, err := md.Marshal()
	if err != nil {
		f.t.Fatalf("Marshal() error = %v", err)
	}
	f.mem.Store(f.r.Resolve(repo.ModuleMetadataPath(mid)), data)
}

// ivyModule stages an Ivy module with compile dependencies into r.
func (f *fixture) ivyModule(r repo.Repository, notation string, deps ...string) {
	f.t.Helper()
	m, err := coord.ParseVersionedModule(notation)
	if err != nil {
		f.t.Fatalf("ParseVersionedModule(%q) error = %v", notation, err)
	}
	set := depset.Set{}
	for _, d := range deps {
		set = set.And(depset.MustParseModule(d), scope.Compile)
	}
	data, err := ivy.Write(ivy.Spec{Module: m, Dependencies: set, Publications: []ivy.Publication{{}}})
	if err != nil {
		f.t.Fatalf("ivy.Write(%s) error = %v", m, err)
	}
	f.mem.Store(r.Resolve(r.DescriptorPaths(m, "")[0]), data)
	f.mem.Store(r.Resolve(r.ArtifactPaths(coord.NewArtifact(m, "", "jar"), "")[0]), []byte("jar"))
}

func deps(notations ...string) depset.Set {
	set := depset.Set{}
	for _, n := range notations {
		set = set.And(depset.MustParseModule(n), scope.Compile)
	}
	return set
}

func modules(vs []coord.VersionedModule) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.String())
	}
	return out
}
