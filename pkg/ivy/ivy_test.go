// SPDX-License-Identifier: MPL-2.0

package ivy_test

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/ivy"
	"github.com/kilnbuild/kiln/pkg/scope"
	"github.com/kilnbuild/kiln/pkg/types"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	deps := depset.Set{}.
		And(depset.MustParseModule("org.slf4j:slf4j-api:2.0.9"), scope.Compile).
		And(depset.MustParseModule("junit:junit:4.13.2"), scope.Test).
		And(depset.MustParseModule("org.example:native:1.0:linux@so").AsIntransitive(), scope.Runtime).
		And(depset.MustParseModule("com.google.guava:guava:31.1-jre").Excluding(coord.NewModuleID("com.google.code.findbugs", "jsr305"))).
		AndMapped(depset.MustParseModule("org.example:api:1.0"), scope.MapTo(scope.Compile, "runtime", "master")).
		And(depset.Project("../sibling"), scope.Compile)

	published := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	out, err := ivy.Write(ivy.Spec{
		Module:    coord.NewModuleID("org.example", "app").At("1.0-SNAPSHOT"),
		Published: published,
		Publications: []ivy.Publication{
			{Scopes: []string{scope.Compile}},
			{Classifier: "sources", Scopes: []string{scope.Sources}},
		},
		Dependencies: deps,
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if strings.Contains(string(out), "sibling") {
		t.Errorf("project dependency written:\n%s", out)
	}

	m, err := ivy.Parse(out)
	if err != nil {
		t.Fatalf("Parse(Write()) error = %v", err)
	}
	if m.Info.Status != ivy.StatusIntegration {
		t.Errorf("status = %q, want integration for a snapshot", m.Info.Status)
	}
	if m.Info.Publication != "20260304050607" {
		t.Errorf("publication = %q", m.Info.Publication)
	}

	var confs []string
	extends := make(map[string]string)
	for _, c := range m.Configurations {
		confs = append(confs, c.Name)
		extends[c.Name] = c.Extends
	}
	want := []string{scope.Compile, scope.Provided, scope.Runtime, scope.Test, scope.Sources, scope.Javadoc, ivy.DefaultConf}
	if !slices.Equal(confs, want) {
		t.Errorf("configurations = %v, want %v", confs, want)
	}
	if extends[scope.Test] != "runtime,provided" || extends[ivy.DefaultConf] != scope.Runtime {
		t.Errorf("extends = %v", extends)
	}

	if len(m.Publications) != 2 {
		t.Fatalf("publications = %+v", m.Publications)
	}
	if p := m.Publications[1]; p.Classifier != "sources" || p.Type != "sources" || p.Ext != "jar" || p.Conf != scope.Sources {
		t.Errorf("sources publication = %+v", p)
	}

	conf := make(map[string]ivy.Dependency)
	for _, d := range m.Dependencies {
		conf[d.Org+":"+d.Name] = d
	}
	tests := map[string]string{
		"org.slf4j:slf4j-api":    "compile->default",
		"junit:junit":            "test->default",
		"org.example:native":     "runtime->default",
		"com.google.guava:guava": "*->default",
		"org.example:api":        "compile->runtime,master",
	}
	for module, wantConf := range tests {
		if got := conf[module].Conf; got != wantConf {
			t.Errorf("%s conf = %q, want %q", module, got, wantConf)
		}
	}
	native := conf["org.example:native"]
	if native.Transitive != "false" || len(native.Artifacts) != 1 || native.Artifacts[0].Classifier != "linux" || native.Artifacts[0].Ext != "so" {
		t.Errorf("native dependency = %+v", native)
	}
	if ex := conf["com.google.guava:guava"].Excludes; len(ex) != 1 || ex[0].Module != "jsr305" {
		t.Errorf("guava excludes = %+v", ex)
	}
}

func TestWrite_CustomDefaultConf(t *testing.T) {
	t.Parallel()

	g := scope.NewGraph()
	g.MustDefine(ivy.DefaultConf, nil, true, "")
	m, err := ivy.Build(ivy.Spec{Module: coord.NewModuleID("g", "n").At("1.0"), Scopes: g})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(m.Configurations) != 1 {
		t.Errorf("configurations = %+v, want only the defined default", m.Configurations)
	}
	if m.Info.Status != ivy.StatusRelease {
		t.Errorf("status = %q, want release", m.Info.Status)
	}
}

const sampleIvy = `<?xml version="1.0" encoding="UTF-8"?>
<ivy-module version="2.0" xmlns:e="http://ant.apache.org/ivy/extra">
  <info organisation="org.example" module="core" revision="2.1" status="release"/>
  <configurations>
    <conf name="compile"/>
    <conf name="runtime" extends="compile"/>
    <conf name="test" extends="runtime" visibility="private"/>
  </configurations>
  <dependencies>
    <dependency org="org.slf4j" name="slf4j-api" rev="2.0.9" conf="compile->default"/>
    <dependency org="junit" name="junit" rev="4.13.2" conf="test->runtime(*),master(*)"/>
    <dependency org="org.example" name="native" rev="1.+" conf="compile,runtime->default" transitive="false">
      <artifact name="native" type="linux" ext="so" e:classifier="linux"/>
      <exclude org="org.bad" module="*"/>
    </dependency>
    <dependency org="org.example" name="shaded" rev="1.0">
      <exclude org="*" module="*"/>
    </dependency>
  </dependencies>
</ivy-module>
`

func TestRead(t *testing.T) {
	t.Parallel()

	d, err := ivy.Read([]byte(sampleIvy))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if d.Module.String() != "org.example:core:2.1" || len(d.Configurations) != 3 {
		t.Errorf("module = %s, configurations = %d", d.Module, len(d.Configurations))
	}

	byModule := make(map[string]depset.ScopedDependency)
	for _, e := range d.Dependencies.Entries() {
		byModule[e.Dependency.Module.String()] = e
	}
	tests := []struct {
		module string
		scopes []string
	}{
		{"org.slf4j:slf4j-api", []string{scope.Compile}},
		{"junit:junit", []string{scope.Test}},
		{"org.example:native", []string{scope.Compile, scope.Runtime}},
		{"org.example:shaded", nil},
	}
	for _, tt := range tests {
		e, ok := byModule[tt.module]
		if !ok {
			t.Errorf("%s missing", tt.module)
			continue
		}
		if !slices.Equal(e.Scopes, tt.scopes) {
			t.Errorf("%s scopes = %v, want %v", tt.module, e.Scopes, tt.scopes)
		}
	}

	native := byModule["org.example:native"].Dependency
	if !native.Intransitive || native.Classifier != "linux" || native.Ext != "so" || native.Version != "1.+" {
		t.Errorf("native = %+v", native)
	}
	if !slices.Equal(native.Exclusions, []coord.ModuleID{coord.NewModuleID("org.bad", "*")}) {
		t.Errorf("native exclusions = %v", native.Exclusions)
	}
	if !byModule["org.example:shaded"].Dependency.Intransitive {
		t.Error("wildcard exclude did not mark shaded intransitive")
	}
}

func TestRead_Invalid(t *testing.T) {
	t.Parallel()

	doc := `<ivy-module version="2.0"><info organisation="g" module="n" revision="1"/>
<dependencies><dependency org="" name="x" rev="1"/></dependencies></ivy-module>`
	if _, err := ivy.Read([]byte(doc)); !types.IsConfigurationKind(err, types.MalformedCoordinate) {
		t.Errorf("Read() error = %v, want MalformedCoordinate", err)
	}
	if _, err := ivy.Read([]byte("<ivy-module")); err == nil {
		t.Error("Read() error = nil for truncated document")
	}
}
