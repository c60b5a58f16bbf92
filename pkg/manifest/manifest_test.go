// SPDX-License-Identifier: MPL-2.0

package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/cueutil"
	"github.com/kilnbuild/kiln/pkg/manifest"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
	"github.com/kilnbuild/kiln/pkg/types"
)

const sample = `
module:      "org.example:app:1.2.0"
description: "Example application"

scopes: [
	{name: "integration", extends: ["test"]},
	{name: "dist", transitive: false},
]

dependencies: [
	{module: "org.slf4j:slf4j-api:2.0.9", scopes: ["compile"]},
	{module: "com.google.guava:guava:[32.0,33.0)", excludes: ["com.google.code.findbugs:jsr305"]},
	{module: "junit:junit:4.13.2", scopes: ["test"], transitive: false},
	{module: "org.testcontainers:testcontainers:1.19.0", mapping: "integration->compile"},
	{project: "../core", scopes: ["compile"]},
]

pins: ["org.slf4j:slf4j-api:2.0.12"]

exclusions: [
	{module: "org.apache.httpcomponents:httpclient", excludes: ["commons-logging:commons-logging"]},
]

repositories: [
	{url: "https://repo.example/maven2"},
	{url: "https://ivy.example/repo", kind: "ivy", artifact_patterns: ["[organisation]/[module]/[revision]/[artifact].[ext]"]},
	{url: "https://private.example/repo", username: "deploy", password_env: "KILN_TEST_PASSWORD", realm: "Private", accepts: "releases"},
]

publish: {
	artifacts: [
		{file: "build/app.jar"},
		{file: "build/app-sources.jar", classifier: "sources"},
	]
	mapping: "compile->compile;test->test"
}
`

func lookup(name string) (string, bool) {
	if name == "KILN_TEST_PASSWORD" {
		return "s3cret", true
	}
	return "", false
}

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := manifest.Parse([]byte(sample), "kiln.cue", manifest.WithLookupEnv(lookup), manifest.WithDir("/work"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if m.Module.String() != "org.example:app:1.2.0" || m.Description != "Example application" {
		t.Errorf("module = %s %q", m.Module, m.Description)
	}
	if !m.Scopes.IsExtending("integration", scope.Test) {
		t.Error("integration does not extend test")
	}
	if s, ok := m.Scopes.Lookup("dist"); !ok || s.Transitive {
		t.Errorf("dist scope = %+v, %v", s, ok)
	}

	entries := m.Dependencies.Entries()
	if len(entries) != 5 {
		t.Fatalf("got %d dependencies, want 5", len(entries))
	}
	if guava := entries[1]; len(guava.Dependency.Exclusions) != 1 || !guava.IsUnscoped() {
		t.Errorf("guava = %+v", guava)
	}
	if !entries[2].Dependency.Intransitive {
		t.Error("junit is not intransitive")
	}
	if got := entries[3].Mapping.String(); got != "integration->compile" {
		t.Errorf("testcontainers mapping = %q", got)
	}
	if !entries[4].Dependency.IsProject() {
		t.Error("../core is not a project dependency")
	}

	if v, ok := m.Versions.VersionOf(coord.MustParseModuleID("org.slf4j:slf4j-api")); !ok || v != "2.0.12" {
		t.Errorf("pin = %q, %v", v, ok)
	}
	if got := m.Exclusions.For(coord.MustParseModuleID("org.apache.httpcomponents:httpclient")); len(got) != 1 {
		t.Errorf("exclusions = %v", got)
	}

	repos := m.Repositories.Repositories()
	if len(repos) != 3 {
		t.Fatalf("got %d repositories", len(repos))
	}
	if repos[0].IsIvy() || !repos[1].IsIvy() {
		t.Errorf("kinds = %s, %s", repos[0].Kind().Name(), repos[1].Kind().Name())
	}
	creds := repos[2].Credentials()
	if creds.Username != "deploy" || creds.Password != "s3cret" || creds.Realm != "Private" {
		t.Errorf("credentials = %+v", creds)
	}
	if repos[2].PublishPolicy() != repo.PublishReleasesOnly {
		t.Errorf("policy = %v", repos[2].PublishPolicy())
	}

	if m.Publication == nil || len(m.Publication.Artifacts) != 2 {
		t.Fatalf("publication = %+v", m.Publication)
	}
	a := m.Publication.Artifacts[1]
	if a.File != types.FilesystemPath(filepath.Join("/work", "build/app-sources.jar")) || a.Ext != "jar" || a.Classifier != "sources" {
		t.Errorf("sources artifact = %+v", a)
	}
	if m.PublishRepositories().Len() != 3 {
		t.Error("publish repositories do not fall back to the manifest's")
	}
}

func TestManifest_Request(t *testing.T) {
	t.Parallel()

	m, err := manifest.Parse([]byte(sample), "kiln.cue", manifest.WithLookupEnv(lookup))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	req := m.Request("integration", true)
	if err := req.Validate(); err != nil {
		t.Errorf("Request().Validate() error = %v", err)
	}
	if req.Scope != "integration" || !req.Strict || req.Repositories.Len() != 3 {
		t.Errorf("Request() = %+v", req)
	}
}

func TestManifest_Descriptor(t *testing.T) {
	t.Parallel()

	m, err := manifest.Parse([]byte(sample), "kiln.cue", manifest.WithLookupEnv(lookup))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	d, err := m.Descriptor()
	if err != nil {
		t.Fatalf("Descriptor() error = %v", err)
	}
	if d.Module != m.Module || d.Scopes != m.Scopes || d.Description != "Example application" || len(d.Artifacts) != 2 {
		t.Errorf("Descriptor() = %+v", d)
	}

	noPublish, err := manifest.Parse([]byte(`module: "g:a:1"`), "kiln.cue")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := noPublish.Descriptor(); err == nil {
		t.Error("Descriptor() without a publish section succeeded")
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   string
		schema bool
		kind   types.ConfigErrorKind
		is     error
	}{
		{name: "missing module", data: `description: "x"`, schema: true},
		{name: "bad coordinate", data: `module: "g:a"`, schema: true},
		{name: "unknown field", data: `module: "g:a:1", name: "x"`, schema: true},
		{name: "bad kind", data: `module: "g:a:1", repositories: [{url: "https://r", kind: "p2"}]`, schema: true},
		{name: "empty publish", data: `module: "g:a:1", publish: {artifacts: []}`, schema: true},
		{name: "undefined parent", data: `module: "g:a:1", scopes: [{name: "a", extends: ["b"]}]`, kind: types.UnknownScope},
		{name: "cyclic scope", data: `module: "g:a:1", scopes: [{name: "a"}, {name: "b", extends: ["a"]}, {name: "a", extends: ["b"]}]`, kind: types.CyclicScope},
		{name: "illegal scope", data: `module: "g:a:1", scopes: [{name: "a->b"}]`, kind: types.IllegalScopeName},
		{name: "unknown scope", data: `module: "g:a:1", dependencies: [{module: "x:y:1", scopes: ["nope"]}]`, kind: types.UnknownScope},
		{name: "bad version", data: `module: "g:a:1", dependencies: [{module: "x:y:[1,"}]`, kind: types.MalformedVersion},
		{name: "bad repository", data: `module: "g:a:1", repositories: [{url: "gopher://r"}]`, kind: types.MalformedRepository},
		{name: "missing password", data: `module: "g:a:1", repositories: [{url: "https://r", username: "u", password_env: "KILN_UNSET"}]`, kind: types.MalformedRepository},
		{name: "module and project", data: `module: "g:a:1", dependencies: [{module: "x:y:1", project: "p"}]`, is: manifest.ErrInvalidDependency},
		{name: "neither module nor project", data: `module: "g:a:1", dependencies: [{scopes: ["compile"]}]`, is: manifest.ErrInvalidDependency},
		{name: "scopes and mapping", data: `module: "g:a:1", dependencies: [{module: "x:y:1", scopes: ["test"], mapping: "test->compile"}]`, is: manifest.ErrInvalidDependency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := manifest.Parse([]byte(tt.data), "kiln.cue", manifest.WithLookupEnv(lookup))
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			var verr *cueutil.ValidationError
			if tt.schema && !errors.As(err, &verr) {
				t.Errorf("Parse() error = %v, want a schema violation", err)
			}
			if tt.kind != "" && !types.IsConfigurationKind(err, tt.kind) {
				t.Errorf("Parse() error = %v, want %s", err, tt.kind)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Parse() error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := manifest.Load(dir); !errors.Is(err, manifest.ErrManifestNotFound) {
		t.Errorf("Load(empty dir) error = %v, want ErrManifestNotFound", err)
	}

	data := `module: "g:a:1"
publish: artifacts: [{file: "out/a.zip"}]
`
	if err := os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := manifest.Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Dir != dir {
		t.Errorf("Dir = %q, want %q", m.Dir, dir)
	}
	got := m.Publication.Artifacts[0]
	if got.File != types.FilesystemPath(filepath.Join(dir, "out", "a.zip")) || got.Ext != "zip" {
		t.Errorf("artifact = %+v", got)
	}
	if !slices.Equal(m.Scopes.Names(), scope.DefaultGraph().Names()) {
		t.Errorf("scopes = %v", m.Scopes.Names())
	}
}
