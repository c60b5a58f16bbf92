// SPDX-License-Identifier: MPL-2.0

package resolve_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/resolve"
	"github.com/kilnbuild/kiln/pkg/scope"
	"github.com/kilnbuild/kiln/pkg/types"
)

var (
	moduleM = coord.MustParseModuleID("org.example:m")
	moduleX = coord.MustParseModuleID("org.example:x")
)

func TestResolve_HighestVersionWins(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:m:1.0")
	f.module("org.example:m:2.0")
	f.module("org.example:b:1.0", "org.example:m:2.0")

	for _, order := range [][]string{
		{"org.example:m:1.0", "org.example:b:1.0"},
		{"org.example:b:1.0", "org.example:m:1.0"},
	} {
		res, err := resolve.New(f.mem, resolve.WithWorkers(2)).Resolve(context.Background(), resolve.Request{
			Scope:        scope.Compile,
			Dependencies: deps(order...),
			Repositories: repo.NewSet(f.r),
		})
		if err != nil {
			t.Fatalf("Resolve(%v) error = %v", order, err)
		}
		if v, _ := res.VersionOf(moduleM); v != "2.0" {
			t.Errorf("Resolve(%v) m = %q, want 2.0", order, v)
		}
		if len(res.Conflicts) != 1 || !slices.Equal(res.Conflicts[0].Displaced, []coord.Version{"1.0"}) || res.Conflicts[0].Pinned {
			t.Errorf("Resolve(%v) conflicts = %+v", order, res.Conflicts)
		}
	}
}

func TestResolve_PinOverridesRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:m:1.5")
	f.module("org.example:b:1.0", "org.example:m:2.0")

	res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope:        scope.Compile,
		Dependencies: deps("org.example:m:1.0", "org.example:b:1.0"),
		Versions:     depset.Pins(moduleM.At("1.5")),
		Repositories: repo.NewSet(f.r),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if v, _ := res.VersionOf(moduleM); v != "1.5" {
		t.Errorf("m = %q, want pinned 1.5", v)
	}
	if len(res.Conflicts) != 1 || !res.Conflicts[0].Pinned || !slices.Equal(res.Conflicts[0].Displaced, []coord.Version{"1.0", "2.0"}) {
		t.Errorf("conflicts = %+v", res.Conflicts)
	}
	if !res.IsComplete() {
		t.Errorf("unresolved = %v", res.Unresolved)
	}
}

func TestResolve_ExclusionIsPathScoped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:a:1.0", "org.example:x:1.0")
	f.module("org.example:x:1.0")

	excludingA := depset.MustParseModule("org.example:a:1.0").Excluding(moduleX)

	tests := []struct {
		name  string
		deps  depset.Set
		wantX bool
	}{
		{"excluded below a", depset.Set{}.And(excludingA, scope.Compile), false},
		{"independent direct path", depset.Set{}.And(excludingA, scope.Compile).And(depset.MustParseModule("org.example:x:1.0"), scope.Compile), true},
		{"no exclusion", deps("org.example:a:1.0"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
				Scope:        scope.Compile,
				Dependencies: tt.deps,
				Repositories: repo.NewSet(f.r),
			})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if _, got := res.Lookup(moduleX); got != tt.wantX {
				t.Errorf("x resolved = %v, want %v (modules %v)", got, tt.wantX, modules(res.ResolvedModules()))
			}
		})
	}
}

func TestResolve_GlobalExclusionSet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:a:1.0", "org.example:b:1.0")
	f.module("org.example:b:1.0", "org.example:x:1.0")
	f.module("org.example:x:1.0")

	res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope:        scope.Compile,
		Dependencies: deps("org.example:a:1.0"),
		Exclusions:   depset.ExclusionSet{}.On(coord.MustParseModuleID("org.example:b"), coord.NewModuleID("org.example", "*")),
		Repositories: repo.NewSet(f.r),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := modules(res.ResolvedModules()); !slices.Equal(got, []string{"org.example:a:1.0", "org.example:b:1.0"}) {
		t.Errorf("modules = %v, want x excluded below b", got)
	}
}

func TestResolve_ScopeSelection(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:lib:1.0")
	f.module("org.example:junit:1.0")
	f.module("org.example:it:1.0")
	f.module("org.example:servlet:1.0")

	g := scope.DefaultGraph()
	g.MustDefine("integration", nil, true, "")
	declared := depset.Set{}.
		And(depset.MustParseModule("org.example:lib:1.0"), scope.Compile).
		And(depset.MustParseModule("org.example:junit:1.0"), scope.Test).
		And(depset.MustParseModule("org.example:it:1.0"), "integration").
		And(depset.MustParseModule("org.example:servlet:1.0"), scope.Provided)

	tests := []struct {
		scope string
		want  []string
	}{
		{scope.Compile, []string{"org.example:lib:1.0"}},
		{scope.Runtime, []string{"org.example:lib:1.0"}},
		{scope.Test, []string{"org.example:junit:1.0", "org.example:lib:1.0", "org.example:servlet:1.0"}},
		{"integration", []string{"org.example:it:1.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			t.Parallel()

			res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
				Scope:        tt.scope,
				Scopes:       g,
				Dependencies: declared,
				Repositories: repo.NewSet(f.r),
			})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got := modules(res.ResolvedModules()); !slices.Equal(got, tt.want) {
				t.Errorf("modules = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve_PerModuleScopes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:lib:1.0", "org.example:x:1.0")
	f.module("org.example:junit:1.0", "org.example:x:1.0")
	f.module("org.example:x:1.0")

	res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope: scope.Test,
		Dependencies: depset.Set{}.
			And(depset.MustParseModule("org.example:lib:1.0"), scope.Compile).
			And(depset.MustParseModule("org.example:junit:1.0"), scope.Test),
		Repositories: repo.NewSet(f.r),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := res.ScopesOf(moduleX); !slices.Equal(got, []string{scope.Compile, scope.Test}) {
		t.Errorf("ScopesOf(x) = %v, want [compile test]", got)
	}
	if got := res.ScopesOf(coord.MustParseModuleID("org.example:lib")); !slices.Equal(got, []string{scope.Compile}) {
		t.Errorf("ScopesOf(lib) = %v, want [compile]", got)
	}
}

func TestResolve_FallsBackPastUnreachableRepository(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:m:1.0")
	down := repo.Maven("mem://down")
	f.mem.Fail("mem://down/", errors.New("connection refused"))

	res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope:        scope.Compile,
		Dependencies: deps("org.example:m:1.0"),
		Repositories: repo.NewSet(down, f.r),
		Strict:       true,
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	m, ok := res.Lookup(moduleM)
	if !ok || len(m.Artifacts) != 1 {
		t.Fatalf("m = %+v, %v", m, ok)
	}
	loc := m.Artifacts[0].Location
	if loc.Repository.URL() != f.r.URL() {
		t.Errorf("artifact served by %s, want %s", loc.Repository, f.r)
	}
	if len(loc.Trace) != 2 || loc.Trace[0].Repository != down.String() || !errors.Is(loc.Trace[0].Err, repo.ErrRepositoryUnreachable) {
		t.Errorf("trace = %v, want the unreachable repository first", loc.Trace)
	}
}

func TestResolve_Unresolved(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:a:1.0", "org.example:missing:1.0", "org.example:x:1.0")
	f.module("org.example:x:1.0")

	req := resolve.Request{
		Scope:        scope.Compile,
		Dependencies: deps("org.example:a:1.0", "org.example:gone:2.0"),
		Repositories: repo.NewSet(f.r),
	}

	res, err := resolve.Resolve(context.Background(), f.mem, req)
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil in lenient mode", err)
	}
	if got := modules(res.ResolvedModules()); !slices.Equal(got, []string{"org.example:a:1.0", "org.example:x:1.0"}) {
		t.Errorf("modules = %v", got)
	}
	if len(res.Unresolved) != 2 {
		t.Fatalf("unresolved = %v, want gone and missing", res.Unresolved)
	}
	for _, u := range res.Unresolved {
		if len(u.Trace) != 1 || !errors.Is(u.Err, repo.ErrArtifactNotFound) {
			t.Errorf("unresolved %s: trace %v err %v", u.Module, u.Trace, u.Err)
		}
	}

	req.Strict = true
	res, err = resolve.Resolve(context.Background(), f.mem, req)
	var resErr *resolve.DependencyResolutionError
	if !errors.As(err, &resErr) || !errors.Is(err, resolve.ErrDependencyResolution) {
		t.Fatalf("strict Resolve() error = %v, want DependencyResolutionError", err)
	}
	if len(resErr.Unresolved) != 2 {
		t.Errorf("error lists %d modules, want every failure", len(resErr.Unresolved))
	}
	if res == nil || len(res.Modules) != 2 {
		t.Errorf("strict result = %+v, want the complete traversal", res)
	}
}

func TestResolve_Range(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, v := range []string{"1.0", "1.5", "2.0"} {
		f.module("org.example:m:" + v)
	}
	f.versions("org.example:m", "1.0", "1.5", "2.0")

	tests := []struct {
		requirement string
		want        coord.Version
		unresolved  bool
	}{
		{"[1.0,2.0)", "1.5", false},
		{"1.+", "1.5", false},
		{"latest.release", "2.0", false},
		{"[3.0,)", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.requirement, func(t *testing.T) {
			t.Parallel()

			res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
				Scope:        scope.Compile,
				Dependencies: depset.Set{}.And(depset.Module(moduleM, coord.Version(tt.requirement)), scope.Compile),
				Repositories: repo.NewSet(f.r),
			})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			v, _ := res.VersionOf(moduleM)
			if v != tt.want {
				t.Errorf("m = %q, want %q", v, tt.want)
			}
			if got := len(res.Unresolved) > 0; got != tt.unresolved {
				t.Errorf("unresolved = %v", res.Unresolved)
			}
		})
	}
}

func TestResolve_DisplacedVersionEdgesDropped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:m:1.0", "org.example:old:1.0")
	f.module("org.example:m:2.0")
	f.module("org.example:old:1.0")
	f.module("org.example:b:1.0", "org.example:m:2.0")

	res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope:        scope.Compile,
		Dependencies: deps("org.example:m:1.0", "org.example:b:1.0"),
		Repositories: repo.NewSet(f.r),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := modules(res.ResolvedModules()); !slices.Equal(got, []string{"org.example:b:1.0", "org.example:m:2.0"}) {
		t.Errorf("modules = %v, want old dropped with m 1.0", got)
	}
}

func TestResolve_RequestsOfDisplacedVersionsDropped(t *testing.T) {
	t.Parallel()

	// a 1.0 asks for m 3.0, but a 2.0 (asked for by c) displaces it, so
	// nothing requests m 3.0 any more and the declared m 1.0 stands.
	f := newFixture(t)
	f.module("org.example:a:1.0", "org.example:m:3.0")
	f.module("org.example:a:2.0")
	f.module("org.example:c:1.0", "org.example:a:2.0")
	f.module("org.example:m:1.0")
	f.module("org.example:m:3.0")

	res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope:        scope.Compile,
		Dependencies: deps("org.example:a:1.0", "org.example:c:1.0", "org.example:m:1.0"),
		Repositories: repo.NewSet(f.r),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []string{"org.example:a:2.0", "org.example:c:1.0", "org.example:m:1.0"}
	if got := modules(res.ResolvedModules()); !slices.Equal(got, want) {
		t.Errorf("modules = %v, want %v", got, want)
	}
	for _, c := range res.Conflicts {
		if c.Module == moduleM {
			t.Errorf("conflict on m = %+v, want none", c)
		}
	}
}

func TestResolve_OscillatingChoicesTerminate(t *testing.T) {
	t.Parallel()

	// a 1.0 -> b 2.0 -> a 2.0, while a 2.0 and b 1.0 ask for nothing:
	// recomputing from each walk alone would cycle between choice sets.
	f := newFixture(t)
	f.module("org.example:a:1.0", "org.example:b:2.0")
	f.module("org.example:a:2.0")
	f.module("org.example:b:1.0")
	f.module("org.example:b:2.0", "org.example:a:2.0")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := resolve.Resolve(ctx, f.mem, resolve.Request{
		Scope:        scope.Compile,
		Dependencies: deps("org.example:a:1.0", "org.example:b:1.0"),
		Repositories: repo.NewSet(f.r),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []string{"org.example:a:2.0", "org.example:b:2.0"}
	if got := modules(res.ResolvedModules()); !slices.Equal(got, want) {
		t.Errorf("modules = %v, want %v", got, want)
	}
}

func TestResolve_TransitiveFiltering(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.moduleWith("org.example:a:1.0", depset.Set{}.
		And(depset.MustParseModule("org.example:rt:1.0"), scope.Runtime).
		And(depset.MustParseModule("org.example:tst:1.0"), scope.Test).
		And(depset.MustParseModule("org.example:prov:1.0"), scope.Provided))
	f.module("org.example:rt:1.0")
	f.module("org.example:shaded:1.0", "org.example:x:1.0")
	f.module("org.example:x:1.0")
	f.module("org.example:src:1.0", "org.example:x:1.0")

	declared := depset.Set{}.
		And(depset.MustParseModule("org.example:a:1.0"), scope.Compile).
		And(depset.MustParseModule("org.example:shaded:1.0").AsIntransitive(), scope.Compile).
		And(depset.MustParseModule("org.example:src:1.0"), scope.Sources)

	res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope:        scope.Compile,
		Dependencies: declared,
		Repositories: repo.NewSet(f.r),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := []string{"org.example:a:1.0", "org.example:rt:1.0", "org.example:shaded:1.0"}
	if got := modules(res.ResolvedModules()); !slices.Equal(got, want) {
		t.Errorf("compile modules = %v, want %v", got, want)
	}

	res, err = resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope:        scope.Sources,
		Dependencies: declared,
		Repositories: repo.NewSet(f.r),
	})
	if err != nil {
		t.Fatalf("Resolve(sources) error = %v", err)
	}
	if got := modules(res.ResolvedModules()); !slices.Equal(got, []string{"org.example:src:1.0"}) {
		t.Errorf("sources modules = %v, want src only (non-transitive scope)", got)
	}
}

func TestResolve_ClassifiedArtifacts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	m := f.module("org.example:m:1.0")
	f.jar(m, "sources")

	res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope: scope.Compile,
		Dependencies: depset.Set{}.
			And(depset.MustParseModule("org.example:m:1.0"), scope.Compile).
			And(depset.MustParseModule("org.example:m:1.0:sources"), scope.Compile, scope.Sources),
		Repositories: repo.NewSet(f.r),
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := res.URLs(); len(got) != 2 {
		t.Errorf("URLs() = %v, want jar and sources", got)
	}
}

func TestResolve_IvyRepository(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ivyRepo := repo.Ivy("mem://ivy")
	f.ivyModule(ivyRepo, "org.example:app:1.0", "org.example:core:2.0")
	f.ivyModule(ivyRepo, "org.example:core:2.0")

	res, err := resolve.Resolve(context.Background(), f.mem, resolve.Request{
		Scope:        scope.Compile,
		Dependencies: deps("org.example:app:1.0"),
		Repositories: repo.NewSet(f.r, ivyRepo),
		Strict:       true,
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := modules(res.ResolvedModules()); !slices.Equal(got, []string{"org.example:app:1.0", "org.example:core:2.0"}) {
		t.Errorf("modules = %v", got)
	}
	m, _ := res.Lookup(coord.MustParseModuleID("org.example:core"))
	if !m.Artifacts[0].Location.Repository.IsIvy() {
		t.Errorf("core served by %s, want the ivy repository", m.Artifacts[0].Location.Repository)
	}
}

func TestResolve_ConfigurationErrorsAbortBeforeNetwork(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tests := []struct {
		name string
		req  resolve.Request
		kind types.ConfigErrorKind
	}{
		{"unknown scope", resolve.Request{Scope: "nope", Dependencies: deps("org.example:m:1.0")}, types.UnknownScope},
		{"undeclared dependency scope", resolve.Request{Scope: scope.Compile, Dependencies: depset.Set{}.And(depset.MustParseModule("org.example:m:1.0"), "ghost")}, types.UnknownScope},
		{"range pin", resolve.Request{Scope: scope.Compile, Versions: depset.Pins(moduleM.At("[1,2)"))}, types.MalformedVersion},
	}
	for _, tt := range tests {
		tt.req.Repositories = repo.NewSet(f.r)
		_, err := resolve.Resolve(context.Background(), f.mem, tt.req)
		if !types.IsConfigurationKind(err, tt.kind) {
			t.Errorf("%s: error = %v, want %s", tt.name, err, tt.kind)
		}
	}
	if n := len(f.mem.Requests()); n != 0 {
		t.Errorf("%d requests issued before configuration errors were reported", n)
	}
}

func TestResolve_Cancellation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.module("org.example:m:1.0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := resolve.Resolve(ctx, f.mem, resolve.Request{
		Scope:        scope.Compile,
		Dependencies: deps("org.example:m:1.0"),
		Repositories: repo.NewSet(f.r),
	})
	if !errors.Is(err, context.Canceled) || res != nil {
		t.Errorf("Resolve() = %v, %v; want nil, context.Canceled", res, err)
	}
}

func TestResolve_WidePoolIsDeterministic(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var roots []string
	for i := range 20 {
		leaf := fmt.Sprintf("org.example:leaf%d:1.%d", i, i%3)
		f.module(leaf)
		mid := fmt.Sprintf("org.example:mid%d:1.0", i)
		f.module(mid, leaf, fmt.Sprintf("org.example:shared:1.%d", i))
		f.module(fmt.Sprintf("org.example:shared:1.%d", i))
		roots = append(roots, mid)
	}

	var first []string
	for _, workers := range []int{1, 8} {
		res, err := resolve.New(f.mem, resolve.WithWorkers(workers)).Resolve(context.Background(), resolve.Request{
			Scope:        scope.Compile,
			Dependencies: deps(roots...),
			Repositories: repo.NewSet(f.r),
			Strict:       true,
		})
		if err != nil {
			t.Fatalf("Resolve(workers=%d) error = %v", workers, err)
		}
		if v, _ := res.VersionOf(coord.MustParseModuleID("org.example:shared")); v != "1.19" {
			t.Errorf("shared = %q, want 1.19", v)
		}
		got := modules(res.ResolvedModules())
		if first == nil {
			first = got
		} else if !slices.Equal(first, got) {
			t.Errorf("workers=%d modules = %v, want %v", workers, got, first)
		}
	}
}
