// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"slices"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/ivy"
	"github.com/kilnbuild/kiln/pkg/pom"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
)

// followedPOMScopes are the Maven scopes whose dependencies are transitive.
// test and provided dependencies of a dependency are not inherited.
var followedPOMScopes = []string{scope.Compile, scope.Runtime}

// followedIvyConfs are the configurations of an Ivy module whose
// dependencies are followed.
var followedIvyConfs = []string{scope.Compile, scope.Runtime, ivy.DefaultConf, "master"}

// transitiveDependencies reads the descriptor of m from the repository that
// served its artifact. A missing or unreadable descriptor yields no
// dependencies; the module itself stays resolved.
func (r *Resolver) transitiveDependencies(ctx context.Context, loc repo.Location, m coord.VersionedModule) []depset.Dependency {
	data, err := loc.Repository.FetchDescriptor(ctx, r.transport, m, loc.FileVersion)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			r.logger.Debug("module has no descriptor", "module", m.String(), "repo", loc.Repository.String())
		} else if ctx.Err() == nil {
			r.logger.Warn("descriptor unavailable", "module", m.String(), "repo", loc.Repository.String(), "error", err)
		}
		return nil
	}
	if loc.Repository.IsIvy() {
		return r.ivyDependencies(m, data)
	}
	return r.pomDependencies(m, data)
}

func (r *Resolver) pomDependencies(m coord.VersionedModule, data []byte) []depset.Dependency {
	model, err := pom.Read(data)
	if err != nil {
		r.logger.Warn("pom partially unreadable", "module", m.String(), "error", err)
	}
	if model == nil {
		return nil
	}
	var out []depset.Dependency
	for _, e := range model.Dependencies.ModuleDependencies() {
		if !intersects(e.Scopes, followedPOMScopes) {
			continue
		}
		d := e.Dependency
		if managed := model.Exclusions.For(d.Module); len(managed) > 0 {
			d = d.Excluding(managed...)
		}
		out = appendDependency(out, d)
	}
	return out
}

func (r *Resolver) ivyDependencies(m coord.VersionedModule, data []byte) []depset.Dependency {
	desc, err := ivy.Read(data)
	if err != nil {
		r.logger.Warn("ivy descriptor unreadable", "module", m.String(), "error", err)
		return nil
	}
	var out []depset.Dependency
	for _, e := range desc.Dependencies.ModuleDependencies() {
		if e.IsUnscoped() || intersects(e.Scopes, followedIvyConfs) {
			out = appendDependency(out, e.Dependency)
		}
	}
	return out
}

// appendDependency skips a dependency already listed with the same module,
// version and artifact; a POM may list one module in compile and runtime.
func appendDependency(deps []depset.Dependency, d depset.Dependency) []depset.Dependency {
	for _, existing := range deps {
		if existing.Module == d.Module && existing.Version == d.Version &&
			existing.Classifier == d.Classifier && existing.Ext == d.Ext {
			return deps
		}
	}
	return append(deps, d)
}

func intersects(a, b []string) bool {
	return slices.ContainsFunc(a, func(s string) bool { return slices.Contains(b, s) })
}
