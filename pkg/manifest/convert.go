// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/fspath"
	"github.com/kilnbuild/kiln/pkg/publish"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
	"github.com/kilnbuild/kiln/pkg/types"
)

func (l *loader) convert(f *File) (*Manifest, error) {
	module, err := coord.ParseVersionedModule(f.Module)
	if err != nil {
		return nil, err
	}
	m := &Manifest{
		Module:      module,
		Description: types.DescriptionText(f.Description),
		Packaging:   f.Packaging,
		Scopes:      scope.DefaultGraph(),
		Dir:         l.dir,
	}

	var errs []error
	for _, s := range f.Scopes {
		if _, err := m.Scopes.Define(s.Name, s.Extends, s.Transitive, s.Description); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.Description.Validate(); err != nil {
		errs = append(errs, err)
	}

	for i, d := range f.Dependencies {
		set, err := dependency(m.Dependencies, d)
		if err != nil {
			errs = append(errs, fmt.Errorf("dependencies[%d]: %w", i, err))
			continue
		}
		m.Dependencies = set
	}
	errs = append(errs, m.Dependencies.Validate(m.Scopes))

	var pins []coord.VersionedModule
	for _, p := range f.Pins {
		vm, err := coord.ParseVersionedModule(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pins = append(pins, vm)
	}
	m.Versions = depset.Pins(pins...)

	for _, e := range f.Exclusions {
		key, err := coord.ParseModuleID(e.Module)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids, err := moduleIDs(e.Excludes)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m.Exclusions = m.Exclusions.On(key, ids...)
	}

	m.Repositories, err = l.repositories(f.Repositories)
	errs = append(errs, err)

	if f.Publish != nil {
		m.Publication, err = l.publication(f.Publish)
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func dependency(set depset.Set, d DependencyDecl) (depset.Set, error) {
	var dep depset.Dependency
	switch {
	case d.Module != "" && d.Project != "":
		return set, fmt.Errorf("%w: module and project are exclusive", ErrInvalidDependency)
	case d.Project != "":
		dep = depset.Project(depset.ProjectRef(d.Project))
	case d.Module != "":
		var err error
		if dep, err = depset.ParseModule(d.Module); err != nil {
			return set, err
		}
		ids, err := moduleIDs(d.Excludes)
		if err != nil {
			return set, err
		}
		dep = dep.Excluding(ids...)
		if !d.Transitive {
			dep = dep.AsIntransitive()
		}
	default:
		return set, fmt.Errorf("%w: one of module or project is required", ErrInvalidDependency)
	}

	if d.Mapping == "" {
		return set.And(dep, d.Scopes...), nil
	}
	if len(d.Scopes) > 0 {
		return set, fmt.Errorf("%w: scopes and mapping are exclusive", ErrInvalidDependency)
	}
	mapping, err := scope.ParseMapping(d.Mapping)
	if err != nil {
		return set, err
	}
	return set.AndMapped(dep, mapping), nil
}

func moduleIDs(notations []string) ([]coord.ModuleID, error) {
	ids := make([]coord.ModuleID, 0, len(notations))
	for _, n := range notations {
		id, err := coord.ParseModuleID(n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (l *loader) repositories(decls []RepositoryDecl) (repo.Set, error) {
	var (
		repos []repo.Repository
		errs  []error
	)
	for _, d := range decls {
		r, err := d.Repository(l.lookupEnv)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		repos = append(repos, r)
	}
	return repo.NewSet(repos...), errors.Join(errs...)
}

// Repository converts d. The password is read from the environment
// variable d.PasswordEnv through lookupEnv.
func (d RepositoryDecl) Repository(lookupEnv func(string) (string, bool)) (repo.Repository, error) {
	r, err := repo.Parse(d.URL)
	if err != nil {
		return repo.Repository{}, err
	}
	if d.Kind == "ivy" && !r.IsIvy() {
		r = repo.Ivy(r.URL())
	}
	if len(d.ArtifactPatterns) > 0 {
		r = r.WithArtifactPatterns(d.ArtifactPatterns...)
	}
	if len(d.IvyPatterns) > 0 {
		r = r.WithIvyPatterns(d.IvyPatterns...)
	}
	if d.Username != "" {
		var password string
		if d.PasswordEnv != "" {
			var ok bool
			if password, ok = lookupEnv(d.PasswordEnv); !ok {
				return repo.Repository{}, types.NewConfigurationError(types.MalformedRepository, d.URL,
					"password variable %s is not set", d.PasswordEnv)
			}
		}
		r = r.WithCredentials(d.Username, password)
		if d.Realm != "" {
			r = r.WithRealm(d.Realm)
		}
	}
	switch d.Accepts {
	case "snapshots":
		r = r.WithPublishPolicy(repo.PublishSnapshotsOnly)
	case "releases":
		r = r.WithPublishPolicy(repo.PublishReleasesOnly)
	}
	return r, r.Validate()
}

func (l *loader) publication(d *PublishDecl) (*Publication, error) {
	p := &Publication{}
	var errs []error
	for _, a := range d.Artifacts {
		file := fspath.Resolve(l.dir, a.File)
		ext := a.Ext
		if ext == "" {
			ext = file.Ext()
		}
		p.Artifacts = append(p.Artifacts, publish.Artifact{Classifier: a.Classifier, Ext: ext, File: file, Scopes: a.Scopes})
	}
	if d.Mapping != "" {
		mapping, err := scope.ParseMapping(d.Mapping)
		errs = append(errs, err)
		p.Mapping = mapping
	}
	var err error
	p.Repositories, err = l.repositories(d.Repositories)
	errs = append(errs, err)
	return p, errors.Join(errs...)
}
