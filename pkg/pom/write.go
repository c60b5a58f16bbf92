// SPDX-License-Identifier: MPL-2.0

package pom

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"slices"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
)

// mavenScopeOrder lists Maven scopes from broadest to narrowest. When a
// module is declared in several scopes the broadest one is written.
var mavenScopeOrder = []string{scope.Compile, scope.Provided, scope.Runtime, scope.Test}

// Spec is the input of Write.
type Spec struct {
	Module      coord.VersionedModule
	Packaging   string
	Name        string
	Description string
	// Dependencies are written with the Maven scope derived from their
	// declared scopes or mapping. Project dependencies are skipped.
	Dependencies depset.Set
	// Scopes resolves custom scope names to their Maven ancestors. Nil
	// means scope.DefaultGraph().
	Scopes *scope.Graph
	// Versions, when not empty, becomes <dependencyManagement>.
	Versions depset.VersionProvider
	// Repositories, when not empty, becomes <repositories>. Ivy
	// repositories are skipped.
	Repositories repo.Set
}

// Write renders spec as a POM document.
func Write(spec Spec) ([]byte, error) {
	p, err := Build(spec)
	if err != nil {
		return nil, err
	}
	return p.Marshal()
}

// Build translates spec into a Project ready to marshal.
func Build(spec Spec) (*Project, error) {
	if err := spec.Module.Validate(); err != nil {
		return nil, err
	}
	g := spec.Scopes
	if g == nil {
		g = scope.DefaultGraph()
	}
	if err := spec.Dependencies.Validate(g); err != nil {
		return nil, err
	}

	p := &Project{
		Xmlns:        Namespace,
		ModelVersion: ModelVersion,
		GroupID:      spec.Module.ID.Group,
		ArtifactID:   spec.Module.ID.Name,
		Version:      spec.Module.Version.String(),
		Name:         spec.Name,
		Description:  spec.Description,
	}
	if spec.Packaging != "" && spec.Packaging != coord.DefaultExt {
		p.Packaging = spec.Packaging
	}

	if !spec.Versions.IsEmpty() {
		dm := &DependencyManagement{}
		for _, m := range spec.Versions.Modules() {
			dm.Dependencies = append(dm.Dependencies, Dependency{
				GroupID:    m.ID.Group,
				ArtifactID: m.ID.Name,
				Version:    m.Version.String(),
			})
		}
		p.DependencyManagement = dm
	}

	p.Dependencies = dependencies(g, spec.Dependencies)

	for i, r := range spec.Repositories.Repositories() {
		if r.IsIvy() {
			continue
		}
		p.Repositories = append(p.Repositories, repository(i, r))
	}
	return p, nil
}

// Marshal renders p with the XML header and two-space indentation.
func (p *Project) Marshal() ([]byte, error) {
	out, err := xml.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling pom: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// dependencies merges the entries of set that share a module, classifier and
// type into one <dependency> carrying the broadest Maven scope.
func dependencies(g *scope.Graph, set depset.Set) []Dependency {
	type key struct {
		module     coord.ModuleID
		classifier string
		ext        string
	}
	var (
		order []key
		byKey = make(map[key]*Dependency)
	)
	for _, e := range set.ModuleDependencies() {
		d := e.Dependency
		k := key{d.Module, d.Classifier, d.Ext}
		sc := e.Mapping.MavenScope(g, e.EffectiveScopes())

		existing, ok := byKey[k]
		if !ok {
			pd := &Dependency{
				GroupID:    d.Module.Group,
				ArtifactID: d.Module.Name,
				Version:    d.Version.String(),
				Classifier: d.Classifier,
				Scope:      sc,
				Exclusions: exclusions(d),
			}
			if d.Ext != "" && d.Ext != coord.DefaultExt {
				pd.Type = d.Ext
			}
			byKey[k] = pd
			order = append(order, k)
			continue
		}
		if slices.Index(mavenScopeOrder, sc) < slices.Index(mavenScopeOrder, existing.Scope) {
			existing.Scope = sc
		}
		for _, ex := range exclusions(d) {
			if !slices.Contains(existing.Exclusions, ex) {
				existing.Exclusions = append(existing.Exclusions, ex)
			}
		}
	}

	out := make([]Dependency, 0, len(order))
	for _, k := range order {
		d := *byKey[k]
		if d.Scope == scope.Compile {
			d.Scope = ""
		}
		out = append(out, d)
	}
	return out
}

func exclusions(d depset.Dependency) []Exclusion {
	if d.Intransitive {
		return []Exclusion{{GroupID: "*", ArtifactID: "*"}}
	}
	out := make([]Exclusion, 0, len(d.Exclusions))
	for _, ex := range d.Exclusions {
		out = append(out, Exclusion{GroupID: ex.Group, ArtifactID: ex.Name})
	}
	return out
}

func repository(index int, r repo.Repository) Repository {
	id := fmt.Sprintf("repo%d", index+1)
	if r.URL() == repo.MavenCentralURL {
		id = repo.MavenCentralIdentifier
	} else if u, err := url.Parse(r.URL()); err == nil && u.Host != "" {
		id = u.Host
	}
	out := Repository{ID: id, URL: repo.RedactURL(r.URL())}
	switch r.PublishPolicy() {
	case repo.PublishSnapshotsOnly:
		out.Releases = &RepoPolicy{Enabled: "false"}
	case repo.PublishReleasesOnly:
		out.Snapshots = &RepoPolicy{Enabled: "false"}
	}
	return out
}
