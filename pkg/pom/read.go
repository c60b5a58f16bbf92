// SPDX-License-Identifier: MPL-2.0

package pom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
	"github.com/kilnbuild/kiln/pkg/types"
)

// Maven scopes without a kiln counterpart.
const (
	scopeSystem = "system"
	scopeImport = "import"
)

// maxInterpolationDepth bounds nested ${...} expansion.
const maxInterpolationDepth = 8

// Model is the dependency-management content of a POM, translated into kiln
// values.
type Model struct {
	Module      coord.VersionedModule
	Packaging   string
	Description string
	// Dependencies holds the non-optional dependencies, each declared in the
	// scope named by its Maven scope (compile when absent, provided for
	// system).
	Dependencies depset.Set
	// Optional holds the dependencies flagged <optional>true</optional>.
	Optional depset.Set
	// Versions pins the modules listed in <dependencyManagement>.
	Versions depset.VersionProvider
	// Exclusions carries the exclusions of managed dependencies.
	Exclusions   depset.ExclusionSet
	Repositories repo.Set
}

// Parse decodes a POM document without interpreting it.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing pom: %w", err)
	}
	return &p, nil
}

// Read decodes a POM document and translates it into a Model. See
// Project.Model for partial results.
func Read(data []byte) (*Model, error) {
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return p.Model()
}

// Model translates p. Dependencies and repositories that cannot be
// translated are skipped and reported together in the returned error,
// alongside the partial model. A malformed project coordinate returns a nil
// model.
func (p *Project) Model() (*Model, error) {
	props := p.properties()
	module, err := p.module(props)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Module:      module,
		Packaging:   orDefault(p.Packaging, "jar"),
		Description: strings.TrimSpace(p.Description),
	}

	managed := make(map[coord.ModuleID]Dependency)
	if p.DependencyManagement != nil {
		for _, d := range p.DependencyManagement.Dependencies {
			id := coord.NewModuleID(interpolate(d.GroupID, props), interpolate(d.ArtifactID, props))
			if interpolate(d.Scope, props) == scopeImport {
				continue
			}
			if err := id.Validate(); err != nil {
				return nil, err
			}
			managed[id] = d
			if v := interpolate(d.Version, props); v != "" {
				m.Versions = m.Versions.And(id, coord.Version(v))
			}
			for _, ex := range d.Exclusions {
				m.Exclusions = m.Exclusions.On(id, coord.NewModuleID(interpolate(ex.GroupID, props), interpolate(ex.ArtifactID, props)))
			}
		}
	}

	var errs []error
	for _, d := range p.Dependencies {
		dep, sc, optional, err := translate(d, props, managed)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if optional {
			m.Optional = m.Optional.And(dep, sc)
		} else {
			m.Dependencies = m.Dependencies.And(dep, sc)
		}
	}

	var repos []repo.Repository
	for _, r := range p.Repositories {
		parsed, err := repo.Parse(interpolate(r.URL, props))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch {
		case r.Releases.disabled() && !r.Snapshots.disabled():
			parsed = parsed.WithPublishPolicy(repo.PublishSnapshotsOnly)
		case r.Snapshots.disabled() && !r.Releases.disabled():
			parsed = parsed.WithPublishPolicy(repo.PublishReleasesOnly)
		}
		repos = append(repos, parsed)
	}
	m.Repositories = repo.NewSet(repos...)

	return m, errors.Join(errs...)
}

func (p *RepoPolicy) disabled() bool {
	return p != nil && strings.EqualFold(strings.TrimSpace(p.Enabled), "false")
}

func translate(d Dependency, props map[string]string, managed map[coord.ModuleID]Dependency) (depset.Dependency, string, bool, error) {
	id := coord.NewModuleID(interpolate(d.GroupID, props), interpolate(d.ArtifactID, props))
	if err := id.Validate(); err != nil {
		return depset.Dependency{}, "", false, err
	}
	mgmt, hasMgmt := managed[id]

	version := interpolate(d.Version, props)
	if version == "" && hasMgmt {
		version = interpolate(mgmt.Version, props)
	}
	if version == "" {
		return depset.Dependency{}, "", false, types.NewConfigurationError(types.MalformedVersion, id.String(), "dependency has no version")
	}

	sc := interpolate(d.Scope, props)
	if sc == "" && hasMgmt {
		sc = interpolate(mgmt.Scope, props)
	}
	switch sc {
	case "":
		sc = scope.Compile
	case scopeSystem:
		sc = scope.Provided
	}

	dep := depset.Module(id, coord.Version(version))
	if err := dep.Version.Validate(); err != nil {
		return depset.Dependency{}, "", false, err
	}
	dep.Classifier = interpolate(d.Classifier, props)
	if ext := interpolate(d.Type, props); ext != "" && ext != coord.DefaultExt {
		dep.Ext = ext
	}
	for _, ex := range d.Exclusions {
		g, a := interpolate(ex.GroupID, props), interpolate(ex.ArtifactID, props)
		if g == "*" && a == "*" {
			dep.Intransitive = true
			continue
		}
		dep = dep.Excluding(coord.NewModuleID(g, a))
	}
	optional := strings.EqualFold(strings.TrimSpace(interpolate(d.Optional, props)), "true")
	return dep, sc, optional, nil
}

func (p *Project) module(props map[string]string) (coord.VersionedModule, error) {
	group := interpolate(p.GroupID, props)
	version := interpolate(p.Version, props)
	if p.Parent != nil {
		group = orDefault(group, interpolate(p.Parent.GroupID, props))
		version = orDefault(version, interpolate(p.Parent.Version, props))
	}
	m := coord.NewModuleID(group, interpolate(p.ArtifactID, props)).At(coord.Version(version))
	if err := m.Validate(); err != nil {
		return coord.VersionedModule{}, err
	}
	return m, nil
}

// properties returns the interpolation table: explicit <properties> plus the
// project.* and parent coordinates.
func (p *Project) properties() map[string]string {
	props := make(map[string]string)
	if p.Properties != nil {
		for _, e := range p.Properties.Entries {
			props[e.XMLName.Local] = strings.TrimSpace(e.Value)
		}
	}
	group, version := p.GroupID, p.Version
	if p.Parent != nil {
		props["project.parent.groupId"] = p.Parent.GroupID
		props["project.parent.version"] = p.Parent.Version
		props["parent.version"] = p.Parent.Version
		group = orDefault(group, p.Parent.GroupID)
		version = orDefault(version, p.Parent.Version)
	}
	for _, prefix := range []string{"project.", "pom.", ""} {
		props[prefix+"groupId"] = group
		props[prefix+"artifactId"] = p.ArtifactID
		props[prefix+"version"] = version
	}
	return props
}

// interpolate expands ${name} references. Unknown references are kept.
func interpolate(s string, props map[string]string) string {
	s = strings.TrimSpace(s)
	for range maxInterpolationDepth {
		start := strings.Index(s, "${")
		if start < 0 {
			return s
		}
		var sb strings.Builder
		rest := s
		changed := false
		for {
			start = strings.Index(rest, "${")
			if start < 0 {
				sb.WriteString(rest)
				break
			}
			end := strings.IndexByte(rest[start:], '}')
			if end < 0 {
				sb.WriteString(rest)
				break
			}
			name := rest[start+2 : start+end]
			sb.WriteString(rest[:start])
			if v, ok := props[name]; ok {
				sb.WriteString(v)
				changed = true
			} else {
				sb.WriteString(rest[start : start+end+1])
			}
			rest = rest[start+end+1:]
		}
		s = sb.String()
		if !changed {
			return s
		}
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
