// SPDX-License-Identifier: MPL-2.0

package ivy

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/scope"
)

type (
	// Spec is the input of Write.
	Spec struct {
		Module      coord.VersionedModule
		Description string
		// Published fills the info publication attribute when not zero.
		Published time.Time
		// Scopes become the <configurations>. Nil means scope.DefaultGraph().
		Scopes       *scope.Graph
		Publications []Publication
		Dependencies depset.Set
	}

	// Publication is one published file of the module.
	Publication struct {
		Classifier string
		Ext        string
		// Scopes lists the configurations the file belongs to; empty means
		// every configuration.
		Scopes []string
	}
)

// Write renders spec as an ivy.xml document.
func Write(spec Spec) ([]byte, error) {
	m, err := Build(spec)
	if err != nil {
		return nil, err
	}
	return m.Marshal()
}

// Build translates spec into a Module ready to marshal.
func Build(spec Spec) (*Module, error) {
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

	m := &Module{
		Version: FormatVersion,
		Info: Info{
			Organisation: spec.Module.ID.Group,
			Module:       spec.Module.ID.Name,
			Revision:     spec.Module.Version.String(),
			Status:       StatusRelease,
			Description:  spec.Description,
		},
	}
	if spec.Module.Version.IsSnapshot() {
		m.Info.Status = StatusIntegration
	}
	if !spec.Published.IsZero() {
		m.Info.Publication = spec.Published.UTC().Format(PublicationLayout)
	}

	m.Configurations = configurations(g)

	for _, p := range spec.Publications {
		a := coord.NewArtifact(spec.Module, p.Classifier, p.Ext)
		m.Publications = append(m.Publications, Artifact{
			Name:       spec.Module.ID.Name,
			Type:       a.Type(),
			Ext:        a.Ext,
			Conf:       strings.Join(p.Scopes, scope.ListSeparator),
			Classifier: p.Classifier,
		})
	}

	for _, e := range spec.Dependencies.ModuleDependencies() {
		m.Dependencies = append(m.Dependencies, dependency(e))
	}
	return m, nil
}

// Marshal renders m with the XML header and two-space indentation.
func (m *Module) Marshal() ([]byte, error) {
	out, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling ivy descriptor: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// configurations lists every scope of g parents first, plus a "default"
// configuration when g does not define one, so that consumers mapping
// "->default" find the runtime classpath.
func configurations(g *scope.Graph) []Conf {
	var (
		out        []Conf
		hasDefault bool
	)
	for _, name := range g.ParentFirst() {
		s, _ := g.Lookup(name)
		c := Conf{
			Name:        s.Name,
			Extends:     strings.Join(s.Extends, scope.ListSeparator),
			Visibility:  "public",
			Description: string(s.Description),
		}
		if !s.Transitive {
			c.Transitive = "false"
		}
		out = append(out, c)
		hasDefault = hasDefault || name == DefaultConf
	}
	if !hasDefault {
		c := Conf{Name: DefaultConf, Visibility: "public"}
		for _, candidate := range []string{scope.Runtime, scope.Compile} {
			if _, ok := g.Lookup(candidate); ok {
				c.Extends = candidate
				break
			}
		}
		out = append(out, c)
	}
	return out
}

func dependency(e depset.ScopedDependency) Dependency {
	d := e.Dependency
	out := Dependency{
		Org:  d.Module.Group,
		Name: d.Module.Name,
		Rev:  d.Version.String(),
		Conf: confMapping(e),
	}
	if d.Intransitive {
		out.Transitive = "false"
	}
	if d.Classifier != "" || (d.Ext != "" && d.Ext != coord.DefaultExt) {
		a := coord.NewArtifact(d.Module.At(d.Version), d.Classifier, d.Ext)
		out.Artifacts = []Artifact{{Name: d.Module.Name, Type: a.Type(), Ext: a.Ext, Classifier: d.Classifier}}
	}
	for _, ex := range d.Exclusions {
		out.Excludes = append(out.Excludes, Exclude{Org: ex.Group, Module: ex.Name})
	}
	return out
}

func confMapping(e depset.ScopedDependency) string {
	if !e.Mapping.IsZero() {
		return e.Mapping.String()
	}
	from := "*"
	if len(e.Scopes) > 0 {
		from = strings.Join(e.Scopes, scope.ListSeparator)
	}
	return from + scope.MappingSeparator + DefaultConf
}
