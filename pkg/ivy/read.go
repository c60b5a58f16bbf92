// SPDX-License-Identifier: MPL-2.0

package ivy

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/scope"
)

// wildcard matches every configuration, organisation or module.
const wildcard = "*"

// Descriptor is the resolution-relevant content of an ivy.xml.
type Descriptor struct {
	Module         coord.VersionedModule
	Status         string
	Configurations []Conf
	// Dependencies are declared in the source configurations of their conf
	// attribute. A dependency without conf, or mapped from "*", is unscoped.
	Dependencies depset.Set
}

// Parse decodes an ivy.xml document without interpreting it.
func Parse(data []byte) (*Module, error) {
	var m Module
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing ivy descriptor: %w", err)
	}
	return &m, nil
}

// Read decodes an ivy.xml document and translates its dependencies.
func Read(data []byte) (*Descriptor, error) {
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return m.Descriptor()
}

// Descriptor translates m.
func (m *Module) Descriptor() (*Descriptor, error) {
	module := coord.NewModuleID(m.Info.Organisation, m.Info.Module).At(coord.Version(m.Info.Revision))
	if err := module.Validate(); err != nil {
		return nil, err
	}
	d := &Descriptor{Module: module, Status: m.Info.Status, Configurations: m.Configurations}

	var errs []error
	for _, raw := range m.Dependencies {
		dep := depset.Module(coord.NewModuleID(raw.Org, raw.Name), coord.Version(raw.Rev))
		if err := dep.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if strings.EqualFold(raw.Transitive, "false") {
			dep.Intransitive = true
		}
		if len(raw.Artifacts) > 0 {
			a := raw.Artifacts[0]
			dep.Classifier = a.Classifier
			if a.Ext != "" && a.Ext != coord.DefaultExt {
				dep.Ext = a.Ext
			}
		}
		for _, ex := range raw.Excludes {
			if ex.Org == wildcard && ex.Module == wildcard {
				dep.Intransitive = true
				continue
			}
			dep = dep.Excluding(coord.NewModuleID(ex.Org, ex.Module))
		}
		d.Dependencies = d.Dependencies.And(dep, sourceConfs(raw.Conf)...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return d, nil
}

// sourceConfs returns the left-hand configurations of an Ivy conf mapping
// such as "compile,runtime->default;test->test(*)". Nil means every
// configuration.
func sourceConfs(conf string) []string {
	var out []string
	for entry := range strings.SplitSeq(conf, scope.EntrySeparator) {
		from, _, _ := strings.Cut(entry, scope.MappingSeparator)
		for name := range strings.SplitSeq(from, scope.ListSeparator) {
			name = strings.TrimSpace(name)
			switch {
			case name == "":
			case name == wildcard:
				return nil
			default:
				out = append(out, name)
			}
		}
	}
	return out
}
