// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"errors"
	"fmt"
	"os"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
	"github.com/kilnbuild/kiln/pkg/types"
)

type (
	// Artifact is one file to publish. Content takes precedence over File.
	Artifact struct {
		Classifier string
		Ext        string
		File       types.FilesystemPath
		Content    []byte
		// Scopes lists the Ivy configurations publishing the file; empty
		// means all of them.
		Scopes []string
	}

	// Descriptor describes one publication. It is built per call and not
	// shared.
	Descriptor struct {
		Module       coord.VersionedModule
		Artifacts    []Artifact
		Dependencies depset.Set
		// Mapping translates the scopes of dependencies declared without
		// their own mapping into the published vocabulary (Maven scopes or
		// Ivy configurations).
		Mapping scope.Mapping
		// Scopes is the scope graph. Nil means scope.DefaultGraph().
		Scopes      *scope.Graph
		Packaging   string
		Description string
		// Versions becomes the POM <dependencyManagement>.
		Versions depset.VersionProvider
		// Repositories becomes the POM <repositories>.
		Repositories repo.Set
	}
)

// DescriptorOption sets an optional part of a Descriptor before it is
// validated.
type DescriptorOption func(*Descriptor)

// WithScopeGraph validates and publishes dependencies against g instead of
// scope.DefaultGraph().
func WithScopeGraph(g *scope.Graph) DescriptorOption {
	return func(d *Descriptor) { d.Scopes = g }
}

// WithPOMDetails sets the packaging and description written to the POM.
func WithPOMDetails(packaging, description string) DescriptorOption {
	return func(d *Descriptor) {
		d.Packaging = packaging
		d.Description = description
	}
}

// WithManagedVersions sets the versions published as dependency management.
func WithManagedVersions(v depset.VersionProvider) DescriptorOption {
	return func(d *Descriptor) { d.Versions = v }
}

// WithRepositories sets the repositories listed in the POM.
func WithRepositories(set repo.Set) DescriptorOption {
	return func(d *Descriptor) { d.Repositories = set }
}

// BuildDescriptor applies opts, validates the result and returns the
// descriptor of a publication of module.
func BuildDescriptor(module coord.VersionedModule, artifacts []Artifact, deps depset.Set, mapping scope.Mapping, opts ...DescriptorOption) (*Descriptor, error) {
	d := &Descriptor{Module: module, Artifacts: artifacts, Dependencies: deps, Mapping: mapping}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the module, the dependencies against the scope graph, and
// that at least one artifact is listed with no duplicated classifier and
// extension.
func (d *Descriptor) Validate() error {
	errs := []error{d.Module.Validate(), d.Dependencies.Validate(d.graph()), d.Mapping.Validate()}
	if len(d.Artifacts) == 0 {
		errs = append(errs, fmt.Errorf("%s: no artifact to publish", d.Module))
	}
	seen := make(map[string]bool)
	for _, a := range d.Artifacts {
		ca := d.artifact(a)
		if seen[ca.FileName()] {
			errs = append(errs, fmt.Errorf("%s: artifact %s listed twice", d.Module, ca.FileName()))
		}
		seen[ca.FileName()] = true
		if a.Content == nil && a.File == "" {
			errs = append(errs, fmt.Errorf("%s: artifact %s has no content", d.Module, ca.FileName()))
		}
	}
	return errors.Join(errs...)
}

func (d *Descriptor) graph() *scope.Graph {
	if d.Scopes == nil {
		return scope.DefaultGraph()
	}
	return d.Scopes
}

func (d *Descriptor) artifact(a Artifact) coord.Artifact {
	return coord.NewArtifact(d.Module, a.Classifier, a.Ext)
}

// mappedDependencies applies d.Mapping to every dependency declared with
// scopes and no mapping of its own.
func (d *Descriptor) mappedDependencies() depset.Set {
	if d.Mapping.IsZero() {
		return d.Dependencies
	}
	var out depset.Set
	for _, e := range d.Dependencies.Entries() {
		if !e.Mapping.IsZero() || len(e.Scopes) == 0 {
			out = depset.Merge(out, depset.Of(e))
			continue
		}
		targets := d.Mapping.TargetsOf(e.Scopes...)
		if len(targets) == 0 {
			out = depset.Merge(out, depset.Of(e))
			continue
		}
		out = out.AndMapped(e.Dependency, scope.Mapping{}.Map(e.Scopes, targets...))
	}
	return out
}

func (a Artifact) data() ([]byte, error) {
	if a.Content != nil {
		return a.Content, nil
	}
	data, err := os.ReadFile(string(a.File))
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", a.File, err)
	}
	return data, nil
}
