// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"

	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/scope"
)

// Request is the input of a resolution.
type Request struct {
	// Scope is the scope to resolve; its ancestors select the declared
	// dependencies.
	Scope string
	// Scopes is the scope graph. Nil means scope.DefaultGraph().
	Scopes       *scope.Graph
	Dependencies depset.Set
	// Versions pins modules; a pin overrides every requested version.
	Versions depset.VersionProvider
	// Exclusions are applied below every occurrence of their key module.
	Exclusions   depset.ExclusionSet
	Repositories repo.Set
	// Strict turns unresolved modules into a DependencyResolutionError.
	Strict bool
}

func (r Request) graph() *scope.Graph {
	if r.Scopes == nil {
		return scope.DefaultGraph()
	}
	return r.Scopes
}

// Validate reports configuration errors: an unknown scope, malformed
// dependencies, pins that are not literal versions, or unusable
// repositories.
func (r Request) Validate() error {
	g := r.graph()
	if _, err := g.Ancestors(r.Scope); err != nil {
		return err
	}
	errs := []error{r.Dependencies.Validate(g)}
	for _, pin := range r.Versions.Modules() {
		errs = append(errs, pin.Validate())
	}
	for _, rp := range r.Repositories.Repositories() {
		errs = append(errs, rp.Validate())
	}
	return errors.Join(errs...)
}
