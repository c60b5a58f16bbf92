// SPDX-License-Identifier: MPL-2.0

package depset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kilnbuild/kiln/pkg/coord"
)

type (
	// ProjectRef is an opaque reference to a sibling project. The caller
	// resolves it; the resolver skips project dependencies.
	ProjectRef string

	// Dependency is either a module dependency or a project dependency.
	// Exactly one of Module and Project is set.
	Dependency struct {
		Module     coord.ModuleID
		Version    coord.Version
		Classifier string
		Ext        string
		// Exclusions lists transitive modules dropped from this dependency's
		// subtree only.
		Exclusions []coord.ModuleID
		// Intransitive stops the resolver from following this dependency's
		// own dependencies.
		Intransitive bool

		Project ProjectRef
	}
)

// Module returns a dependency on module id at version (a literal or a range).
func Module(id coord.ModuleID, version coord.Version) Dependency {
	return Dependency{Module: id, Version: version}
}

// ParseModule parses "group:name:version[:classifier][@ext]".
func ParseModule(notation string) (Dependency, error) {
	n, err := coord.ParseNotation(notation)
	if err != nil {
		return Dependency{}, err
	}
	return Dependency{Module: n.ID, Version: n.Version, Classifier: n.Classifier, Ext: n.Ext}, nil
}

// MustParseModule is like ParseModule but panics on error.
func MustParseModule(notation string) Dependency {
	d, err := ParseModule(notation)
	if err != nil {
		panic(err)
	}
	return d
}

// Project returns a dependency on a sibling project.
func Project(ref ProjectRef) Dependency {
	return Dependency{Project: ref}
}

// IsProject reports whether d refers to a sibling project.
func (d Dependency) IsProject() bool { return d.Project != "" }

// Excluding returns a copy of d that also excludes ids from its subtree.
func (d Dependency) Excluding(ids ...coord.ModuleID) Dependency {
	out := d.clone()
	for _, id := range ids {
		if !slices.Contains(out.Exclusions, id) {
			out.Exclusions = append(out.Exclusions, id)
		}
	}
	return out
}

// WithClassifier returns a copy of d with the given classifier.
func (d Dependency) WithClassifier(classifier string) Dependency {
	out := d.clone()
	out.Classifier = classifier
	return out
}

// WithExt returns a copy of d with the given extension.
func (d Dependency) WithExt(ext string) Dependency {
	out := d.clone()
	out.Ext = ext
	return out
}

// AsIntransitive returns a copy of d whose own dependencies are not followed.
func (d Dependency) AsIntransitive() Dependency {
	out := d.clone()
	out.Intransitive = true
	return out
}

// EffectiveExclusions returns the union of d's own exclusions and the
// exclusions the set registers for d's module.
func (d Dependency) EffectiveExclusions(exclusions ExclusionSet) []coord.ModuleID {
	out := slices.Clone(d.Exclusions)
	for _, id := range exclusions.For(d.Module) {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// Validate checks coordinates and version syntax of module dependencies.
func (d Dependency) Validate() error {
	if d.IsProject() {
		return nil
	}
	if err := d.Module.Validate(); err != nil {
		return err
	}
	if err := d.Version.Validate(); err != nil {
		return err
	}
	for _, ex := range d.Exclusions {
		if err := ex.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// String returns the dependency notation, or "project:<ref>".
func (d Dependency) String() string {
	if d.IsProject() {
		return "project:" + string(d.Project)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%s", d.Module, d.Version)
	if d.Classifier != "" {
		sb.WriteString(":" + d.Classifier)
	}
	if d.Ext != "" {
		sb.WriteString("@" + d.Ext)
	}
	return sb.String()
}

func (d Dependency) clone() Dependency {
	d.Exclusions = slices.Clone(d.Exclusions)
	return d
}
