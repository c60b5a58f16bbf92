// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/cueutil"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/publish"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/resolve"
	"github.com/kilnbuild/kiln/pkg/scope"
	"github.com/kilnbuild/kiln/pkg/types"
)

// FileName is the manifest file looked up in a project directory.
const FileName = "kiln.cue"

var (
	//go:embed manifest_schema.cue
	schema []byte

	// ErrManifestNotFound is returned by Load when no kiln.cue exists.
	ErrManifestNotFound = errors.New("kiln.cue not found")

	// ErrInvalidDependency is wrapped by dependency declarations that set
	// both or neither of module and project, or both scopes and mapping.
	ErrInvalidDependency = errors.New("invalid dependency declaration")
)

type (
	// Manifest is a loaded kiln.cue.
	Manifest struct {
		Module       coord.VersionedModule
		Description  types.DescriptionText
		Packaging    string
		Scopes       *scope.Graph
		Dependencies depset.Set
		Versions     depset.VersionProvider
		Exclusions   depset.ExclusionSet
		Repositories repo.Set
		// Publication is nil when the manifest has no publish section.
		Publication *Publication
		// Dir is the directory artifact files are relative to.
		Dir string
	}

	// Publication is the publish section of a manifest.
	Publication struct {
		Artifacts    []publish.Artifact
		Mapping      scope.Mapping
		Repositories repo.Set
	}

	// Option configures Parse and Load.
	Option func(*loader)

	loader struct {
		lookupEnv func(string) (string, bool)
		dir       string
	}
)

// WithLookupEnv replaces os.LookupEnv for password_env lookups.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(l *loader) { l.lookupEnv = fn }
}

// WithDir sets the directory relative artifact paths are resolved against.
// Load sets it to the manifest's directory.
func WithDir(dir string) Option {
	return func(l *loader) { l.dir = dir }
}

// Load reads the manifest at path. A directory path means path/kiln.cue.
func Load(path string, opts ...Option) (*Manifest, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrManifestNotFound)
		}
		return nil, err
	}
	return Parse(data, path, append([]Option{WithDir(filepath.Dir(path))}, opts...)...)
}

// Parse decodes and converts a manifest. Schema violations are reported as
// *cueutil.ValidationError; invalid scopes, coordinates and repositories as
// *types.ConfigurationError. All conversion errors are joined.
func Parse(data []byte, filename string, opts ...Option) (*Manifest, error) {
	l := &loader{lookupEnv: os.LookupEnv, dir: "."}
	for _, opt := range opts {
		opt(l)
	}
	res, err := cueutil.Decode[File](schema, data, "#Manifest", cueutil.WithFilename(filename))
	if err != nil {
		return nil, err
	}
	m, err := l.convert(res.Value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

// Request returns the resolution request of scopeName against the
// manifest's repositories.
func (m *Manifest) Request(scopeName string, strict bool) resolve.Request {
	return resolve.Request{
		Scope:        scopeName,
		Scopes:       m.Scopes,
		Dependencies: m.Dependencies,
		Versions:     m.Versions,
		Exclusions:   m.Exclusions,
		Repositories: m.Repositories,
		Strict:       strict,
	}
}

// PublishRepositories returns the publish section's repositories, or the
// manifest's when the section names none.
func (m *Manifest) PublishRepositories() repo.Set {
	if m.Publication != nil && m.Publication.Repositories.Len() > 0 {
		return m.Publication.Repositories
	}
	return m.Repositories
}

// Descriptor returns the publication descriptor of the manifest.
func (m *Manifest) Descriptor() (*publish.Descriptor, error) {
	if m.Publication == nil {
		return nil, fmt.Errorf("%s: manifest has no publish section", m.Module)
	}
	return publish.BuildDescriptor(m.Module, m.Publication.Artifacts, m.Dependencies, m.Publication.Mapping,
		publish.WithScopeGraph(m.Scopes),
		publish.WithPOMDetails(m.Packaging, m.Description.String()),
		publish.WithManagedVersions(m.Versions),
		publish.WithRepositories(m.Repositories),
	)
}
