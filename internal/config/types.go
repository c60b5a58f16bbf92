// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kilnbuild/kiln/pkg/manifest"
	"github.com/kilnbuild/kiln/pkg/repo"
)

const (
	ColorSchemeAuto  ColorScheme = "auto"
	ColorSchemeDark  ColorScheme = "dark"
	ColorSchemeLight ColorScheme = "light"

	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatTOML OutputFormat = "toml"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme selects the terminal palette.
	ColorScheme string

	// OutputFormat selects how resolution results are printed.
	OutputFormat string

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the global configuration.
	Config struct {
		Repositories      []RepositoryConfig `json:"repositories" mapstructure:"repositories"`
		PublishRepository string             `json:"publish_repository" mapstructure:"publish_repository"`
		Network           NetworkConfig      `json:"network" mapstructure:"network"`
		Resolve           ResolveConfig      `json:"resolve" mapstructure:"resolve"`
		UI                UIConfig           `json:"ui" mapstructure:"ui"`
		Metrics           MetricsConfig      `json:"metrics" mapstructure:"metrics"`
	}

	// RepositoryConfig mirrors a kiln.cue repository entry.
	RepositoryConfig struct {
		URL              string   `json:"url" mapstructure:"url"`
		Kind             string   `json:"kind" mapstructure:"kind"`
		Realm            string   `json:"realm" mapstructure:"realm"`
		Username         string   `json:"username" mapstructure:"username"`
		PasswordEnv      string   `json:"password_env" mapstructure:"password_env"`
		ArtifactPatterns []string `json:"artifact_patterns" mapstructure:"artifact_patterns"`
		IvyPatterns      []string `json:"ivy_patterns" mapstructure:"ivy_patterns"`
		Accepts          string   `json:"accepts" mapstructure:"accepts"`
	}

	NetworkConfig struct {
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		Workers int           `json:"workers" mapstructure:"workers"`
	}

	ResolveConfig struct {
		Strict bool `json:"strict" mapstructure:"strict"`
	}

	UIConfig struct {
		Verbose     bool         `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme  `json:"color_scheme" mapstructure:"color_scheme"`
		Format      OutputFormat `json:"format" mapstructure:"format"`
	}

	MetricsConfig struct {
		File string `json:"file" mapstructure:"file"`
	}
)

// DefaultConfig returns the built-in configuration: Maven Central, a 30s
// timeout and four workers.
func DefaultConfig() *Config {
	return &Config{
		Repositories: []RepositoryConfig{{URL: repo.MavenCentralURL, Kind: "maven", Accepts: "any"}},
		Network:      NetworkConfig{Timeout: 30 * time.Second, Workers: 4},
		UI:           UIConfig{ColorScheme: ColorSchemeAuto, Format: FormatText},
	}
}

func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidColorScheme, string(c))
}

// GlamourStyle returns the glamour style matching the scheme.
func (c ColorScheme) GlamourStyle() string {
	if c == ColorSchemeLight {
		return "light"
	}
	return "dark"
}

func (f OutputFormat) Validate() error {
	switch f {
	case FormatText, FormatJSON, FormatTOML:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, string(f))
}

// Validate checks the values the schema cannot: enum fields set from the
// environment, a positive timeout, and parseable repositories.
func (c *Config) Validate() error {
	var errs []error
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.UI.Format.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Network.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("network.timeout must be positive, got %s", c.Network.Timeout))
	}
	if c.Network.Workers < 1 {
		errs = append(errs, fmt.Errorf("network.workers must be at least 1, got %d", c.Network.Workers))
	}
	for i, r := range c.Repositories {
		if _, err := repo.Parse(r.URL); err != nil {
			errs = append(errs, fmt.Errorf("repositories[%d]: %w", i, err))
		}
	}
	if c.PublishRepository != "" {
		if _, err := repo.Parse(c.PublishRepository); err != nil {
			errs = append(errs, fmt.Errorf("publish_repository: %w", err))
		}
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Decl converts r to its manifest form.
func (r RepositoryConfig) Decl() manifest.RepositoryDecl {
	return manifest.RepositoryDecl{
		URL:              r.URL,
		Kind:             r.Kind,
		Realm:            r.Realm,
		Username:         r.Username,
		PasswordEnv:      r.PasswordEnv,
		ArtifactPatterns: r.ArtifactPatterns,
		IvyPatterns:      r.IvyPatterns,
		Accepts:          r.Accepts,
	}
}

// RepositorySet converts the configured repositories, reading passwords
// from the environment.
func (c *Config) RepositorySet() (repo.Set, error) {
	var (
		repos []repo.Repository
		errs  []error
	)
	for _, rc := range c.Repositories {
		r, err := rc.Decl().Repository(os.LookupEnv)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		repos = append(repos, r)
	}
	return repo.NewSet(repos...), errors.Join(errs...)
}

// PublishTarget returns the configured publication repository.
func (c *Config) PublishTarget() (repo.Set, bool, error) {
	if c.PublishRepository == "" {
		return repo.Set{}, false, nil
	}
	r, err := repo.Parse(c.PublishRepository)
	if err != nil {
		return repo.Set{}, false, err
	}
	return repo.NewSet(r), true, nil
}
