// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/kilnbuild/kiln/internal/issue"
	"github.com/kilnbuild/kiln/pkg/cueutil"
	"github.com/kilnbuild/kiln/pkg/platform"
)

const (
	AppName        = "kiln"
	ConfigFileName = "config"
	ConfigFileExt  = "cue"
	// EnvPrefix prefixes environment overrides: KILN_UI_VERBOSE.
	EnvPrefix = "KILN"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the kiln configuration directory following platform
// conventions.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	dir, err := platform.ConfigBase(runtime.GOOS, platform.Env{Getenv: os.Getenv, HomeDir: os.UserHomeDir})
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// loadWithOptions loads defaults, then the config file, then environment
// overrides, and returns the config with the path of the file used ("" when
// none was found).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := configPath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file is valid CUE").
				WithSuggestion("Run 'kiln config show' to see the defaults").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check KILN_* environment variables as well as the file").
			Wrap(err).
			BuildError()
	}
	return &cfg, path, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	repos := make([]map[string]any, 0, len(d.Repositories))
	for _, r := range d.Repositories {
		repos = append(repos, map[string]any{"url": r.URL, "kind": r.Kind, "accepts": r.Accepts})
	}
	v.SetDefault("repositories", repos)
	v.SetDefault("publish_repository", d.PublishRepository)
	v.SetDefault("network.timeout", d.Network.Timeout)
	v.SetDefault("network.workers", d.Network.Workers)
	v.SetDefault("resolve.strict", d.Resolve.Strict)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))
	v.SetDefault("ui.format", string(d.UI.Format))
	v.SetDefault("metrics.file", d.Metrics.File)
}

// configPath picks the file to load: the explicit one, then config.cue in
// the config directory, then ./config.cue.
func configPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the --config path").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		return path, nil
	}

	dir := string(opts.ConfigDirPath)
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	name := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(dir, name), filepath.Join(string(opts.BaseDir), name)} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper validates the file at path against #Config and merges it
// into v. The file is decoded to a map rather than through cueutil.Decode
// so that Viper keeps defaults and environment precedence.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if err := schemaValue.Err(); err != nil {
		return fmt.Errorf("internal error: compiling config schema: %w", err)
	}
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if err := userValue.Err(); err != nil {
		return cueutil.FormatError(err, path)
	}
	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var m map[string]any
	if err := unified.Decode(&m); err != nil {
		return cueutil.FormatError(err, path)
	}
	if err := v.MergeConfigMap(m); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to dir/config.cue
// unless the file exists and force is false. It returns the path written.
func CreateDefaultConfig(dir string, force bool) (string, error) {
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if !force && fileExists(path) {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE renders cfg as a config.cue document.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// kiln configuration\n\n")

	if len(cfg.Repositories) > 0 {
		sb.WriteString("repositories: [\n")
		for _, r := range cfg.Repositories {
			fields := []string{fmt.Sprintf("url: %q", r.URL)}
			if r.Kind != "" && r.Kind != "maven" {
				fields = append(fields, fmt.Sprintf("kind: %q", r.Kind))
			}
			if r.Username != "" {
				fields = append(fields, fmt.Sprintf("username: %q", r.Username))
			}
			if r.PasswordEnv != "" {
				fields = append(fields, fmt.Sprintf("password_env: %q", r.PasswordEnv))
			}
			if r.Realm != "" {
				fields = append(fields, fmt.Sprintf("realm: %q", r.Realm))
			}
			if r.Accepts != "" && r.Accepts != "any" {
				fields = append(fields, fmt.Sprintf("accepts: %q", r.Accepts))
			}
			fmt.Fprintf(&sb, "\t{%s},\n", strings.Join(fields, ", "))
		}
		sb.WriteString("]\n")
	}
	if cfg.PublishRepository != "" {
		fmt.Fprintf(&sb, "publish_repository: %q\n", cfg.PublishRepository)
	}

	sb.WriteString("\nnetwork: {\n")
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.Network.Timeout.String())
	fmt.Fprintf(&sb, "\tworkers: %d\n", cfg.Network.Workers)
	sb.WriteString("}\n")

	sb.WriteString("\nresolve: {\n")
	fmt.Fprintf(&sb, "\tstrict: %v\n", cfg.Resolve.Strict)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tformat: %q\n", cfg.UI.Format)
	sb.WriteString("}\n")

	if cfg.Metrics.File != "" {
		fmt.Fprintf(&sb, "\nmetrics: file: %q\n", cfg.Metrics.File)
	}
	return sb.String()
}
