// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"github.com/kilnbuild/kiln/internal/config"
	"github.com/kilnbuild/kiln/internal/metrics"
	"github.com/kilnbuild/kiln/pkg/manifest"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/transport"
	"github.com/kilnbuild/kiln/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and builds a per-invocation environment from it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		flags  rootFlags
		// style is the glamour style for issue pages.
		style string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}

	rootFlags struct {
		project     string
		configPath  string
		metricsFile string
		verbose     bool
	}

	// environment is what one command invocation runs against.
	environment struct {
		cfg       *config.Config
		logger    *slog.Logger
		metrics   *metrics.Collector
		transport repo.Transport
		verbose   bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{Config: deps.Config, stdout: deps.Stdout, stderr: deps.Stderr, style: "notty"}
}

// environment loads the configuration and builds the logger, metrics and
// transport for one command.
func (a *App) environment(ctx context.Context) (*environment, error) {
	opts := config.LoadOptions{ConfigFilePath: types.FilesystemPath(a.flags.configPath)}
	cfg, err := a.Config.Load(ctx, opts)
	if err != nil {
		return nil, err
	}

	verbose := a.flags.verbose || cfg.UI.Verbose
	a.flags.verbose = verbose
	a.style = cfg.UI.ColorScheme.GlamourStyle()
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(a.stderr, log.Options{Level: level, Prefix: config.AppName})
	logger := slog.New(handler)

	collector := metrics.New()
	h := transport.NewHTTP(
		transport.WithTimeout(cfg.Network.Timeout),
		transport.WithUserAgent(config.AppName+"/"+Version),
		transport.WithObserver(collector),
		transport.WithLogger(logger),
	)
	return &environment{
		cfg:       cfg,
		logger:    logger,
		metrics:   collector,
		transport: transport.NewMux(h, transport.NewFile(collector)),
		verbose:   verbose,
	}, nil
}

// run builds the environment, calls fn, writes metrics when asked to and
// maps the returned error to an exit code.
func (a *App) run(ctx context.Context, operation string, fn func(context.Context, *environment) error) error {
	env, err := a.environment(ctx)
	if err != nil {
		return classify("load configuration", a.flags.configPath, err)
	}
	err = fn(ctx, env)
	if path := a.metricsFile(env.cfg); path != "" {
		if werr := env.metrics.WriteFile(path); werr != nil {
			env.logger.Warn("writing metrics failed", "path", path, "error", werr)
		}
	}
	if err != nil {
		return classify(operation, a.flags.project, err)
	}
	return nil
}

func (a *App) metricsFile(cfg *config.Config) string {
	if a.flags.metricsFile != "" {
		return a.flags.metricsFile
	}
	return cfg.Metrics.File
}

// loadManifest reads kiln.cue from the --project directory.
func (a *App) loadManifest() (*manifest.Manifest, error) {
	return manifest.Load(a.flags.project)
}

// repositories picks the repositories to resolve against: --repository
// flags first, then the manifest's, then the configured ones.
func (e *environment) repositories(flagRepos []string, m *manifest.Manifest) (repo.Set, error) {
	if len(flagRepos) > 0 {
		return parseRepositories(flagRepos)
	}
	if m.Repositories.Len() > 0 {
		return m.Repositories, nil
	}
	return e.cfg.RepositorySet()
}

func parseRepositories(specs []string) (repo.Set, error) {
	var set repo.Set
	for _, s := range specs {
		r, err := repo.Parse(s)
		if err != nil {
			return repo.Set{}, fmt.Errorf("--repository %s: %w", s, err)
		}
		set = set.And(r)
	}
	return set, nil
}
