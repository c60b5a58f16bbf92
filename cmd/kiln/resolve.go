// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilnbuild/kiln/internal/config"
	"github.com/kilnbuild/kiln/pkg/resolve"
	"github.com/kilnbuild/kiln/pkg/scope"
	"github.com/kilnbuild/kiln/pkg/types"
)

type resolveFlags struct {
	scope        string
	strict       bool
	format       string
	repositories []string
	watch        bool
}

func newResolveCommand(app *App) *cobra.Command {
	var flags resolveFlags
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the dependencies of a scope",
		Long: `Resolve the transitive dependencies of a scope.

The declared dependencies of the scope and of every scope it extends are
resolved against the manifest's repositories (or the configured ones when
kiln.cue names none). Version conflicts are settled by the highest
requested version unless a pin in kiln.cue says otherwise.

Without --strict, unresolved modules are reported and kiln exits 0.
With --watch, kiln stays running and resolves again on every change to
kiln.cue.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd.Context(), "resolve dependencies", func(ctx context.Context, env *environment) error {
				return runResolve(ctx, app, env, cmd.Flags().Changed("strict"), flags)
			})
		},
	}
	cmd.Flags().StringVarP(&flags.scope, "scope", "s", scope.Compile, "scope to resolve")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail when a module cannot be resolved")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "output format: text, json or toml (default from config)")
	cmd.Flags().StringSliceVarP(&flags.repositories, "repository", "r", nil, "repository to resolve against, repeatable (ivy: prefix for Ivy)")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "resolve again whenever kiln.cue changes")
	return cmd
}

func runResolve(ctx context.Context, app *App, env *environment, strictSet bool, flags resolveFlags) error {
	format := config.OutputFormat(flags.format)
	if format == "" {
		format = env.cfg.UI.Format
	}
	if err := format.Validate(); err != nil {
		return &ExitError{Code: types.ExitConfiguration, Err: err}
	}
	strict := env.cfg.Resolve.Strict
	if strictSet {
		strict = flags.strict
	}

	if flags.watch {
		return app.watch(ctx, env, "resolve dependencies", app.manifestPatterns(), func(ctx context.Context) error {
			return resolveOnce(ctx, app, env, strict, format, flags)
		})
	}
	return resolveOnce(ctx, app, env, strict, format, flags)
}

func resolveOnce(ctx context.Context, app *App, env *environment, strict bool, format config.OutputFormat, flags resolveFlags) error {
	m, err := app.loadManifest()
	if err != nil {
		return err
	}
	req := m.Request(flags.scope, strict)
	if req.Repositories, err = env.repositories(flags.repositories, m); err != nil {
		return err
	}

	resolver := resolve.New(env.transport,
		resolve.WithWorkers(env.cfg.Network.Workers),
		resolve.WithLogger(env.logger),
	)
	start := time.Now()
	res, err := resolver.Resolve(ctx, req)
	env.metrics.ObserveResolution(res, err, time.Since(start))

	var unresolved *resolve.DependencyResolutionError
	if err != nil && !errors.As(err, &unresolved) {
		return err
	}
	if werr := writeResolution(app.stdout, res, format); werr != nil {
		return fmt.Errorf("writing report: %w", werr)
	}
	if !res.IsComplete() && !strict {
		env.logger.Warn("resolution incomplete", "scope", res.Scope, "unresolved", len(res.Unresolved))
	}
	return err
}
