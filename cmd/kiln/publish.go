// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilnbuild/kiln/pkg/fspath"
	"github.com/kilnbuild/kiln/pkg/manifest"
	"github.com/kilnbuild/kiln/pkg/publish"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/types"
)

type publishFlags struct {
	timestamp    string
	verify       bool
	repositories []string
	watch        bool
}

func newPublishCommand(app *App) *cobra.Command {
	var flags publishFlags
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the artifacts listed in kiln.cue",
		Long: `Publish the artifacts of the manifest's publish section.

The first repository accepting the module version receives every artifact,
its checksums, the descriptor (POM or ivy.xml) and, for Maven repositories,
updated maven-metadata.xml files. Released versions are write-once;
snapshots get a new timestamp and build number on every publication.

Target repositories are taken from --repository, then the configured
publish_repository, then the manifest.

With --watch, a snapshot module is published again every time one of its
artifact files is rewritten, each time with the next build number.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd.Context(), "publish", func(ctx context.Context, env *environment) error {
				return runPublish(ctx, app, env, flags)
			})
		},
	}
	cmd.Flags().StringVar(&flags.timestamp, "timestamp", "", "publication time in RFC 3339 (default now)")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "download every artifact again and check its SHA-1")
	cmd.Flags().StringSliceVarP(&flags.repositories, "repository", "r", nil, "repository to publish to, repeatable")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "publish a snapshot again whenever one of its artifact files changes")
	return cmd
}

func runPublish(ctx context.Context, app *App, env *environment, flags publishFlags) error {
	var ts time.Time
	if flags.timestamp != "" {
		var err error
		if ts, err = time.Parse(time.RFC3339, flags.timestamp); err != nil {
			return &ExitError{Code: types.ExitConfiguration, Err: fmt.Errorf("--timestamp: %w", err)}
		}
	}

	if !flags.watch {
		return publishOnce(ctx, app, env, ts, flags)
	}

	m, err := app.loadManifest()
	if err != nil {
		return err
	}
	if !m.Module.Version.IsSnapshot() {
		return &ExitError{Code: types.ExitConfiguration, Err: fmt.Errorf("--watch republishes snapshots only; %s is a release", m.Module)}
	}
	patterns, err := artifactPatterns(m)
	if err != nil {
		return err
	}
	// Every republication takes a fresh timestamp.
	return app.watch(ctx, env, "publish", patterns, func(ctx context.Context) error {
		return publishOnce(ctx, app, env, time.Time{}, flags)
	})
}

func publishOnce(ctx context.Context, app *App, env *environment, ts time.Time, flags publishFlags) error {
	m, err := app.loadManifest()
	if err != nil {
		return err
	}
	d, err := m.Descriptor()
	if err != nil {
		return err
	}
	targets, err := publishTargets(env, flags.repositories, m)
	if err != nil {
		return err
	}

	opts := []publish.Option{publish.WithLogger(env.logger)}
	if flags.verify {
		opts = append(opts, publish.WithVerify())
	}
	receipt, err := publish.New(env.transport, opts...).Publish(ctx, d, targets, ts)
	env.metrics.ObservePublication(receipt, err)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "%s %s to %s\n", SuccessStyle.Render("published"),
		CoordStyle.Render(receipt.Module.String()), receipt.Repository)
	if receipt.FileVersion != receipt.Module.Version {
		fmt.Fprintf(app.stdout, "  file version %s (build %d)\n", receipt.FileVersion, receipt.BuildNumber)
	}
	if env.verbose {
		fmt.Fprintln(app.stdout, VerboseStyle.Render("  receipt "+receipt.ID))
		for _, u := range receipt.Uploaded {
			fmt.Fprintln(app.stdout, VerboseStyle.Render("  "+u))
		}
	}
	return nil
}

// artifactPatterns returns the artifact files of m relative to the project
// directory.
func artifactPatterns(m *manifest.Manifest) ([]string, error) {
	if m.Publication == nil {
		return nil, fmt.Errorf("%s: manifest has no publish section", m.Module)
	}
	var patterns []string
	for _, a := range m.Publication.Artifacts {
		if a.File == "" {
			continue
		}
		pattern, err := fspath.Pattern(m.Dir, a.File)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}

func publishTargets(env *environment, flagRepos []string, m *manifest.Manifest) (repo.Set, error) {
	if len(flagRepos) > 0 {
		return parseRepositories(flagRepos)
	}
	set, ok, err := env.cfg.PublishTarget()
	if err != nil || ok {
		return set, err
	}
	return m.PublishRepositories(), nil
}
