// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the kiln command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "kiln",
		Short: "Resolve and publish Maven and Ivy dependencies",
		Long: TitleStyle.Render("kiln") + SubtitleStyle.Render(" - dependency resolution and artifact publishing") + `

kiln reads the module, scopes, dependencies and repositories of a project
from kiln.cue, resolves the transitive dependency graph of a scope against
Maven and Ivy repositories, and publishes build outputs with their POM or
ivy.xml descriptor.

` + SubtitleStyle.Render("Examples:") + `
  kiln resolve                   Resolve the compile scope
  kiln resolve --scope test      Resolve the test scope and its ancestors
  kiln resolve --format json     Print the resolution as JSON
  kiln publish                   Publish the artifacts listed in kiln.cue
  kiln pom show pom.xml          Show what kiln reads from a POM`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&app.flags.project, "project", "p", ".", "project directory or kiln.cue path")
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is $HOME/.config/kiln/config.cue)")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&app.flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	root.AddCommand(
		newResolveCommand(app),
		newPublishCommand(app),
		newPomCommand(app),
		newConfigCommand(app),
		newExplainCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the CLI and exits with the code of the failure, if any.
func Execute() {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			app.printError(w, err)
		}),
	)
	os.Exit(int(exitCode(err)))
}
