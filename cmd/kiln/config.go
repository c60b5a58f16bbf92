// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilnbuild/kiln/internal/config"
)

// newConfigCommand creates the `kiln config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage kiln configuration",
		Long: `Manage kiln configuration.

Configuration is stored in:
  - Linux: ~/.config/kiln/config.cue
  - macOS: ~/Library/Application Support/kiln/config.cue
  - Windows: %APPDATA%\kiln\config.cue

Any value can be overridden with a KILN_ environment variable, for example
KILN_RESOLVE_STRICT=true or KILN_UI_FORMAT=json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd.Context(), "show configuration", func(_ context.Context, env *environment) error {
				fmt.Fprint(app.stdout, config.GenerateCUE(env.cfg))
				return nil
			})
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig("", force)
			if err != nil {
				return classify("create configuration", "", err)
			}
			fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("config"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.flags.configPath != "" {
				fmt.Fprintln(app.stdout, app.flags.configPath)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return classify("locate configuration", "", err)
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	return cfgCmd
}
