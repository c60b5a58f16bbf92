// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/depset"
	"github.com/kilnbuild/kiln/pkg/pom"
)

func newPomCommand(app *App) *cobra.Command {
	pomCmd := &cobra.Command{
		Use:   "pom",
		Short: "Inspect Maven POM files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pomCmd.AddCommand(&cobra.Command{
		Use:   "show <file>",
		Short: "Show the coordinates, dependencies and repositories read from a POM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return classify("read POM", args[0], err)
			}
			model, err := pom.Read(data)
			if err != nil {
				return classify("read POM", args[0], err)
			}
			showPOM(app.stdout, model)
			return nil
		},
	})
	return pomCmd
}

func showPOM(w io.Writer, m *pom.Model) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Module"), CoordStyle.Render(m.Module.String()))
	if m.Packaging != "" {
		fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("packaging"), m.Packaging)
	}
	if m.Description != "" {
		fmt.Fprintf(w, "%s %s\n", SubtitleStyle.Render("description"), m.Description)
	}

	writeDependencies(w, "Dependencies", m.Dependencies)
	writeDependencies(w, "Optional", m.Optional)

	if pins := m.Versions.Modules(); len(pins) > 0 {
		fmt.Fprintln(w, TitleStyle.Render("Managed versions"))
		for _, p := range pins {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	if ids := m.Exclusions.Modules(); len(ids) > 0 {
		fmt.Fprintln(w, TitleStyle.Render("Exclusions"))
		for _, id := range ids {
			fmt.Fprintf(w, "  %s excludes %s\n", id, joinIDs(m.Exclusions.For(id)))
		}
	}
	if repos := m.Repositories.Repositories(); len(repos) > 0 {
		fmt.Fprintln(w, TitleStyle.Render("Repositories"))
		for _, r := range repos {
			fmt.Fprintf(w, "  %s\n", r)
		}
	}
}

func writeDependencies(w io.Writer, title string, set depset.Set) {
	entries := set.Entries()
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(w, TitleStyle.Render(title))
	for _, e := range entries {
		line := "  " + e.Dependency.String()
		if scopes := e.EffectiveScopes(); len(scopes) > 0 {
			line += " [" + strings.Join(scopes, ", ") + "]"
		}
		if len(e.Dependency.Exclusions) > 0 {
			line += " excluding " + joinIDs(e.Dependency.Exclusions)
		}
		fmt.Fprintln(w, line)
	}
}

func joinIDs(ids []coord.ModuleID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ", ")
}
