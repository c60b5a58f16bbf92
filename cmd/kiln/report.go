// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pelletier/go-toml/v2"

	"github.com/kilnbuild/kiln/internal/config"
	"github.com/kilnbuild/kiln/pkg/resolve"
)

type (
	// resolutionReport is the JSON and TOML form of a resolve.Result.
	resolutionReport struct {
		Scope      string             `json:"scope" toml:"scope"`
		Complete   bool               `json:"complete" toml:"complete"`
		Modules    []moduleReport     `json:"modules" toml:"modules"`
		Conflicts  []conflictReport   `json:"conflicts,omitempty" toml:"conflicts,omitempty"`
		Unresolved []unresolvedReport `json:"unresolved,omitempty" toml:"unresolved,omitempty"`
	}

	moduleReport struct {
		Module  string   `json:"module" toml:"module"`
		Version string   `json:"version" toml:"version"`
		Scopes  []string `json:"scopes" toml:"scopes"`
		Files   []string `json:"files" toml:"files"`
	}

	conflictReport struct {
		Module    string   `json:"module" toml:"module"`
		Chosen    string   `json:"chosen" toml:"chosen"`
		Displaced []string `json:"displaced" toml:"displaced"`
		Pinned    bool     `json:"pinned,omitempty" toml:"pinned,omitempty"`
	}

	unresolvedReport struct {
		Module   string   `json:"module" toml:"module"`
		Version  string   `json:"version,omitempty" toml:"version,omitempty"`
		Artifact string   `json:"artifact,omitempty" toml:"artifact,omitempty"`
		Reason   string   `json:"reason" toml:"reason"`
		Tried    []string `json:"tried,omitempty" toml:"tried,omitempty"`
	}
)

func newResolutionReport(res *resolve.Result) resolutionReport {
	r := resolutionReport{Scope: res.Scope, Complete: res.IsComplete(), Modules: []moduleReport{}}
	for _, m := range res.Modules {
		mr := moduleReport{
			Module:  m.Module.ID.String(),
			Version: m.Module.Version.String(),
			Scopes:  m.Scopes,
			Files:   []string{},
		}
		for _, a := range m.Artifacts {
			mr.Files = append(mr.Files, a.Location.URL)
		}
		r.Modules = append(r.Modules, mr)
	}
	for _, c := range res.Conflicts {
		cr := conflictReport{Module: c.Module.String(), Chosen: c.Chosen.String(), Pinned: c.Pinned}
		for _, v := range c.Displaced {
			cr.Displaced = append(cr.Displaced, v.String())
		}
		r.Conflicts = append(r.Conflicts, cr)
	}
	for _, u := range res.Unresolved {
		r.Unresolved = append(r.Unresolved, unresolvedReport{
			Module:   u.Module.String(),
			Version:  u.Version.String(),
			Artifact: u.Artifact,
			Reason:   u.Reason,
			Tried:    u.Trace.Repositories(),
		})
	}
	return r
}

// writeResolution prints res in the given format.
func writeResolution(w io.Writer, res *resolve.Result, format config.OutputFormat) error {
	report := newResolutionReport(res)
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case config.FormatTOML:
		return toml.NewEncoder(w).Encode(report)
	}
	return writeResolutionText(w, report)
}

func writeResolutionText(w io.Writer, r resolutionReport) error {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Scope"), r.Scope)
	if len(r.Modules) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("no dependencies"))
	} else {
		rows := make([][]string, 0, len(r.Modules))
		for _, m := range r.Modules {
			files := make([]string, 0, len(m.Files))
			for _, f := range m.Files {
				files = append(files, path.Base(f))
			}
			rows = append(rows, []string{m.Module, m.Version, strings.Join(m.Scopes, ","), strings.Join(files, " ")})
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(tableBorderStyle).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return tableHeaderStyle
				}
				return tableCellStyle
			}).
			Headers("MODULE", "VERSION", "SCOPES", "FILES").
			Rows(rows...)
		fmt.Fprintln(w, t.Render())
	}

	for _, c := range r.Conflicts {
		how := "highest"
		if c.Pinned {
			how = "pinned"
		}
		fmt.Fprintf(w, "%s %s %s over %s (%s)\n", WarningStyle.Render("conflict"),
			CoordStyle.Render(c.Module), c.Chosen, strings.Join(c.Displaced, ", "), how)
	}
	for _, u := range r.Unresolved {
		subject := u.Module
		if u.Version != "" {
			subject += ":" + u.Version
		}
		if u.Artifact != "" {
			subject += " (" + u.Artifact + ")"
		}
		fmt.Fprintf(w, "%s %s: %s\n", ErrorStyle.Render("unresolved"), CoordStyle.Render(subject), u.Reason)
	}
	if r.Complete {
		fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("%d modules resolved", len(r.Modules))))
	}
	return nil
}
