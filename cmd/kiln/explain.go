// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilnbuild/kiln/internal/issue"
	"github.com/kilnbuild/kiln/pkg/types"
)

func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [issue]",
		Short: "Explain an error kiln reports",
		Long: `Without an argument, list the issues kiln can report. With an issue number,
print its explanation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, i := range issue.Values() {
					fmt.Fprintf(app.stdout, "%3d  %s\n", i.Id(), issueTitle(i))
				}
				return nil
			}
			n, err := strconv.Atoi(args[0])
			page := issue.Get(issue.Id(n))
			if err != nil || page == nil {
				return &ExitError{Code: types.ExitFailure, Err: fmt.Errorf("unknown issue %q", args[0])}
			}
			rendered, err := page.Render(app.style)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
}

// issueTitle returns the first markdown heading of i.
func issueTitle(i *issue.Issue) string {
	for line := range strings.Lines(string(i.MarkdownMsg())) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return ""
}
