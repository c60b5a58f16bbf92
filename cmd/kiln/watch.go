// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kilnbuild/kiln/internal/watch"
	"github.com/kilnbuild/kiln/pkg/fspath"
	"github.com/kilnbuild/kiln/pkg/manifest"
	"github.com/kilnbuild/kiln/pkg/types"
)

// projectDir returns the directory of the manifest named by --project.
func (a *App) projectDir() string {
	info, err := os.Stat(a.flags.project)
	return fspath.Dir(types.FilesystemPath(a.flags.project), err != nil || info.IsDir())
}

// manifestPatterns selects the manifest file of the project.
func (a *App) manifestPatterns() []string {
	if info, err := os.Stat(a.flags.project); err == nil && !info.IsDir() {
		return []string{filepath.ToSlash(filepath.Base(a.flags.project))}
	}
	return []string{manifest.FileName}
}

// watch runs fn, then again each time a path matching patterns changes,
// until ctx is canceled. Failures are printed and watching goes on.
func (a *App) watch(ctx context.Context, env *environment, operation string, patterns []string, fn func(context.Context) error) error {
	runOnce := func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			a.printError(a.stderr, classify(operation, a.flags.project, err))
		}
	}

	w, err := watch.New(watch.Config{
		Dir:      a.projectDir(),
		Patterns: patterns,
		Logger:   env.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintln(a.stdout, VerboseStyle.Render("changed: "+strings.Join(changed, ", ")))
			runOnce(ctx)
			return nil
		},
	})
	if err != nil {
		return err
	}
	runOnce(ctx)
	fmt.Fprintln(a.stderr, SubtitleStyle.Render("watching "+strings.Join(patterns, ", ")+" (interrupt to stop)"))
	return w.Run(ctx)
}
