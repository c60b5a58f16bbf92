// SPDX-License-Identifier: MPL-2.0

package cmd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	cmd "github.com/kilnbuild/kiln/cmd/kiln"
	"github.com/kilnbuild/kiln/internal/testutil"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"kiln": cmd.Execute,
	})
}

// TestCLI runs the scripts in testdata against a shared file: Maven
// repository, exported to the scripts as $REPO.
func TestCLI(t *testing.T) {
	repoDir := filepath.Join(t.TempDir(), "repo")
	testutil.NewMavenDir(t, repoDir).
		Add("org.example:core:1.0").
		Add("org.example:core:2.0").
		Add("org.example:util:1.0", "org.example:core:1.0")

	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv("REPO", repoDir)
			env.Setenv("HOME", env.WorkDir)
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(env.WorkDir, ".config"))
			for _, name := range []string{"KILN_UI_FORMAT", "KILN_RESOLVE_STRICT", "KILN_UI_VERBOSE"} {
				if _, ok := os.LookupEnv(name); ok {
					env.Setenv(name, "")
				}
			}
			return nil
		},
		ContinueOnError: true,
	})
}
