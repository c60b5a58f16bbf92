// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Values of runtime.GOOS that kiln handles differently.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// ErrNoConfigBase is returned when neither the environment nor the home
// directory gives a configuration base.
var ErrNoConfigBase = errors.New("no user configuration directory")

// Env is the part of the process environment ConfigBase reads.
type Env struct {
	Getenv  func(string) string
	HomeDir func() (string, error)
}

// ConfigBase returns the per-user configuration root for goos: %APPDATA% on
// Windows, ~/Library/Application Support on macOS and $XDG_CONFIG_HOME or
// ~/.config elsewhere.
func ConfigBase(goos string, env Env) (string, error) {
	switch goos {
	case Windows:
		if dir := env.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
		if profile := env.Getenv("USERPROFILE"); profile != "" {
			return filepath.Join(profile, "AppData", "Roaming"), nil
		}
		return "", fmt.Errorf("%w: APPDATA and USERPROFILE are unset", ErrNoConfigBase)
	case Darwin:
		home, err := env.HomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoConfigBase, err)
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := env.Getenv("XDG_CONFIG_HOME"); dir != "" {
			return dir, nil
		}
		home, err := env.HomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoConfigBase, err)
		}
		return filepath.Join(home, ".config"), nil
	}
}
