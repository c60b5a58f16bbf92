// SPDX-License-Identifier: MPL-2.0

// Package config loads kiln's global configuration with Viper, using CUE as
// the file format.
//
// The file is config.cue in the platform configuration directory
// ($XDG_CONFIG_HOME/kiln on Linux, ~/Library/Application Support/kiln on
// macOS, %APPDATA%\kiln on Windows), or ./config.cue as a fallback. It is
// validated against the embedded #Config schema. Every key can be
// overridden from the environment with a KILN_ prefix, dots becoming
// underscores: KILN_NETWORK_TIMEOUT=5s, KILN_RESOLVE_STRICT=true.
package config
