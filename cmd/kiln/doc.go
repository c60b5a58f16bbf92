// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the kiln command-line interface.
//
// The root command loads the global configuration and the project manifest
// (kiln.cue), then hands off to the resolve, publish, pom, config and
// explain subcommands. resolve and publish can keep running under --watch.
// Every failure is mapped to an issue.ActionableError and a
// types.ExitCode before it reaches the terminal.
package cmd
