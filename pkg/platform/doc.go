// SPDX-License-Identifier: MPL-2.0

// Package platform holds the operating-system differences kiln depends on:
// where the user configuration lives and which file names Windows refuses
// to store.
package platform
