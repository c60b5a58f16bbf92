// SPDX-License-Identifier: MPL-2.0

// Package issue holds kiln's user-facing errors: ActionableError, which
// carries the failed operation and suggestions, and a catalog of Markdown
// explanations rendered with glamour.
package issue
