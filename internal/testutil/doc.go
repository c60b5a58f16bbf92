// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test helpers shared across packages: a FakeClock
// for snapshot timestamps and a builder for on-disk Maven repositories.
package testutil
