// SPDX-License-Identifier: MPL-2.0

// Package transport implements repo.Transport for HTTP(S) repositories, local
// file repositories and an in-memory store used for dry runs and tests.
//
// Every operation runs under a per-operation timeout. A missing resource is
// reported by wrapping repo.ErrNotFound; any other failure (network error,
// timeout, rejected credentials, server error) means the repository is
// unreachable.
package transport
