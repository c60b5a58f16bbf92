// SPDX-License-Identifier: MPL-2.0

package transport

import "time"

// Operation names reported to an Observer.
const (
	OpGet  = "get"
	OpPut  = "put"
	OpHead = "head"
	OpList = "list"
)

// Outcomes reported to an Observer.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeUnreachable = "unreachable"
)

// Observer receives one call per transport operation.
type Observer interface {
	ObserveOperation(scheme, op, outcome string, bytes int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, string, int, time.Duration) {}
