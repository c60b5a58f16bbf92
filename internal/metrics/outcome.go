// SPDX-License-Identifier: MPL-2.0

package metrics

import (
	"errors"

	"github.com/kilnbuild/kiln/pkg/publish"
)

func publicationOutcome(err error) string {
	switch {
	case errors.Is(err, publish.ErrArtifactAlreadyExists):
		return "already_exists"
	case errors.Is(err, publish.ErrPublishTransport):
		return "transport"
	case errors.Is(err, publish.ErrNoRepository):
		return "no_repository"
	}
	return "error"
}
