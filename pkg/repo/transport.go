// SPDX-License-Identifier: MPL-2.0

package repo

import "context"

type (
	// Request addresses a single resource of a repository.
	Request struct {
		URL         string
		Credentials Credentials
	}

	// Transport moves bytes to and from repositories. Implementations must
	// wrap ErrNotFound when a resource does not exist; every other error is
	// treated as the repository being unreachable. Implementations apply
	// their own per-operation timeout.
	Transport interface {
		// Get returns the content of the resource.
		Get(ctx context.Context, req Request) ([]byte, error)
		// Put stores body at the resource, replacing any previous content.
		Put(ctx context.Context, req Request, body []byte) error
		// Head returns nil when the resource exists.
		Head(ctx context.Context, req Request) error
	}

	// Lister is implemented by transports able to enumerate a directory.
	// It backs version discovery on Ivy repositories.
	Lister interface {
		// List returns the entry names of the directory at req.URL.
		// Sub-directories carry a trailing slash.
		List(ctx context.Context, req Request) ([]string, error)
	}
)

// request returns the Request for path in r.
func (r Repository) request(path string) Request {
	return Request{URL: r.Resolve(path), Credentials: r.credentials}
}
