// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize bounds the documents Decode accepts (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

type (
	options struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures Decode.
	Option func(*options)
)

func defaultOptions() options {
	return options{maxFileSize: DefaultMaxFileSize, concrete: true, filename: "<input>"}
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *options) { o.maxFileSize = size }
}

// WithConcrete controls whether every value must be concrete after
// unification. It defaults to true; configuration files with optional
// sections turn it off.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

// WithFilename sets the name used in error messages.
func WithFilename(name string) Option {
	return func(o *options) {
		if name != "" {
			o.filename = name
		}
	}
}
