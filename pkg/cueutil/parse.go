// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Result is a decoded document.
type Result[T any] struct {
	Value *T
	// Unified is the schema-unified CUE value, for callers that need fields
	// the Go struct does not carry.
	Unified cue.Value
}

// Decode compiles schema, unifies data with the definition at schemaPath,
// validates the result and decodes it into a T.
func Decode[T any](schema, data []byte, schemaPath string, opts ...Option) (*Result[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileBytes(schema)
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("internal error: compiling schema: %w", err)
	}
	def := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("internal error: schema definition %s: %w", schemaPath, err)
	}

	userValue := ctx.CompileBytes(data, cue.Filename(o.filename))
	if err := userValue.Err(); err != nil {
		return nil, FormatError(err, o.filename)
	}

	unified := def.Unify(userValue)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return nil, FormatError(err, o.filename)
	}

	var value T
	if err := unified.Decode(&value); err != nil {
		return nil, FormatError(err, o.filename)
	}
	return &Result[T]{Value: &value, Unified: unified}, nil
}
