// SPDX-License-Identifier: MPL-2.0

// Package cueutil decodes CUE documents against an embedded schema.
//
// Both the project manifest (kiln.cue) and the global configuration go
// through the same three steps: compile the schema, unify the user document
// with one of its definitions, then validate and decode into a Go struct.
//
//	//go:embed manifest_schema.cue
//	var schema []byte
//
//	res, err := cueutil.Decode[File](schema, data, "#Manifest",
//	    cueutil.WithFilename("kiln.cue"))
//
// Errors name the offending field in JSON-path form, for example
// "kiln.cue: dependencies[2].scopes[0]: conflicting values".
package cueutil
