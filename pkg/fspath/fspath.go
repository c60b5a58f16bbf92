// SPDX-License-Identifier: MPL-2.0

// Package fspath converts between manifest-relative file names and the
// typed paths kiln publishes from.
package fspath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kilnbuild/kiln/pkg/types"
)

// globMeta are the characters a watch pattern treats specially.
const globMeta = `*?[]{}\`

// Resolve returns name as a path, joined to dir unless it is already
// absolute.
func Resolve(dir, name string) types.FilesystemPath {
	if filepath.IsAbs(name) {
		return types.FilesystemPath(filepath.Clean(name))
	}
	return types.FilesystemPath(filepath.Join(dir, name))
}

// Rel returns p relative to dir with forward slashes.
func Rel(dir string, p types.FilesystemPath) (string, error) {
	rel, err := filepath.Rel(dir, string(p))
	if err != nil {
		return "", fmt.Errorf("%s is not under %s: %w", p, dir, err)
	}
	return filepath.ToSlash(rel), nil
}

// Pattern returns a glob matching exactly the path of p relative to dir.
func Pattern(dir string, p types.FilesystemPath) (string, error) {
	rel, err := Rel(dir, p)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, r := range rel {
		if strings.ContainsRune(globMeta, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Dir returns the directory a manifest path names: the path itself when
// it is a directory, its parent otherwise.
func Dir(p types.FilesystemPath, isDir bool) string {
	if isDir {
		return string(p)
	}
	return filepath.Dir(string(p))
}
