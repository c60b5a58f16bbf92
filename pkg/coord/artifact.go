// SPDX-License-Identifier: MPL-2.0

package coord

import (
	"strings"

	"github.com/kilnbuild/kiln/pkg/types"
)

// DefaultExt is the extension used when an artifact does not declare one.
const DefaultExt = "jar"

// Artifact addresses a single file of a versioned module.
type Artifact struct {
	Module     VersionedModule
	Classifier string
	Ext        string
}

// NewArtifact returns the artifact of module with the given classifier and
// extension. An empty extension defaults to DefaultExt.
func NewArtifact(module VersionedModule, classifier, ext string) Artifact {
	if ext == "" {
		ext = DefaultExt
	}
	return Artifact{Module: module, Classifier: classifier, Ext: ext}
}

// Type returns the Ivy artifact type: the classifier when present, the
// extension otherwise.
func (a Artifact) Type() string {
	if a.Classifier != "" {
		return a.Classifier
	}
	return a.Ext
}

// FileName returns "{name}-{version}[-{classifier}].{ext}".
func (a Artifact) FileName() string {
	return a.FileNameAt(a.Module.Version)
}

// FileNameAt is FileName with an explicit file version, used for timestamped
// snapshot files whose name differs from the directory version.
func (a Artifact) FileNameAt(fileVersion Version) string {
	var sb strings.Builder
	sb.WriteString(a.Module.ID.Name)
	sb.WriteString("-")
	sb.WriteString(fileVersion.String())
	if a.Classifier != "" {
		sb.WriteString("-")
		sb.WriteString(a.Classifier)
	}
	sb.WriteString(".")
	sb.WriteString(a.ext())
	return sb.String()
}

func (a Artifact) ext() string {
	if a.Ext == "" {
		return DefaultExt
	}
	return a.Ext
}

// String returns "group:name:version[:classifier]@ext".
func (a Artifact) String() string {
	s := a.Module.String()
	if a.Classifier != "" {
		s += ":" + a.Classifier
	}
	return s + "@" + a.ext()
}

// Notation is a parsed dependency notation
// "group:name:version[:classifier][@ext]".
type Notation struct {
	ID         ModuleID
	Version    Version
	Classifier string
	Ext        string
}

// ParseNotation parses a dependency notation. The version may be a range.
func ParseNotation(s string) (Notation, error) {
	raw := strings.TrimSpace(s)
	var n Notation
	if at := strings.LastIndex(raw, "@"); at >= 0 {
		n.Ext = raw[at+1:]
		raw = raw[:at]
		if n.Ext == "" {
			return Notation{}, types.NewConfigurationError(types.MalformedCoordinate, s, "empty extension after '@'")
		}
	}
	parts := strings.Split(raw, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Notation{}, types.NewConfigurationError(types.MalformedCoordinate, s, "expected group:name:version[:classifier][@ext]")
	}
	n.ID = ModuleID{Group: parts[0], Name: parts[1]}
	n.Version = Version(parts[2])
	if len(parts) == 4 {
		n.Classifier = parts[3]
	}
	if err := n.ID.Validate(); err != nil {
		return Notation{}, err
	}
	if err := n.Version.Validate(); err != nil {
		return Notation{}, err
	}
	return n, nil
}
