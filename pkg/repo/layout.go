// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"errors"
	"strings"

	"github.com/kilnbuild/kiln/pkg/coord"
)

// MetadataFileName is the name of the Maven repository index file.
const MetadataFileName = "maven-metadata.xml"

// MavenArtifactPath returns the Maven path of a, relative to the repository
// root. fileVersion differs from the module version for timestamped
// snapshots; pass "" to use the module version.
func MavenArtifactPath(a coord.Artifact, fileVersion coord.Version) string {
	if fileVersion == "" {
		fileVersion = a.Module.Version
	}
	return MavenVersionDir(a.Module) + "/" + a.FileNameAt(fileVersion)
}

// MavenVersionDir returns "{group/path}/{name}/{version}".
func MavenVersionDir(m coord.VersionedModule) string {
	return MavenModuleDir(m.ID) + "/" + m.Version.String()
}

// MavenModuleDir returns "{group/path}/{name}".
func MavenModuleDir(id coord.ModuleID) string {
	return id.GroupPath() + "/" + id.Name
}

// ModuleMetadataPath returns the path of the module-level maven-metadata.xml
// listing every published version.
func ModuleMetadataPath(id coord.ModuleID) string {
	return MavenModuleDir(id) + "/" + MetadataFileName
}

// VersionMetadataPath returns the path of the version-level
// maven-metadata.xml carrying snapshot timestamps.
func VersionMetadataPath(m coord.VersionedModule) string {
	return MavenVersionDir(m) + "/" + MetadataFileName
}

// ArtifactPaths returns the candidate paths of a in r, relative to the
// repository root. Maven repositories have exactly one; Ivy repositories one
// per artifact pattern.
func (r Repository) ArtifactPaths(a coord.Artifact, fileVersion coord.Version) []string {
	k, ok := r.kind.(IvyKind)
	if !ok {
		return []string{MavenArtifactPath(a, fileVersion)}
	}
	tokens := ivyArtifactTokens(a, fileVersion)
	patterns := k.ArtifactPatternsOrDefault()
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, expandPattern(p, tokens))
	}
	return out
}

// DescriptorPaths returns the candidate paths of the module descriptor: the
// POM for Maven repositories, ivy.xml for Ivy ones.
func (r Repository) DescriptorPaths(m coord.VersionedModule, fileVersion coord.Version) []string {
	k, ok := r.kind.(IvyKind)
	if !ok {
		return []string{MavenArtifactPath(coord.NewArtifact(m, "", "pom"), fileVersion)}
	}
	if fileVersion == "" {
		fileVersion = m.Version
	}
	tokens := map[string]string{
		"organisation": m.ID.Group,
		"organization": m.ID.Group,
		"orgPath":      m.ID.GroupPath(),
		"module":       m.ID.Name,
		"artifact":     "ivy",
		"revision":     fileVersion.String(),
		"type":         "ivy",
		"ext":          "xml",
	}
	patterns := k.IvyPatternsOrDefault()
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, expandPattern(p, tokens))
	}
	return out
}

// Resolve joins a relative path onto the repository root.
func (r Repository) Resolve(path string) string {
	return r.url + "/" + strings.TrimLeft(path, "/")
}

func ivyArtifactTokens(a coord.Artifact, fileVersion coord.Version) map[string]string {
	if fileVersion == "" {
		fileVersion = a.Module.Version
	}
	ext := a.Ext
	if ext == "" {
		ext = coord.DefaultExt
	}
	return map[string]string{
		"organisation": a.Module.ID.Group,
		"organization": a.Module.ID.Group,
		"orgPath":      a.Module.ID.GroupPath(),
		"module":       a.Module.ID.Name,
		"artifact":     a.Module.ID.Name,
		"revision":     fileVersion.String(),
		"type":         a.Type(),
		"ext":          ext,
		"classifier":   a.Classifier,
	}
}

// expandPattern substitutes [token]s. A parenthesized group is dropped when
// one of its tokens is empty. Inside a group [type] stands for the classifier
// so that "(-[type])" only appears for classified artifacts.
func expandPattern(pattern string, tokens map[string]string) string {
	var out, group strings.Builder
	inGroup, groupEmpty := false, false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '(' && !inGroup:
			inGroup, groupEmpty = true, false
			group.Reset()
		case c == ')' && inGroup:
			inGroup = false
			if !groupEmpty {
				out.WriteString(group.String())
			}
		case c == '[':
			end := strings.IndexByte(pattern[i:], ']')
			if end < 0 {
				out.WriteString(pattern[i:])
				return out.String()
			}
			name := pattern[i+1 : i+end]
			i += end
			value := tokens[name]
			if inGroup {
				if name == "type" {
					value = tokens["classifier"]
				}
				if value == "" {
					groupEmpty = true
				}
				group.WriteString(value)
				continue
			}
			out.WriteString(value)
		case inGroup:
			group.WriteByte(c)
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

func validatePattern(p string) error {
	depth := 0
	inToken := false
	for _, c := range p {
		switch c {
		case '[':
			if inToken {
				return errors.New("nested '[' in pattern")
			}
			inToken = true
		case ']':
			if !inToken {
				return errors.New("unbalanced ']' in pattern")
			}
			inToken = false
		case '(':
			if depth > 0 {
				return errors.New("nested optional group in pattern")
			}
			depth++
		case ')':
			if depth == 0 {
				return errors.New("unbalanced ')' in pattern")
			}
			depth--
		}
	}
	if inToken || depth != 0 {
		return errors.New("unterminated token or group in pattern")
	}
	if !strings.Contains(p, "[revision]") {
		return errors.New("pattern must contain [revision]")
	}
	return nil
}
