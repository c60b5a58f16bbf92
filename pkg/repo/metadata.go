// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kilnbuild/kiln/pkg/coord"
)

// Time layouts used by maven-metadata.xml.
const (
	SnapshotTimestampLayout = "20060102.150405"
	LastUpdatedLayout       = "20060102150405"
)

type (
	// Metadata is a maven-metadata.xml document. The module-level file lists
	// versions; the version-level file of a snapshot carries its timestamp
	// and build number.
	Metadata struct {
		XMLName    xml.Name   `xml:"metadata"`
		GroupID    string     `xml:"groupId"`
		ArtifactID string     `xml:"artifactId"`
		Version    string     `xml:"version,omitempty"`
		Versioning Versioning `xml:"versioning"`
	}

	// Versioning is the <versioning> element. It is encoded through
	// versioningXML.
	Versioning struct {
		Latest           string
		Release          string
		Snapshot         *Snapshot
		Versions         []string
		LastUpdated      string
		SnapshotVersions []SnapshotVersion
	}

	// Snapshot is the <snapshot> element of a version-level file.
	Snapshot struct {
		Timestamp   string `xml:"timestamp"`
		BuildNumber int    `xml:"buildNumber"`
	}

	// SnapshotVersion maps one snapshot file to its timestamped version.
	SnapshotVersion struct {
		Classifier string `xml:"classifier,omitempty"`
		Extension  string `xml:"extension"`
		Value      string `xml:"value"`
		Updated    string `xml:"updated"`
	}
)

// MarshalXML writes v, leaving out the version lists when they are empty.
func (v Versioning) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	w := versioningXML{
		Latest:      v.Latest,
		Release:     v.Release,
		Snapshot:    v.Snapshot,
		LastUpdated: v.LastUpdated,
	}
	if len(v.Versions) > 0 {
		w.Versions = &versionListXML{Version: v.Versions}
	}
	if len(v.SnapshotVersions) > 0 {
		w.SnapshotVersions = &snapshotVersionsXML{SnapshotVersion: v.SnapshotVersions}
	}
	return e.EncodeElement(w, start)
}

// UnmarshalXML reads a <versioning> element.
func (v *Versioning) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var w versioningXML
	if err := d.DecodeElement(&w, &start); err != nil {
		return err
	}
	*v = Versioning{
		Latest:      w.Latest,
		Release:     w.Release,
		Snapshot:    w.Snapshot,
		LastUpdated: w.LastUpdated,
	}
	if w.Versions != nil {
		v.Versions = w.Versions.Version
	}
	if w.SnapshotVersions != nil {
		v.SnapshotVersions = w.SnapshotVersions.SnapshotVersion
	}
	return nil
}

// ParseMetadata decodes a maven-metadata.xml document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", MetadataFileName, err)
	}
	return &m, nil
}

// NewModuleMetadata returns an empty module-level document.
func NewModuleMetadata(id coord.ModuleID) *Metadata {
	return &Metadata{GroupID: id.Group, ArtifactID: id.Name}
}

// NewVersionMetadata returns an empty version-level document.
func NewVersionMetadata(m coord.VersionedModule) *Metadata {
	return &Metadata{GroupID: m.ID.Group, ArtifactID: m.ID.Name, Version: m.Version.String()}
}

// Marshal encodes m with an XML header.
func (m *Metadata) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", MetadataFileName, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// VersionList returns the listed versions.
func (m *Metadata) VersionList() []coord.Version {
	out := make([]coord.Version, 0, len(m.Versioning.Versions))
	for _, v := range m.Versioning.Versions {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, coord.Version(v))
		}
	}
	return out
}

// HasVersion reports whether v is listed.
func (m *Metadata) HasVersion(v coord.Version) bool {
	return slices.Contains(m.VersionList(), v)
}

// AddVersion lists v, keeps the list sorted and refreshes latest, release and
// lastUpdated.
func (m *Metadata) AddVersion(v coord.Version, now time.Time) {
	versions := m.VersionList()
	if !slices.Contains(versions, v) {
		versions = append(versions, v)
	}
	coord.SortVersions(versions)
	m.Versioning.Versions = m.Versioning.Versions[:0]
	m.Versioning.Release = ""
	for _, x := range versions {
		m.Versioning.Versions = append(m.Versioning.Versions, x.String())
		if !x.IsSnapshot() {
			m.Versioning.Release = x.String()
		}
	}
	m.Versioning.Latest = versions[len(versions)-1].String()
	m.Versioning.LastUpdated = now.UTC().Format(LastUpdatedLayout)
}

// SetSnapshot records a new snapshot timestamp and build number, together
// with the timestamped value of every published file.
func (m *Metadata) SetSnapshot(timestamp string, buildNumber int, files []SnapshotVersion, now time.Time) {
	m.Versioning.Snapshot = &Snapshot{Timestamp: timestamp, BuildNumber: buildNumber}
	m.Versioning.SnapshotVersions = slices.Clone(files)
	m.Versioning.LastUpdated = now.UTC().Format(LastUpdatedLayout)
}

// SnapshotFileVersion returns the timestamped file version of the snapshot
// file with the given extension and classifier, e.g. "1.0-20240102.030405-7".
func (m *Metadata) SnapshotFileVersion(ext, classifier string) (coord.Version, bool) {
	for _, sv := range m.Versioning.SnapshotVersions {
		if sv.Extension == ext && sv.Classifier == classifier && sv.Value != "" {
			return coord.Version(sv.Value), true
		}
	}
	s := m.Versioning.Snapshot
	if s == nil || s.Timestamp == "" || s.BuildNumber <= 0 || m.Version == "" {
		return "", false
	}
	return TimestampedVersion(coord.Version(m.Version), s.Timestamp, s.BuildNumber), true
}

// TimestampedVersion replaces the SNAPSHOT qualifier of v by
// "{timestamp}-{buildNumber}".
func TimestampedVersion(v coord.Version, timestamp string, buildNumber int) coord.Version {
	base := v.String()
	if v.IsSnapshot() {
		base = base[:len(base)-len(coord.SnapshotQualifier)]
	} else {
		base += "-"
	}
	return coord.Version(base + timestamp + "-" + strconv.Itoa(buildNumber))
}
