// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/pom"
	"github.com/kilnbuild/kiln/pkg/repo"
)

func (s *session) publishMaven(ctx context.Context, d *Descriptor, timestamp time.Time) (*Receipt, error) {
	m := d.Module
	pomData, err := pom.Write(pom.Spec{
		Module:       m,
		Packaging:    d.packaging(),
		Description:  d.Description,
		Dependencies: d.mappedDependencies(),
		Scopes:       d.graph(),
		Versions:     d.Versions,
		Repositories: d.Repositories,
	})
	if err != nil {
		return nil, err
	}

	moduleMD, err := s.metadata(ctx, repo.ModuleMetadataPath(m.ID), func() *repo.Metadata { return repo.NewModuleMetadata(m.ID) })
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{FileVersion: m.Version}
	var versionMD *repo.Metadata
	if m.Version.IsSnapshot() {
		versionMD, err = s.metadata(ctx, repo.VersionMetadataPath(m), func() *repo.Metadata { return repo.NewVersionMetadata(m) })
		if err != nil {
			return nil, err
		}
		receipt.Timestamp, receipt.BuildNumber = nextSnapshot(versionMD.Versioning.Snapshot, timestamp)
		receipt.FileVersion = repo.TimestampedVersion(m.Version, receipt.Timestamp, receipt.BuildNumber)
	}

	pomArtifact := coord.NewArtifact(m, "", "pom")
	pomFile := upload{name: pomArtifact.FileName(), path: repo.MavenArtifactPath(pomArtifact, receipt.FileVersion), data: pomData}
	files, err := artifactUploads(d, func(a coord.Artifact) string { return repo.MavenArtifactPath(a, receipt.FileVersion) })
	if err != nil {
		return nil, err
	}

	if !m.Version.IsSnapshot() {
		paths := []string{pomFile.path}
		for _, f := range files {
			paths = append(paths, f.path)
		}
		if err := s.ensureAbsent(ctx, paths); err != nil {
			return nil, err
		}
	}

	if err := s.uploadAll(ctx, files, pomFile.name, repo.MetadataFileName); err != nil {
		return nil, err
	}
	if err := s.uploadAll(ctx, []upload{pomFile}, repo.MetadataFileName); err != nil {
		return nil, err
	}

	moduleMD.AddVersion(m.Version, timestamp)
	metadata := []*metadataFile{{path: repo.ModuleMetadataPath(m.ID), md: moduleMD}}
	if versionMD != nil {
		var snapshots []repo.SnapshotVersion
		for _, a := range slices.Concat(d.Artifacts, []Artifact{{Ext: "pom"}}) {
			ca := d.artifact(a)
			snapshots = append(snapshots, repo.SnapshotVersion{
				Classifier: ca.Classifier,
				Extension:  ca.Ext,
				Value:      receipt.FileVersion.String(),
				Updated:    timestamp.Format(repo.LastUpdatedLayout),
			})
		}
		versionMD.SetSnapshot(receipt.Timestamp, receipt.BuildNumber, snapshots, timestamp)
		metadata = append(metadata, &metadataFile{path: repo.VersionMetadataPath(m), md: versionMD})
	}
	var mdFiles []upload
	for _, f := range metadata {
		data, err := f.md.Marshal()
		if err != nil {
			return nil, err
		}
		mdFiles = append(mdFiles, upload{name: f.path, path: f.path, data: data})
	}
	if err := s.uploadAll(ctx, mdFiles); err != nil {
		return nil, err
	}

	if err := s.verifyUploads(ctx, files); err != nil {
		return nil, fmt.Errorf("verifying %s: %w", m, err)
	}
	return receipt, nil
}

type metadataFile struct {
	path string
	md   *repo.Metadata
}

// metadata fetches the maven-metadata.xml at path, or returns fresh() when
// the repository has none yet.
func (s *session) metadata(ctx context.Context, path string, fresh func() *repo.Metadata) (*repo.Metadata, error) {
	md, err := s.repo.FetchMetadata(ctx, s.p.transport, path)
	switch {
	case err == nil:
		return md, nil
	case errors.Is(err, repo.ErrNotFound):
		return fresh(), nil
	default:
		return nil, fmt.Errorf("reading %s: %w", repo.RedactURL(s.repo.Resolve(path)), err)
	}
}

// nextSnapshot returns the timestamp and build number following prev. The
// timestamp is bumped past prev by one second when t is not later, so that
// successive publications always produce strictly greater pairs.
func nextSnapshot(prev *repo.Snapshot, t time.Time) (string, int) {
	if prev == nil || prev.BuildNumber <= 0 {
		return t.Format(repo.SnapshotTimestampLayout), 1
	}
	if last, err := time.Parse(repo.SnapshotTimestampLayout, prev.Timestamp); err == nil && !t.After(last) {
		t = last.Add(time.Second)
	}
	return t.Format(repo.SnapshotTimestampLayout), prev.BuildNumber + 1
}

// packaging returns the declared packaging or the extension of the
// unclassified artifact.
func (d *Descriptor) packaging() string {
	if d.Packaging != "" {
		return d.Packaging
	}
	for _, a := range d.Artifacts {
		if a.Classifier == "" {
			return d.artifact(a).Ext
		}
	}
	return coord.DefaultExt
}
