// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilnbuild/kiln/pkg/coord"
	"github.com/kilnbuild/kiln/pkg/ivy"
	"github.com/kilnbuild/kiln/pkg/repo"
)

// ivyDescriptorName is how ivy.xml is reported in transport errors.
const ivyDescriptorName = "ivy.xml"

// publishIvy publishes d to an Ivy repository. Snapshots keep their
// revision; the previous descriptor is overwritten and only the publication
// timestamp advances.
func (s *session) publishIvy(ctx context.Context, d *Descriptor, timestamp time.Time) (*Receipt, error) {
	m := d.Module
	descriptorPath := s.repo.DescriptorPaths(m, "")[0]
	files, err := artifactUploads(d, func(a coord.Artifact) string { return s.repo.ArtifactPaths(a, "")[0] })
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{FileVersion: m.Version}
	if m.Version.IsSnapshot() {
		prev, err := s.previousPublication(ctx, m)
		if err != nil {
			return nil, err
		}
		if !prev.IsZero() && !timestamp.After(prev) {
			timestamp = prev.Add(time.Second)
		}
		receipt.Timestamp = timestamp.Format(repo.SnapshotTimestampLayout)
	} else {
		paths := []string{descriptorPath}
		for _, f := range files {
			paths = append(paths, f.path)
		}
		if err := s.ensureAbsent(ctx, paths); err != nil {
			return nil, err
		}
	}

	publications := make([]ivy.Publication, 0, len(d.Artifacts))
	for _, a := range d.Artifacts {
		publications = append(publications, ivy.Publication{Classifier: a.Classifier, Ext: a.Ext, Scopes: a.Scopes})
	}
	data, err := ivy.Write(ivy.Spec{
		Module:       m,
		Description:  d.Description,
		Published:    timestamp,
		Scopes:       d.graph(),
		Publications: publications,
		Dependencies: d.mappedDependencies(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.uploadAll(ctx, files, ivyDescriptorName); err != nil {
		return nil, err
	}
	if err := s.uploadAll(ctx, []upload{{name: ivyDescriptorName, path: descriptorPath, data: data}}); err != nil {
		return nil, err
	}
	if err := s.verifyUploads(ctx, files); err != nil {
		return nil, fmt.Errorf("verifying %s: %w", m, err)
	}
	return receipt, nil
}

// previousPublication returns the publication time of the ivy.xml already
// in the repository, or the zero time.
func (s *session) previousPublication(ctx context.Context, m coord.VersionedModule) (time.Time, error) {
	data, err := s.repo.FetchDescriptor(ctx, s.p.transport, m, "")
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	prev, err := ivy.Parse(data)
	if err != nil {
		s.p.logger.Warn("ignoring unreadable ivy descriptor", "module", m.String(), "error", err)
		return time.Time{}, nil
	}
	t, err := time.Parse(ivy.PublicationLayout, prev.Info.Publication)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}
