// SPDX-License-Identifier: MPL-2.0

package repo

// Well-known public repository endpoints.
const (
	MavenCentralURL        = "https://repo1.maven.org/maven2"
	OSSRHSnapshotsURL      = "https://oss.sonatype.org/content/repositories/snapshots"
	OSSRHReleasesURL       = "https://oss.sonatype.org/content/repositories/releases"
	OSSRHDeployReleaseURL  = "https://oss.sonatype.org/service/local/staging/deploy/maven2"
	OSSRHPublicURL         = "https://oss.sonatype.org/content/groups/public"
	OSSRHRealm             = "Sonatype Nexus Repository Manager"
	MavenCentralIdentifier = "central"
)

// MavenCentral returns the Maven Central repository.
func MavenCentral() Repository { return Maven(MavenCentralURL) }

// OSSRHPublic returns the OSSRH group serving both releases and snapshots.
func OSSRHPublic() Repository { return Maven(OSSRHPublicURL) }

// OSSRHSnapshots returns the OSSRH snapshot repository, usable for download
// and snapshot deployment.
func OSSRHSnapshots(username, password string) Repository {
	return Maven(OSSRHSnapshotsURL).
		WithCredentials(username, password).
		WithRealm(OSSRHRealm).
		WithPublishPolicy(PublishSnapshotsOnly)
}

// OSSRHDeployRelease returns the OSSRH staging endpoint for releases.
func OSSRHDeployRelease(username, password string) Repository {
	return Maven(OSSRHDeployReleaseURL).
		WithCredentials(username, password).
		WithRealm(OSSRHRealm).
		WithPublishPolicy(PublishReleasesOnly)
}
