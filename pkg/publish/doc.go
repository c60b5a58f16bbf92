// SPDX-License-Identifier: MPL-2.0

// Package publish uploads a module's artifacts and descriptor to a Maven or
// Ivy repository.
//
// A Maven publication uploads the artifacts, then the POM, then an .md5 and
// a .sha1 sibling for each uploaded file, and finally refreshes
// maven-metadata.xml. A snapshot version is published under a timestamped
// file version "{base}-{yyyyMMdd.HHmmss}-{buildNumber}" whose build number
// continues the one recorded in the remote metadata.
//
// An Ivy publication uploads the artifacts through the first artifact
// pattern, then ivy.xml through the first ivy pattern, each with checksums.
//
// Uploads are sequential. The descriptor is only written once every artifact
// has been uploaded; files uploaded before a failure are left in place and
// reported by PublishTransportError.
package publish
