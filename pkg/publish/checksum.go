// SPDX-License-Identifier: MPL-2.0

package publish

import (
	"crypto/md5"  //nolint:gosec // Maven repositories require MD5 siblings
	"crypto/sha1" //nolint:gosec // Maven repositories require SHA-1 siblings
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// ErrChecksumMismatch indicates a downloaded file does not match its checksum.
var ErrChecksumMismatch = errors.New("checksum mismatch")

type (
	// Algorithm is a checksum published next to every uploaded file.
	Algorithm struct {
		// Ext is the sibling file suffix, without the dot.
		Ext string
		New func() hash.Hash
	}

	// ChecksumError provides details about a checksum verification failure.
	ChecksumError struct {
		URL      string
		Ext      string
		Expected string
		Got      string
	}
)

// Algorithms are the checksums written for every upload, in upload order.
var Algorithms = []Algorithm{
	{Ext: "md5", New: md5.New},
	{Ext: "sha1", New: sha1.New},
}

// Error returns a description showing both hash values.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s checksum verification failed for %s\nExpected: %s\nGot:      %s", e.Ext, e.URL, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// Sum returns the lowercase hex digest of data.
func (a Algorithm) Sum(data []byte) string {
	h := a.New()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ParseChecksum extracts the digest from the content of a checksum file.
// Both the bare form and the "{hash}  {filename}" form written by md5sum
// and sha1sum are accepted.
func ParseChecksum(content []byte) string {
	fields := strings.Fields(string(content))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Verify compares data with the content of its checksum file.
func (a Algorithm) Verify(url string, data, checksumFile []byte) error {
	expected := ParseChecksum(checksumFile)
	got := a.Sum(data)
	if expected != got {
		return &ChecksumError{URL: url, Ext: a.Ext, Expected: expected, Got: got}
	}
	return nil
}
