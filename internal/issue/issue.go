// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies an entry of the issue catalog.
type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestInvalidId
	ConfigLoadFailedId
	ScopeCycleId
	DependencyResolutionFailedId
	RepositoryUnreachableId
	ArtifactAlreadyExistsId
	PublishTransportFailedId
	ChecksumMismatchId
)

type (
	// MarkdownMsg is the Markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a catalog entry: a Markdown explanation of a failure and what
	// to try next.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id { return i.id }

func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Render renders the issue for a terminal using the glamour style at
// stylePath ("dark", "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No kiln.cue found

kiln looks for ` + "`kiln.cue`" + ` in the current directory, or in the directory
given with ` + "`--project`" + `.

## Things you can try
- Run kiln from the project root, or pass ` + "`--project path/to/project`" + `.
- Start from a minimal manifest:
~~~cue
module: "org.example:app:1.0.0-SNAPSHOT"

dependencies: [
	{module: "org.slf4j:slf4j-api:2.0.9", scopes: ["compile"]},
]

repositories: [{url: "https://repo1.maven.org/maven2"}]
~~~`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# kiln.cue is invalid

The manifest did not match its schema, or one of its values could not be
understood. The message above names the offending field.

## Things you can try
- Coordinates are written ` + "`group:name:version`" + `; classifiers and
  extensions are appended as ` + "`group:name:version:classifier@ext`" + `.
- Version ranges use Maven syntax: ` + "`[1.0,2.0)`" + `, ` + "`1.+`" + `, ` + "`latest.release`" + `.
- A dependency declares either ` + "`scopes`" + ` or a ` + "`mapping`" + `, not both.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the configuration

The global configuration file could not be read or did not match its schema.

## Things you can try
- Print the effective configuration:
~~~
$ kiln config show
~~~
- Recreate a default file:
~~~
$ kiln config init --force
~~~`,
	}

	scopeCycleIssue = &Issue{
		id: ScopeCycleId,
		mdMsg: `
# Scope definitions form a cycle

A scope may not extend itself, directly or through other scopes. The message
above lists the cycle.

## Things you can try
- Remove one of the ` + "`extends`" + ` entries on the cycle.`,
	}

	dependencyResolutionFailedIssue = &Issue{
		id: DependencyResolutionFailedId,
		mdMsg: `
# Some dependencies could not be resolved

Every listed module was looked up in each repository, in order, and none
provided it.

## Things you can try
- Check the coordinates and version for typos.
- Add the repository hosting the module to ` + "`repositories`" + `.
- Re-run with ` + "`--verbose`" + ` to see every repository tried.`,
	}

	repositoryUnreachableIssue = &Issue{
		id: RepositoryUnreachableId,
		mdMsg: `
# A repository could not be reached

kiln skips unreachable repositories and tries the next one. When none is
left, the dependency stays unresolved.

## Things you can try
- Check network access and proxy settings.
- Raise ` + "`network.timeout`" + ` in the configuration for slow mirrors.
- Check credentials: a 401 from a repository with a realm means the realm
  did not match.`,
	}

	artifactAlreadyExistsIssue = &Issue{
		id: ArtifactAlreadyExistsId,
		mdMsg: `
# This release is already published

Released versions are immutable: kiln never overwrites them. Nothing was
uploaded.

## Things you can try
- Bump the version in ` + "`kiln.cue`" + `.
- Publish a ` + "`-SNAPSHOT`" + ` version while iterating.`,
	}

	publishTransportFailedIssue = &Issue{
		id: PublishTransportFailedId,
		mdMsg: `
# The publication was interrupted

An upload failed part way. The files listed as completed are in the
repository; the descriptor and metadata were not updated, so resolvers do
not see the partial publication.

## Things you can try
- Re-run the publication once the repository is reachable. Snapshots get
  a new build number; a release may need the partial files removed first.`,
	}

	checksumMismatchIssue = &Issue{
		id: ChecksumMismatchId,
		mdMsg: `
# A checksum did not match

A file read back from the repository differs from its uploaded checksum.

## Things you can try
- Publish again; a proxy or the repository may have altered the file.`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():           manifestNotFoundIssue,
		manifestInvalidIssue.Id():            manifestInvalidIssue,
		configLoadFailedIssue.Id():           configLoadFailedIssue,
		scopeCycleIssue.Id():                 scopeCycleIssue,
		dependencyResolutionFailedIssue.Id(): dependencyResolutionFailedIssue,
		repositoryUnreachableIssue.Id():      repositoryUnreachableIssue,
		artifactAlreadyExistsIssue.Id():      artifactAlreadyExistsIssue,
		publishTransportFailedIssue.Id():     publishTransportFailedIssue,
		checksumMismatchIssue.Id():           checksumMismatchIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	var out []*Issue
	for _, i := range maps.Values(issues) {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
