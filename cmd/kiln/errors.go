// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/kilnbuild/kiln/internal/config"
	"github.com/kilnbuild/kiln/internal/issue"
	"github.com/kilnbuild/kiln/pkg/cueutil"
	"github.com/kilnbuild/kiln/pkg/manifest"
	"github.com/kilnbuild/kiln/pkg/publish"
	"github.com/kilnbuild/kiln/pkg/repo"
	"github.com/kilnbuild/kiln/pkg/resolve"
	"github.com/kilnbuild/kiln/pkg/types"
)

// classify wraps err in an ActionableError linked to its catalog entry and
// an ExitError carrying the matching exit code. Errors that already carry
// an exit code are returned unchanged.
func classify(operation, resource string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	ctx := issue.NewErrorContext().WithOperation(operation).WithResource(resource).Wrap(err)
	code := types.ExitFailure
	switch {
	case errors.Is(err, manifest.ErrManifestNotFound):
		code = types.ExitConfiguration
		ctx.WithIssue(issue.ManifestNotFoundId).
			WithSuggestion("Run kiln from the project directory or pass --project")
	case types.IsConfigurationKind(err, types.CyclicScope):
		code = types.ExitConfiguration
		ctx.WithIssue(issue.ScopeCycleId).
			WithSuggestion("Remove one of the extends edges listed in the cycle")
	case isValidationError(err), errors.Is(err, types.ErrConfiguration), errors.Is(err, manifest.ErrInvalidDependency):
		code = types.ExitConfiguration
		ctx.WithIssue(issue.ManifestInvalidId).
			WithSuggestion("Fix the reported fields in kiln.cue")
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrInvalidLoadOptions):
		code = types.ExitConfiguration
		ctx.WithIssue(issue.ConfigLoadFailedId)
	case errors.Is(err, resolve.ErrDependencyResolution):
		code = types.ExitUnresolved
		ctx.WithIssue(issue.DependencyResolutionFailedId).
			WithSuggestion("Check the repositories with --verbose to see every URL tried")
	case errors.Is(err, publish.ErrArtifactAlreadyExists):
		code = types.ExitPublish
		ctx.WithIssue(issue.ArtifactAlreadyExistsId).
			WithSuggestion("Bump the module version; released versions are write-once")
	case errors.Is(err, publish.ErrChecksumMismatch):
		code = types.ExitPublish
		ctx.WithIssue(issue.ChecksumMismatchId)
	case errors.Is(err, publish.ErrPublishTransport):
		code = types.ExitPublish
		ctx.WithIssue(issue.PublishTransportFailedId).
			WithSuggestion("Publish again; a snapshot gets the next build number")
	case errors.Is(err, publish.ErrNoRepository):
		code = types.ExitPublish
		ctx.WithSuggestion("Add a repository accepting this version, or use --repository")
	case errors.Is(err, repo.ErrRepositoryUnreachable):
		ctx.WithIssue(issue.RepositoryUnreachableId)
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if c, ok := issueExitCodes[ae.Issue]; ok && code == types.ExitFailure {
			code = c
		}
		return &ExitError{Code: code, Err: err}
	}
	return &ExitError{Code: code, Err: ctx.Build()}
}

var issueExitCodes = map[issue.Id]types.ExitCode{
	issue.ManifestNotFoundId:           types.ExitConfiguration,
	issue.ManifestInvalidId:            types.ExitConfiguration,
	issue.ConfigLoadFailedId:           types.ExitConfiguration,
	issue.ScopeCycleId:                 types.ExitConfiguration,
	issue.DependencyResolutionFailedId: types.ExitUnresolved,
	issue.ArtifactAlreadyExistsId:      types.ExitPublish,
	issue.PublishTransportFailedId:     types.ExitPublish,
	issue.ChecksumMismatchId:           types.ExitPublish,
}

func isValidationError(err error) bool {
	var ve *cueutil.ValidationError
	return errors.As(err, &ve)
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// print their suggestions, and their cause chain in verbose mode.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// printError writes err to w and, in verbose mode, the catalog page of the
// linked issue.
func (a *App) printError(w io.Writer, err error) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.flags.verbose))

	var ae *issue.ActionableError
	if !a.flags.verbose || !errors.As(err, &ae) || ae.Issue == 0 {
		return
	}
	if page := issue.Get(ae.Issue); page != nil {
		if rendered, rerr := page.Render(a.style); rerr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}

// exitCode returns the process exit status for err.
func exitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitFailure
}
