// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/refbridge/refbridge/internal/buildrun"
	"github.com/refbridge/refbridge/internal/config"
	"github.com/refbridge/refbridge/internal/issue"
	"github.com/refbridge/refbridge/internal/resolveserver"
	"github.com/refbridge/refbridge/internal/session"
	"github.com/refbridge/refbridge/internal/tracestore"
	"github.com/refbridge/refbridge/pkg/buildtrace"
	"github.com/refbridge/refbridge/pkg/refcollect"
	"github.com/refbridge/refbridge/pkg/resolution"
)

// classifyError maps a command failure to an issue catalog ID and returns a
// styled message for CLI rendering. An ActionableError that names its issue
// wins over the sentinel mapping. A zero ID means no catalog entry applies.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	var ae *issue.ActionableError
	switch {
	case errors.As(err, &ae) && ae.Issue != 0:
		issueID = ae.Issue
	case errors.Is(err, session.ErrProjectNotFound):
		issueID = issue.ProjectNotFoundId
	case errors.Is(err, buildrun.ErrInvalidCommand):
		issueID = issue.ConfigLoadFailedId
	case errors.Is(err, tracestore.ErrBuildFailed):
		issueID = issue.BuildFailedId
	case errors.Is(err, tracestore.ErrTraceUnreadable), errors.Is(err, buildtrace.ErrUnsupportedTraceFormat):
		issueID = issue.TraceUnreadableId
	case errors.Is(err, refcollect.ErrOutputPathUnresolvable):
		issueID = issue.OutputPathUnresolvableId
	case errors.Is(err, session.ErrVersionUndetectable):
		issueID = issue.VersionUndetectableId
	case errors.Is(err, resolution.ErrResolutionMiss):
		issueID = issue.ResolutionMissId
	case errors.Is(err, config.ErrInvalidConfig):
		issueID = issue.ConfigLoadFailedId
	case errors.Is(err, resolveserver.ErrInvalidAuthToken):
		issueID = issue.ResolverServerFailedId
	}

	msg := fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
	var buildErr *buildrun.BuildFailedError
	if verbose && errors.As(err, &buildErr) && buildErr.Output != "" {
		msg += "\n" + SubtitleStyle.Render("Build output (tail):") + "\n" + strings.TrimRight(buildErr.Output, "\n") + "\n"
	}
	return issueID, msg
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
