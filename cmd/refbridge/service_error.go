// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/refbridge/refbridge/internal/issue"
)

// ServiceError pairs a command failure with what the CLI prints for it: a
// styled one-line summary and, when IssueID is set, the catalog guidance.
type ServiceError struct {
	Err           error
	IssueID       issue.Id
	StyledMessage string
}

// newServiceError panics on a nil err; a ServiceError always wraps a failure.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("cmd: newServiceError called with a nil error")
	}
	return &ServiceError{Err: err, IssueID: issueID, StyledMessage: styledMessage}
}

func (e *ServiceError) Error() string { return e.Err.Error() }

func (e *ServiceError) Unwrap() error { return e.Err }

// renderServiceError writes the summary, then the catalog guidance rendered
// with the glamour style at stylePath. If glamour cannot render, the raw
// Markdown is written instead.
func renderServiceError(w io.Writer, e *ServiceError, stylePath string) {
	if e == nil {
		return
	}
	fmt.Fprint(w, e.StyledMessage)

	guide := issue.Get(e.IssueID)
	if guide == nil {
		return
	}
	out, err := guide.Render(stylePath)
	if err != nil {
		out = "\n" + string(guide.MarkdownMsg()) + "\n"
	}
	fmt.Fprint(w, out)
}
