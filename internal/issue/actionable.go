// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"strings"
)

type (
	// ActionableError is a user-facing failure of one refbridge step. It names
	// the step and the project, trace or module involved, carries hints the
	// user can act on, and may point at a catalog issue with longer guidance.
	//
	//	return issue.NewErrorContext().
	//		WithOperation("obtain trace").
	//		WithResource(projectPath).
	//		WithIssue(issue.BuildFailedId).
	//		WithSuggestion("Run the build once by hand and fix the reported errors").
	//		Wrap(err).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "obtain trace" or "start resolution server".
		Operation string
		// Resource is the path or address the operation worked on. Optional.
		Resource string
		// Hints are short remedies, printed one per line.
		Hints []string
		// Cause is the underlying error.
		Cause error
		// Issue names the catalog entry rendered after the message. Zero means none.
		Issue Id
	}

	// ErrorContext accumulates the parts of an ActionableError.
	ErrorContext struct {
		operation string
		resource  string
		hints     []string
		cause     error
		issue     Id
	}
)

// NewErrorContext starts an empty ErrorContext.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error returns "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	var b strings.Builder
	b.WriteString("failed to ")
	b.WriteString(e.Operation)
	if e.Resource != "" {
		b.WriteString(": ")
		b.WriteString(e.Resource)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the cause.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the message followed by the hints. Verbose output appends
// the cause chain, one error per line, indented by depth; joined errors
// list each branch.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if len(e.Hints) > 0 {
		b.WriteString("\n")
		for _, h := range e.Hints {
			b.WriteString("\n  • ")
			b.WriteString(h)
		}
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		n := 0
		writeChain(&b, e.Cause, 1, &n)
	}
	return b.String()
}

func writeChain(b *strings.Builder, err error, depth int, n *int) {
	*n++
	fmt.Fprintf(b, "\n%s%d. %s", strings.Repeat("  ", depth), *n, err.Error())

	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, child := range u.Unwrap() {
			if child != nil {
				writeChain(b, child, depth+1, n)
			}
		}
	case interface{ Unwrap() error }:
		if next := u.Unwrap(); next != nil {
			writeChain(b, next, depth, n)
		}
	}
}

// Guide returns the catalog issue attached to the error, or nil.
func (e *ActionableError) Guide() *Issue {
	if e.Issue == 0 {
		return nil
	}
	return Get(e.Issue)
}

// WithOperation sets the failed step.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the path or address involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion appends hints. Empty strings are skipped.
func (c *ErrorContext) WithSuggestion(hints ...string) *ErrorContext {
	for _, h := range hints {
		if h != "" {
			c.hints = append(c.hints, h)
		}
	}
	return c
}

// WithIssue attaches a catalog issue.
func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.issue = id
	return c
}

// Wrap sets the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build returns the ActionableError, or nil when no operation was set.
// The hints are copied, so the context can keep growing afterwards.
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}
	var hints []string
	if len(c.hints) > 0 {
		hints = append([]string(nil), c.hints...)
	}
	return &ActionableError{
		Operation: c.operation,
		Resource:  c.resource,
		Hints:     hints,
		Cause:     c.cause,
		Issue:     c.issue,
	}
}

// BuildError is Build returned as an error. It returns a nil interface, not a
// typed nil, when no operation was set.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
