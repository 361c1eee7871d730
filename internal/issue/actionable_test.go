// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var errTruncated = errors.New("unexpected EOF")

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "detect framework version"},
			want: "failed to detect framework version",
		},
		{
			name: "with resource",
			err:  &ActionableError{Operation: "obtain trace", Resource: "/src/App/App.csproj"},
			want: "failed to obtain trace: /src/App/App.csproj",
		},
		{
			name: "with cause",
			err:  &ActionableError{Operation: "load configuration", Cause: errors.New("field not allowed: colour")},
			want: "failed to load configuration: field not allowed: colour",
		},
		{
			name: "full",
			err: &ActionableError{
				Operation: "start resolution server",
				Resource:  "127.0.0.1:7411",
				Cause:     errors.New("address already in use"),
			},
			want: "failed to start resolution server: 127.0.0.1:7411: address already in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("read trace").
		Wrap(fmt.Errorf("decode App.csproj.trace.xml: %w", errTruncated)).
		BuildError()

	if !errors.Is(err, errTruncated) {
		t.Errorf("errors.Is(%v, errTruncated) = false", err)
	}
	var ae *ActionableError
	if !errors.As(err, &ae) || ae.Operation != "read trace" {
		t.Errorf("errors.As() did not find the ActionableError in %v", err)
	}
	if (&ActionableError{Operation: "x"}).Unwrap() != nil {
		t.Error("Unwrap() without a cause should be nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	base := NewErrorContext().
		WithOperation("obtain trace").
		WithResource("/src/App/App.csproj").
		WithSuggestion("Run with --verbose to see the build output", "Check the build.command setting")

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		absent   []string
	}{
		{
			name: "hints without chain",
			err:  base.Wrap(fmt.Errorf("build: %w", errTruncated)).Build(),
			contains: []string{
				"failed to obtain trace: /src/App/App.csproj: build: unexpected EOF",
				"\n  • Run with --verbose to see the build output",
				"\n  • Check the build.command setting",
			},
			absent: []string{"Error chain:"},
		},
		{
			name:    "verbose chain",
			err:     base.Wrap(fmt.Errorf("build: %w", errTruncated)).Build(),
			verbose: true,
			contains: []string{
				"Error chain:",
				"\n  1. build: unexpected EOF",
				"\n  2. unexpected EOF",
			},
		},
		{
			name:    "verbose joined causes",
			err:     base.Wrap(errors.Join(errors.New("build.command: empty"), errors.New("server.port: out of range"))).Build(),
			verbose: true,
			contains: []string{
				"\n    2. build.command: empty",
				"\n    3. server.port: out of range",
			},
		},
		{
			name:    "verbose without cause",
			err:     &ActionableError{Operation: "detect framework version"},
			verbose: true,
			absent:  []string{"Error chain:", "•"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Format(tt.verbose)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Format(%v) lacks %q:\n%s", tt.verbose, want, got)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(got, unwanted) {
					t.Errorf("Format(%v) contains %q:\n%s", tt.verbose, unwanted, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	t.Run("no operation", func(t *testing.T) {
		t.Parallel()
		ctx := NewErrorContext().WithResource("/src/App/App.csproj")
		if ctx.Build() != nil {
			t.Error("Build() without an operation should be nil")
		}
		if err := ctx.BuildError(); err != nil {
			t.Errorf("BuildError() = %#v, want a nil interface", err)
		}
	})

	t.Run("all fields", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("no evaluation for App.csproj")
		ae := NewErrorContext().
			WithOperation("compute project output").
			WithResource("/src/App/App.csproj").
			WithIssue(OutputPathUnresolvableId).
			WithSuggestion("Set OutputPath in the project", "").
			Wrap(cause).
			Build()

		if ae.Operation != "compute project output" || ae.Resource != "/src/App/App.csproj" {
			t.Errorf("Build() = %+v", ae)
		}
		if ae.Issue != OutputPathUnresolvableId {
			t.Errorf("Issue = %d, want %d", ae.Issue, OutputPathUnresolvableId)
		}
		if len(ae.Hints) != 1 {
			t.Errorf("Hints = %q, want the empty hint skipped", ae.Hints)
		}
		if !errors.Is(ae, cause) {
			t.Error("Build() lost the cause")
		}
	})

	t.Run("context reuse", func(t *testing.T) {
		t.Parallel()
		ctx := NewErrorContext().WithOperation("inspect module").WithSuggestion("Rebuild the module")

		first := ctx.Wrap(errors.New("no CLI header")).Build()
		second := ctx.WithSuggestion("Check the file is a managed module").Wrap(errTruncated).Build()

		if len(first.Hints) != 1 || len(second.Hints) != 2 {
			t.Errorf("hints = %d and %d, want 1 and 2", len(first.Hints), len(second.Hints))
		}
		if errors.Is(first, errTruncated) || !errors.Is(second, errTruncated) {
			t.Error("each Build() should keep the cause set at the time")
		}
	})
}

func TestActionableError_Guide(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("read trace").
		WithIssue(TraceUnreadableId).
		Wrap(errTruncated).
		Build()

	guide := err.Guide()
	if guide == nil || guide.Id() != TraceUnreadableId {
		t.Fatalf("Guide() = %v, want trace unreadable issue", guide)
	}
	if (&ActionableError{Operation: "resolve module"}).Guide() != nil {
		t.Error("Guide() should be nil without an issue")
	}
}
