// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"

	"cuelang.org/go/cue/cuecontext"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		if err := FormatError(nil, "config.cue"); err != nil {
			t.Errorf("FormatError(nil) = %v, want nil", err)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("unexpected EOF")
		err := FormatError(cause, "config.cue")

		var de *DocumentError
		if !errors.As(err, &de) {
			t.Fatalf("FormatError() = %T, want *DocumentError", err)
		}
		if got, want := err.Error(), "config.cue: unexpected EOF"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if !errors.Is(err, cause) {
			t.Error("FormatError() lost the cause")
		}
	})

	t.Run("schema violations", func(t *testing.T) {
		t.Parallel()
		v := cuecontext.New().CompileString(`
#S: {port: int & <65536, host: string}
x: #S & {port: 70000, host: 3}
`)
		err := FormatError(v.Validate(), "config.cue")

		var de *DocumentError
		if !errors.As(err, &de) {
			t.Fatalf("FormatError() = %T, want *DocumentError", err)
		}
		if len(de.Problems) < 2 {
			t.Fatalf("Problems = %+v, want one per field", de.Problems)
		}
		paths := map[string]bool{}
		for _, p := range de.Problems {
			paths[p.Path] = true
		}
		if !paths["x.port"] || !paths["x.host"] {
			t.Errorf("problem paths = %v, want x.port and x.host", paths)
		}
		if !strings.HasPrefix(err.Error(), "config.cue: ") {
			t.Errorf("Error() = %q, want the file prefix", err.Error())
		}
	})
}

func TestDocumentError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *DocumentError
		want string
	}{
		{
			name: "single problem",
			err:  &DocumentError{File: "report.cue", Problems: []Problem{{Path: "table[2].path", Message: "incomplete value string"}}},
			want: "report.cue: table[2].path: incomplete value string",
		},
		{
			name: "several problems",
			err: &DocumentError{File: "config.cue", Problems: []Problem{
				{Path: "server.port", Message: "invalid value 70000"},
				{Message: "expected '}', found EOF"},
			}},
			want: "config.cue: 2 problems:\n  server.port: invalid value 70000\n  expected '}', found EOF",
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

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"build"}, "build"},
		{[]string{"build", "trace_suffix"}, "build.trace_suffix"},
		{[]string{"table", "0", "path"}, "table[0].path"},
		{[]string{"framework", "siblings", "3", "module"}, "framework.siblings[3].module"},
		{[]string{"items", "0", "values", "1"}, "items[0].values[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, false},
		{"within limit", 11, false},
		{"at limit", 100, false},
		{"over limit", 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckFileSize(make([]byte, tt.size), 100, "config.cue")
			if !tt.wantErr {
				if err != nil {
					t.Errorf("CheckFileSize() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrFileTooLarge) {
				t.Fatalf("CheckFileSize() = %v, want ErrFileTooLarge", err)
			}
			var tooLarge *FileTooLargeError
			if !errors.As(err, &tooLarge) || tooLarge.Size != 101 || tooLarge.Limit != 100 {
				t.Errorf("CheckFileSize() = %#v", err)
			}
		})
	}
}
