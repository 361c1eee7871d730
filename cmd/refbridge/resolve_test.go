// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/refbridge/refbridge/internal/buildrun"
	"github.com/refbridge/refbridge/internal/report"
	"github.com/refbridge/refbridge/pkg/resolution"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestResolveCommand_JSON(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.run("resolve", "--format", "json", modelFile); err != nil {
		t.Fatalf("resolve error = %v\nstderr: %s", err, f.stderr.String())
	}

	r, err := report.Decode(f.stdout.Bytes(), report.FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v\n%s", err, f.stdout.String())
	}
	if r.Project != projectPath || r.ProjectOutput != outputPath {
		t.Errorf("Project = %q, ProjectOutput = %q", r.Project, r.ProjectOutput)
	}
	if r.Version != "24.2" {
		t.Errorf("Version = %q, want 24.2", r.Version)
	}
	want := []resolution.Entry{
		{Path: anchorPath},
		{Path: outputPath, ProjectOutput: true},
		{Path: utilsPath},
	}
	if diff := cmp.Diff(want, r.Table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	if len(r.Ignored) != 1 || r.Ignored[0].Path != refOnlyPath {
		t.Errorf("Ignored = %+v, want the reference assembly", r.Ignored)
	}
}

func TestResolveCommand_Project(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.run("resolve", "--project", projectPath, "--format", "yaml"); err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	if !strings.Contains(f.stdout.String(), "project_output: "+outputPath) {
		t.Errorf("YAML report lacks the project output:\n%s", f.stdout.String())
	}
}

func TestResolveCommand_OutputFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	const out = "/reports/app.toml"
	if err := f.run("resolve", "-f", "toml", "-o", out, modelFile); err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	if !strings.Contains(f.stdout.String(), "Report written to") {
		t.Errorf("stdout = %q, want a confirmation", f.stdout.String())
	}

	data, err := afero.ReadFile(f.fs, out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	r, err := report.Decode(data, report.FormatTOML)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(r.Table) != 3 {
		t.Errorf("report table has %d entries, want 3", len(r.Table))
	}
}

func TestResolveCommand_PlainText(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if err := f.run("resolve", modelFile); err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	for _, want := range []string{anchorPath, outputPath, utilsPath} {
		if !strings.Contains(f.stdout.String(), want) {
			t.Errorf("text report lacks %s:\n%s", want, f.stdout.String())
		}
	}
}

func TestResolveCommand_Errors(t *testing.T) {
	t.Parallel()

	t.Run("no input", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		if err := f.run("resolve"); !errors.Is(err, errNoInput) {
			t.Errorf("resolve error = %v, want errNoInput", err)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		if err := f.run("resolve", "-f", "xml", modelFile); !errors.Is(err, report.ErrInvalidFormat) {
			t.Errorf("resolve error = %v, want ErrInvalidFormat", err)
		}
		if f.runner.calls != 0 {
			t.Error("an invalid format should fail before building")
		}
	})

	t.Run("build failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.runner.err = &buildrun.BuildFailedError{Project: projectPath, ExitCode: 1}
		err := f.run("resolve", modelFile)

		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != ExitFailure {
			t.Fatalf("resolve error = %v, want ExitError(%d)", err, ExitFailure)
		}
		if !strings.Contains(f.stderr.String(), "exit code 1") {
			t.Errorf("stderr = %q, want the build failure", f.stderr.String())
		}
	})
}
