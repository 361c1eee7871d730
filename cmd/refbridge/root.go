// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the refbridge command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "refbridge",
		Short: "Resolve the compiled references of a project for dynamic loading",
		Long: TitleStyle.Render("refbridge") + SubtitleStyle.Render(" - build trace reference resolution") + `

refbridge builds a project with a structured trace logger, mines the trace
for every compiled module the project references, rewrites reference-only
paths to their runtime counterparts and answers "where is module X?" for a
host that loads the project's framework dynamically.

The trace is cached next to the project and reused until the project output
is rebuilt.

` + SubtitleStyle.Render("Examples:") + `
  refbridge resolve Model.DesignedDiffs.xafml          Print the resolution report
  refbridge resolve --format json Model.xafml          Report as JSON
  refbridge lookup --model Model.xafml DevExpress.Data.v24.2
  refbridge serve Model.xafml                          Serve the table over HTTP
  refbridge inspect bin/Debug/net8.0/App.dll           Show module metadata`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/refbridge/config.cue)")

	rootCmd.AddCommand(
		newResolveCommand(app),
		newTraceCommand(app),
		newLookupCommand(app),
		newServeCommand(app),
		newInspectCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display. Versions
// set via -ldflags win; binaries built by go install report their module
// version.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version + " (go install)"
	}
	return "dev (built from source)"
}

// Execute runs the command tree and exits with the command's exit code.
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// handleError prints errors the commands have not reported themselves,
// such as usage errors.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
