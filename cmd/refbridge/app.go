// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/refbridge/refbridge/internal/buildrun"
	"github.com/refbridge/refbridge/internal/config"
	"github.com/refbridge/refbridge/internal/session"
	"github.com/refbridge/refbridge/internal/tracestore"
	"github.com/refbridge/refbridge/internal/tui"
	"github.com/refbridge/refbridge/pkg/clrmeta"
	"github.com/refbridge/refbridge/pkg/resolution"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: all Cobra command handlers receive an App
	// reference and build the pipeline through it.
	App struct {
		Config config.Provider
		Fs     afero.Fs
		// Runner builds projects. Nil means a buildrun.ExecRunner for the
		// configured command.
		Runner buildrun.Runner
		stdout io.Writer
		stderr io.Writer

		configPath string
		verbose    bool
		cfg        *config.Config
		log        *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Fs     afero.Fs
		Runner buildrun.Runner
		Stdout io.Writer
		Stderr io.Writer
	}

	// spinningRunner shows a spinner while the wrapped runner builds.
	spinningRunner struct {
		runner buildrun.Runner
		output io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}

	return &App{
		Config: deps.Config,
		Fs:     deps.Fs,
		Runner: deps.Runner,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// loadConfig loads the configuration once per invocation. ui.verbose turns
// verbose output on when the flag did not.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	a.cfg = cfg
	return cfg, nil
}

// logger returns the process logger. Progress is logged at debug level, so
// only warnings show unless verbose output is on.
func (a *App) logger() *log.Logger {
	if a.log == nil {
		level := log.WarnLevel
		if a.verbose {
			level = log.DebugLevel
		}
		a.log = log.NewWithOptions(a.stderr, log.Options{
			Prefix:          config.AppName,
			Level:           level,
			ReportTimestamp: a.verbose,
		})
	}
	return a.log
}

// store creates the trace store of the configuration. Verbose runs stream
// the build output; other runs show a spinner instead.
func (a *App) store(cfg *config.Config) *tracestore.Store {
	logger := a.logger()
	runner := a.Runner
	if runner == nil {
		runner = buildrun.NewExecRunner(cfg.Build.Command, cfg.Build.TraceLogger, logger)
	}

	opts := []tracestore.Option{
		tracestore.WithFs(a.Fs),
		tracestore.WithLogger(logger),
		tracestore.WithSuffix(cfg.Build.TraceSuffix),
		tracestore.WithConfiguration(cfg.Build.Configuration),
		tracestore.WithFamily(cfg.Runtime.Family),
		tracestore.WithModuleExtension(cfg.Runtime.ModuleExtension),
	}
	if a.verbose {
		opts = append(opts, tracestore.WithOutput(a.stderr, a.stderr))
	} else {
		runner = &spinningRunner{runner: runner, output: a.stderr}
	}
	return tracestore.New(runner, opts...)
}

// filter returns the module validity filter, or nil when it is disabled.
func (a *App) filter(cfg *config.Config) *clrmeta.Filter {
	if !cfg.Filter.Enabled {
		return nil
	}
	return &clrmeta.Filter{Fs: a.Fs, AcceptedFrameworks: cfg.Filter.AcceptedFrameworks}
}

// openSession runs the pipeline for a model file, or for project when set.
func (a *App) openSession(ctx context.Context, modelFile, project string) (*session.Session, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	deps := session.Dependencies{
		Store:  a.store(cfg),
		Fs:     a.Fs,
		Logger: a.logger(),
		Filter: a.filter(cfg),
		Loader: resolution.MetadataLoader{Fs: a.Fs},
	}
	if project != "" {
		return session.OpenProject(ctx, absPath(project), deps, cfg.SessionOptions())
	}
	return session.Open(ctx, absPath(modelFile), deps, cfg.SessionOptions())
}

// glamourStyle maps the configured color scheme to a glamour style; an empty
// style follows the terminal background.
func (a *App) glamourStyle() string {
	if a.cfg == nil || a.cfg.UI.ColorScheme == config.ColorSchemeAuto {
		return ""
	}
	return a.cfg.UI.ColorScheme.String()
}

// fail renders err with its issue catalog entry and returns an ExitError so
// that the error is not printed a second time.
func (a *App) fail(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	issueID, styled := classifyError(err, a.verbose)
	renderServiceError(a.stderr, newServiceError(err, issueID, styled), a.glamourStyle())
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return &ExitError{Code: ExitFailure, Err: err}
}

// Run implements buildrun.Runner.
func (r *spinningRunner) Run(ctx context.Context, inv buildrun.Invocation) error {
	opts := tui.SpinOptions{
		Title:  "Building " + filepath.Base(inv.ProjectPath),
		Output: r.output,
	}
	return tui.Spin(ctx, opts, func(ctx context.Context) error {
		return r.runner.Run(ctx, inv)
	})
}

// absPath makes a command line path absolute so that the project directory
// and trace log location do not depend on how the path was spelled.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
