// SPDX-License-Identifier: MPL-2.0

package tracestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/refbridge/refbridge/internal/buildrun"
	"github.com/refbridge/refbridge/pkg/buildtrace"
	"github.com/refbridge/refbridge/pkg/refcollect"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

// DefaultSuffix is appended to the project path to name the trace log.
const DefaultSuffix = ".refbridge.xml"

var (
	// ErrBuildFailed is returned when the build exits non-zero or its fresh
	// trace records an error.
	ErrBuildFailed = buildrun.ErrBuildFailed
	// ErrTraceUnreadable is returned when the trace log of a fresh build
	// cannot be read or decoded.
	ErrTraceUnreadable = errors.New("trace log unreadable")
)

type (
	// Result is an obtained trace.
	Result struct {
		Trace *buildtrace.Trace
		// Cached reports that the trace was reused without building.
		Cached bool
		// LogPath is the trace log location.
		LogPath string
	}

	// TraceErrorsError reports a fresh trace that records a build error.
	TraceErrorsError struct {
		LogPath string
		Message string
	}

	// Store obtains traces for projects.
	Store struct {
		fs            afero.Fs
		runner        buildrun.Runner
		logger        *log.Logger
		suffix        string
		configuration string
		family        buildtrace.RuntimeFamily
		ext           string
		stdout        io.Writer
		stderr        io.Writer
	}

	// Option configures a Store.
	Option func(*Store)
)

// Error implements the error interface.
func (e *TraceErrorsError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: trace %s records a failed build", ErrBuildFailed, e.LogPath)
	}
	return fmt.Sprintf("%s: trace %s records an error: %s", ErrBuildFailed, e.LogPath, e.Message)
}

// Unwrap returns ErrBuildFailed for errors.Is() compatibility.
func (e *TraceErrorsError) Unwrap() error { return ErrBuildFailed }

// WithFs sets the filesystem the trace log and output module are read from.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) { s.fs = fs }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithSuffix sets the trace log suffix.
func WithSuffix(suffix string) Option {
	return func(s *Store) { s.suffix = suffix }
}

// WithConfiguration sets the build configuration.
func WithConfiguration(c string) Option {
	return func(s *Store) { s.configuration = c }
}

// WithFamily sets the runtime family used to locate the project output in a
// cached trace.
func WithFamily(f buildtrace.RuntimeFamily) Option {
	return func(s *Store) { s.family = f }
}

// WithModuleExtension sets the compiled module extension.
func WithModuleExtension(ext string) Option {
	return func(s *Store) { s.ext = ext }
}

// WithOutput sets where build output is written.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Store) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

// New creates a store running builds through runner.
func New(runner buildrun.Runner, opts ...Option) *Store {
	s := &Store{
		runner:        runner,
		suffix:        DefaultSuffix,
		configuration: buildrun.DefaultConfiguration,
		family:        buildtrace.FamilyModern,
		ext:           refcollect.DefaultModuleExtension,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// LogPath returns the trace log path of a project.
func (s *Store) LogPath(projectPath string) string {
	return projectPath + s.suffix
}

// Obtain returns the trace of the project, building it when the cached log
// is missing, erroneous or older than the project output module.
func (s *Store) Obtain(ctx context.Context, projectPath string) (*Result, error) {
	logPath := s.LogPath(projectPath)

	if t, ok := s.cached(projectPath, logPath); ok {
		s.logger.Info("using cached build trace", "project", projectPath, "trace", logPath)
		return &Result{Trace: t, Cached: true, LogPath: logPath}, nil
	}

	s.logger.Info("building project", "project", projectPath, "configuration", s.configuration)
	err := s.runner.Run(ctx, buildrun.Invocation{
		ProjectPath:   projectPath,
		TraceLogPath:  logPath,
		Configuration: s.configuration,
		Stdout:        s.stdout,
		Stderr:        s.stderr,
	})
	if err != nil {
		return nil, err
	}

	t, err := s.read(logPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTraceUnreadable, err)
	}
	if t.HasErrors() {
		var msg string
		if n, ok := t.FirstError(); ok {
			msg = n.Value()
		}
		return nil, &TraceErrorsError{LogPath: logPath, Message: msg}
	}
	s.logger.Info("project built", "project", projectPath, "nodes", t.Len())
	return &Result{Trace: t, LogPath: logPath}, nil
}

// cached returns the cached trace when it can be reused.
func (s *Store) cached(projectPath, logPath string) (*buildtrace.Trace, bool) {
	if _, err := s.fs.Stat(logPath); err != nil {
		return nil, false
	}
	t, err := s.read(logPath)
	if err != nil {
		s.logger.Debug("cached trace unreadable", "trace", logPath, "error", err)
		return nil, false
	}
	if t.HasErrors() {
		s.logger.Debug("cached trace records errors", "trace", logPath)
		return nil, false
	}

	c, err := refcollect.New(t, projectPath,
		refcollect.WithFs(s.fs),
		refcollect.WithFamily(s.family),
		refcollect.WithModuleExtension(s.ext))
	if err != nil {
		s.logger.Debug("cached trace has no usable evaluation", "trace", logPath, "error", err)
		return nil, false
	}
	output, err := c.ProjectOutput()
	if err != nil {
		s.logger.Debug("cached trace names no output", "trace", logPath, "error", err)
		return nil, false
	}
	info, err := s.fs.Stat(output)
	if err != nil {
		s.logger.Debug("project output missing", "output", output)
		return nil, false
	}
	if t.EndTime().Before(info.ModTime()) {
		s.logger.Debug("cached trace is stale", "trace_end", t.EndTime(), "output_modified", info.ModTime())
		return nil, false
	}
	return t, true
}

func (s *Store) read(logPath string) (*buildtrace.Trace, error) {
	f, err := s.fs.Open(logPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return buildtrace.Decode(f)
}
