// SPDX-License-Identifier: MPL-2.0

package buildrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"
)

// DefaultCommand is the build command line. It is expanded with shell quoting
// rules; the variables below are the only ones defined besides the process
// environment.
const DefaultCommand = `dotnet build "$PROJECT" --configuration "$CONFIGURATION" "-logger:$TRACE_LOGGER;$TRACE_LOG"`

// Variables available to the command template.
const (
	VarProject       = "PROJECT"
	VarProjectDir    = "PROJECT_DIR"
	VarConfiguration = "CONFIGURATION"
	VarTraceLog      = "TRACE_LOG"
	VarTraceLogger   = "TRACE_LOGGER"
)

// DefaultConfiguration is the build configuration passed to the build tool.
const DefaultConfiguration = "Debug"

// DefaultTraceLogger is the logger assembly that writes the XML trace log.
const DefaultTraceLogger = "StructuredLogger.dll"

// outputTail bounds how much build output a BuildFailedError keeps.
const outputTail = 8 << 10

var (
	// ErrBuildFailed is returned when the build tool exits non-zero.
	ErrBuildFailed = errors.New("build failed")
	// ErrInvalidCommand is returned when the command template cannot be
	// expanded into a program and arguments.
	ErrInvalidCommand = errors.New("invalid build command")
)

type (
	// Invocation describes one build.
	Invocation struct {
		ProjectPath   string
		TraceLogPath  string
		Configuration string
		// Stdout and Stderr receive the build output. Nil discards it.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runner runs a build and blocks until it finishes.
	Runner interface {
		Run(ctx context.Context, inv Invocation) error
	}

	// ExecRunner runs the build as a child process.
	ExecRunner struct {
		// Command is the command template; empty means DefaultCommand.
		Command string
		// TraceLogger is substituted for $TRACE_LOGGER.
		TraceLogger string
		// Logger receives progress messages. Nil discards them.
		Logger *log.Logger

		// For mocking in tests
		commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd
	}

	// BuildFailedError carries the exit code and the tail of the output of a
	// failed build.
	BuildFailedError struct {
		Project  string
		ExitCode int
		Output   string
	}
)

// Error implements the error interface.
func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("build of %s failed with exit code %d", e.Project, e.ExitCode)
}

// Unwrap returns ErrBuildFailed for errors.Is() compatibility.
func (e *BuildFailedError) Unwrap() error { return ErrBuildFailed }

// NewExecRunner creates a runner for a command template.
func NewExecRunner(command, traceLogger string, logger *log.Logger) *ExecRunner {
	return &ExecRunner{
		Command:     command,
		TraceLogger: traceLogger,
		Logger:      logger,
		commandFunc: exec.CommandContext,
	}
}

// Expand returns the program and arguments for an invocation.
func (r *ExecRunner) Expand(inv Invocation) ([]string, error) {
	tmpl := r.Command
	if tmpl == "" {
		tmpl = DefaultCommand
	}
	vars := map[string]string{
		VarProject:       inv.ProjectPath,
		VarProjectDir:    filepath.Dir(inv.ProjectPath),
		VarConfiguration: orDefault(inv.Configuration, DefaultConfiguration),
		VarTraceLog:      inv.TraceLogPath,
		VarTraceLogger:   orDefault(r.TraceLogger, DefaultTraceLogger),
	}
	fields, err := shell.Fields(tmpl, func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return os.Getenv(name)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q expands to nothing", ErrInvalidCommand, tmpl)
	}
	return fields, nil
}

// Run builds the project in its directory and waits for the build to exit.
// There is no timeout; cancel ctx to stop the build.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	argv, err := r.Expand(inv)
	if err != nil {
		return err
	}
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	newCmd := r.commandFunc
	if newCmd == nil {
		newCmd = exec.CommandContext
	}

	cmd := newCmd(ctx, argv[0], argv[1:]...)
	cmd.Dir = filepath.Dir(inv.ProjectPath)
	tail := &tailBuffer{max: outputTail}
	cmd.Stdout = io.MultiWriter(orDiscard(inv.Stdout), tail)
	cmd.Stderr = io.MultiWriter(orDiscard(inv.Stderr), tail)

	logger.Info("building project", "project", inv.ProjectPath, "command", strings.Join(argv, " "))
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("build of %s cancelled: %w", inv.ProjectPath, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &BuildFailedError{Project: inv.ProjectPath, ExitCode: exitErr.ExitCode(), Output: tail.String()}
		}
		return fmt.Errorf("failed to start %s: %w", argv[0], err)
	}
	logger.Info("project built", "project", inv.ProjectPath)
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// tailBuffer keeps the last max bytes written to it. Stdout and stderr copy
// into it from separate goroutines.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
