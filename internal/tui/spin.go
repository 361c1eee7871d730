// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// elapsedAfter is how long a step runs before its duration is shown.
const elapsedAfter = 2 * time.Second

var spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"})

type (
	// SpinOptions configures Spin.
	SpinOptions struct {
		// Title is shown next to the spinner, e.g. "Building App.csproj".
		Title string
		// Output is where the spinner renders. Defaults to os.Stderr.
		Output io.Writer
		// Frames overrides the animation. Defaults to spinner.Dot.
		Frames spinner.Spinner
	}

	// stepModel animates until done is closed or the user presses ctrl+c.
	stepModel struct {
		title       string
		spinner     spinner.Model
		done        <-chan struct{}
		started     time.Time
		now         func() time.Time
		finished    bool
		interrupted bool
	}

	stepDoneMsg struct{}
)

// Spin runs step while a spinner and the elapsed time are shown on
// opts.Output. Without a terminal the step runs silently. ctrl+c cancels the
// context passed to step; Spin still waits for step to return and returns
// its error. Rendering failures are ignored.
func Spin(ctx context.Context, opts SpinOptions, step func(context.Context) error) error {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if !Animated(opts.Output) {
		return step(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	var stepErr error
	go func() {
		defer close(done)
		stepErr = step(ctx)
	}()

	program := tea.NewProgram(newStepModel(opts, done, time.Now),
		tea.WithOutput(opts.Output),
		tea.WithContext(ctx))
	final, err := program.Run()
	if m, ok := final.(stepModel); (ok && m.interrupted) || errors.Is(err, tea.ErrInterrupted) {
		cancel()
	}
	<-done

	return stepErr
}

func newStepModel(opts SpinOptions, done <-chan struct{}, now func() time.Time) stepModel {
	frames := opts.Frames
	if len(frames.Frames) == 0 {
		frames = spinner.Dot
	}
	return stepModel{
		title:   opts.Title,
		spinner: spinner.New(spinner.WithSpinner(frames), spinner.WithStyle(spinnerStyle)),
		done:    done,
		started: now(),
		now:     now,
	}
}

func (m stepModel) Init() tea.Cmd {
	done := m.done
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		<-done
		return stepDoneMsg{}
	})
}

func (m stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepDoneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.finished = true
			m.interrupted = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m stepModel) View() string {
	if m.finished {
		return ""
	}
	view := m.spinner.View()
	if m.title != "" {
		view += " " + m.title
	}
	if d := m.now().Sub(m.started); d >= elapsedAfter {
		view += fmt.Sprintf(" (%s)", d.Truncate(time.Second))
	}
	return view
}
