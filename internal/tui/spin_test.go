// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func TestSpin_NotATerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	wantErr := errors.New("build failed")
	called := false

	err := Spin(context.Background(), SpinOptions{Title: "Building", Output: &buf}, func(context.Context) error {
		called = true
		return wantErr
	})

	if !called {
		t.Fatal("step was not run")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Spin() error = %v, want %v", err, wantErr)
	}
	if buf.Len() != 0 {
		t.Errorf("Spin() rendered to a non-terminal: %q", buf.String())
	}
}

func TestSpin_PassesContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "trace")

	err := Spin(ctx, SpinOptions{Output: &bytes.Buffer{}}, func(ctx context.Context) error {
		if ctx.Value(key{}) != "trace" {
			return errors.New("context not propagated")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Spin() error = %v", err)
	}
}

func TestStepModel_View(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)
	now := start
	m := newStepModel(SpinOptions{Title: "Building App.csproj"}, make(chan struct{}), func() time.Time { return now })

	if view := m.View(); !strings.Contains(view, "Building App.csproj") || strings.Contains(view, "(") {
		t.Errorf("View() at start = %q, want the title without a duration", view)
	}
	now = start.Add(12*time.Second + 400*time.Millisecond)
	if view := m.View(); !strings.HasSuffix(view, "Building App.csproj (12s)") {
		t.Errorf("View() after 12s = %q, want the elapsed time", view)
	}
}

func TestStepModel_Frames(t *testing.T) {
	t.Parallel()

	m := newStepModel(SpinOptions{}, make(chan struct{}), time.Now)
	if got := m.spinner.Spinner.Frames[0]; got != spinner.Dot.Frames[0] {
		t.Errorf("default frame = %q, want the dot spinner", got)
	}
	m = newStepModel(SpinOptions{Frames: spinner.Line}, make(chan struct{}), time.Now)
	if got := m.spinner.Spinner.Frames[0]; got != spinner.Line.Frames[0] {
		t.Errorf("frame = %q, want the line spinner", got)
	}
}

func TestStepModel_DoneQuits(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	m := newStepModel(SpinOptions{Title: "Building App.csproj"}, done, time.Now)
	if m.Init() == nil {
		t.Fatal("Init() returned nil cmd")
	}

	updated, cmd := m.Update(stepDoneMsg{})
	got := updated.(stepModel)
	if !got.finished || got.interrupted {
		t.Errorf("after done: finished=%v interrupted=%v", got.finished, got.interrupted)
	}
	if cmd == nil {
		t.Fatal("Update(done) returned nil cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Update(done) should quit")
	}
	if got.View() != "" {
		t.Errorf("View() after done = %q, want empty", got.View())
	}
	if _, cmd := got.Update(spinner.TickMsg{}); cmd != nil {
		t.Error("a finished spinner should stop ticking")
	}
}

func TestStepModel_CtrlC(t *testing.T) {
	t.Parallel()

	m := newStepModel(SpinOptions{}, make(chan struct{}), time.Now)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	got := updated.(stepModel)
	if !got.interrupted {
		t.Error("ctrl+c should mark the spinner interrupted")
	}
	if cmd == nil {
		t.Fatal("Update(ctrl+c) returned nil cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Update(ctrl+c) should quit")
	}

	other, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if other.(stepModel).interrupted || cmd != nil {
		t.Error("other keys should be ignored")
	}
}

func TestIsTerminal_Buffer(t *testing.T) {
	t.Parallel()

	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is never a terminal")
	}
}

func TestAnimated_Accessible(t *testing.T) {
	t.Setenv("ACCESSIBLE", "1")

	if !IsAccessible() {
		t.Error("IsAccessible() = false with ACCESSIBLE set")
	}
	if Animated(&bytes.Buffer{}) {
		t.Error("Animated() = true in accessible mode")
	}
}
