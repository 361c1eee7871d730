// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const labelWidth = 10

// TextStyles style the parts of a text report.
type TextStyles struct {
	Heading lipgloss.Style
	Label   lipgloss.Style
	Path    lipgloss.Style
	Muted   lipgloss.Style
	Warn    lipgloss.Style
}

// PlainTextStyles render without colors or decorations.
func PlainTextStyles() TextStyles {
	plain := lipgloss.NewStyle()
	return TextStyles{Heading: plain, Label: plain, Path: plain, Muted: plain, Warn: plain}
}

// DefaultTextStyles use the terminal palette of the command line.
func DefaultTextStyles() TextStyles {
	return TextStyles{
		Heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true),
		Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}
}

// WriteText renders r for a terminal.
func WriteText(w io.Writer, r *Report, st TextStyles) error {
	var b strings.Builder

	field := func(label, value string) {
		b.WriteString(st.Label.Render(fmt.Sprintf("%-*s", labelWidth, label)))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	field("Project", st.Path.Render(r.Project))
	field("Output", st.Path.Render(r.ProjectOutput))
	trace := st.Path.Render(r.TraceLog)
	if r.TraceCached {
		trace += " " + st.Muted.Render("(cached)")
	}
	field("Trace", trace)
	field("Version", r.Version)

	b.WriteString("\n" + st.Heading.Render("Sources") + "\n")
	for _, s := range r.Sources {
		fmt.Fprintf(&b, "  %-18s offered %-4d candidates %-4d kept %d\n", s.Source, s.Offered, s.Candidates, s.Kept)
	}

	if len(r.Ignored) > 0 {
		b.WriteString("\n" + st.Heading.Render(fmt.Sprintf("Ignored (%d)", len(r.Ignored))) + "\n")
		for _, ig := range r.Ignored {
			fmt.Fprintf(&b, "  %s %s\n", st.Path.Render(ig.Path), st.Warn.Render(ig.Reason))
		}
	}

	if added := r.Added(); len(added) > 0 {
		b.WriteString("\n" + st.Heading.Render(fmt.Sprintf("Siblings added (%d)", len(added))) + "\n")
		for _, s := range added {
			fmt.Fprintf(&b, "  %s\n", st.Path.Render(s.Path))
		}
	}

	b.WriteString("\n" + st.Heading.Render(fmt.Sprintf("Resolution table (%d)", len(r.Table))) + "\n")
	for _, e := range r.Table {
		line := "  " + st.Path.Render(e.Path)
		if e.ProjectOutput {
			line += " " + st.Muted.Render("[output]")
		}
		b.WriteString(line + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
