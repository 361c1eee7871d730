// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette. Each color has a light and a dark terminal variant.
var (
	colorTitle    = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"}
	colorMuted    = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	colorResolved = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	colorMissing  = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorIgnored  = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorPath     = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
)

var (
	// TitleStyle renders command headings.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)

	// SubtitleStyle renders secondary text such as annotations in parentheses.
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)

	// SuccessStyle marks resolved names, loadable modules and confirmations.
	SuccessStyle = lipgloss.NewStyle().Foreground(colorResolved)

	// ErrorStyle marks misses and failures.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMissing)

	// WarningStyle marks ignored modules and stale caches.
	WarningStyle = lipgloss.NewStyle().Foreground(colorIgnored)

	// PathStyle renders file paths and server URLs.
	PathStyle = lipgloss.NewStyle().Foreground(colorPath)

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPath)
)
