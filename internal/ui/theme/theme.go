// Package theme holds the palette and shared styles of the drill UI.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Text styles
var (
	Question = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	// Reveal shows a correct answer the learner did not type.
	Reveal = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Explanation = lipgloss.NewStyle().
			Foreground(Text).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(Secondary).
			PaddingLeft(1)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Verdicts
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Warning marks run-ending events such as running out of lives.
	Warning = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)
)

// Run status
var (
	Lives = lipgloss.NewStyle().
		Foreground(Error)

	Streak = lipgloss.NewStyle().
		Foreground(Accent)
)
