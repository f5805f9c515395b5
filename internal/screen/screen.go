// Package screen defines what the app router can show.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizcraft/internal/ui/layout"
)

// Screen is one full-window view. Update may hand back a different
// Screen to take its place on the router stack.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	// View draws the body between the header and footer.
	View(width, height int) string
	// Title is shown in the header.
	Title() string
}

// KeyHintProvider screens list their keys in the footer.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider screens show a status, such as lives left, at the right
// of the header.
type StatusProvider interface {
	Status() string
}
