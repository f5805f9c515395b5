package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizcraft/internal/ui/theme"
)

// AnswerInput is a focused single-line answer field. After Lock it stops
// taking keys and shows the verdict beside the typed text.
type AnswerInput struct {
	field   textinput.Model
	locked  bool
	correct bool
}

// NewAnswerInput creates a focused input limited to limit characters.
func NewAnswerInput(placeholder string, limit int) AnswerInput {
	field := textinput.New()
	field.Placeholder = placeholder
	field.CharLimit = limit
	field.Prompt = "› "
	field.Focus()
	return AnswerInput{field: field}
}

// Init starts the cursor blinking.
func (a AnswerInput) Init() tea.Cmd { return a.field.Focus() }

func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	if a.locked {
		return a, nil
	}
	var cmd tea.Cmd
	a.field, cmd = a.field.Update(msg)
	return a, cmd
}

// Value is the text typed so far.
func (a AnswerInput) Value() string { return a.field.Value() }

// Blank reports whether nothing but whitespace has been typed.
func (a AnswerInput) Blank() bool { return strings.TrimSpace(a.field.Value()) == "" }

// Lock freezes the input and records whether the answer was accepted.
func (a *AnswerInput) Lock(correct bool) {
	a.locked = true
	a.correct = correct
	a.field.Blur()
}

func (a AnswerInput) View() string {
	view := a.field.View()
	if !a.locked {
		return view
	}
	if a.correct {
		return view + " " + theme.Correct.Render("✓")
	}
	return view + " " + theme.Incorrect.Render("✗")
}
