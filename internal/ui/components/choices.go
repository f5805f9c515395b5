package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcraft/internal/ui/theme"
)

// Choices is a lettered option list. The cursor moves with the arrow
// keys (or j/k) and wraps; enter picks the highlighted option, and a
// letter or digit picks directly. Once picked the list is frozen and
// marks the answer and the pick.
type Choices struct {
	Options []string
	Answer  int // index of the correct option, -1 if none

	cursor int
	picked int
}

// NewChoices creates a list over options with the correct one at answer.
func NewChoices(options []string, answer int) Choices {
	return Choices{Options: options, Answer: answer, picked: -1}
}

// OptionLabel returns the letter shown before option i.
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

// shortcut maps "a"/"A"/"1" style keys to an option index.
func shortcut(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	switch c := key[0]; {
	case 'a' <= c && c <= 'z':
		return int(c - 'a'), true
	case 'A' <= c && c <= 'Z':
		return int(c - 'A'), true
	case '1' <= c && c <= '9':
		return int(c - '1'), true
	}
	return 0, false
}

func (c Choices) Update(msg tea.Msg) (Choices, tea.Cmd) {
	k, ok := msg.(tea.KeyPressMsg)
	if !ok || c.picked >= 0 || len(c.Options) == 0 {
		return c, nil
	}

	n := len(c.Options)
	switch k.String() {
	case "up", "k":
		c.cursor = (c.cursor + n - 1) % n
	case "down", "j":
		c.cursor = (c.cursor + 1) % n
	case "enter":
		c.picked = c.cursor
	default:
		if i, ok := shortcut(k.String()); ok && i < n {
			c.cursor, c.picked = i, i
		}
	}
	return c, nil
}

// Picked returns the chosen option once one has been picked.
func (c Choices) Picked() (string, bool) {
	if c.picked < 0 {
		return "", false
	}
	return c.Options[c.picked], true
}

// Cursor is the highlighted option index.
func (c Choices) Cursor() int { return c.cursor }

func (c Choices) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		marker := "  "
		if c.picked < 0 && i == c.cursor {
			marker = "▸ "
		}
		line := marker + OptionLabel(i) + ")  " + opt
		b.WriteString(c.style(i).Render(line))
		b.WriteByte('\n')
	}
	return b.String()
}

func (c Choices) style(i int) lipgloss.Style {
	switch {
	case c.picked < 0 && i == c.cursor:
		return lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	case c.picked < 0:
		return lipgloss.NewStyle().Foreground(theme.Text)
	case i == c.Answer:
		return theme.Correct
	case i == c.picked:
		return theme.Incorrect
	}
	return theme.Dim
}
