package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcraft/internal/ui/theme"
)

// ProgressBar shows how far a run has got, split into correct, missed and
// remaining cards. A Blind bar shows answered cards without their verdict.
type ProgressBar struct {
	Label   string
	Correct int
	Missed  int
	Total   int
	Width   int
	Blind   bool
}

// NewProgressBar creates a progress bar for a run of total cards.
func NewProgressBar(label string, correct, missed, total, width int) ProgressBar {
	return ProgressBar{
		Label:   label,
		Correct: correct,
		Missed:  missed,
		Total:   total,
		Width:   width,
	}
}

// segments splits barWidth cells in proportion to the counts. Rounding
// never pushes the answered cells past the bar.
func (p ProgressBar) segments(barWidth int) (correct, missed, rest int) {
	if p.Total <= 0 {
		return 0, 0, barWidth
	}
	correct = barWidth * p.Correct / p.Total
	answered := barWidth * min(p.Correct+p.Missed, p.Total) / p.Total
	missed = max(answered-correct, 0)
	return correct, missed, barWidth - correct - missed
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	counts := fmt.Sprintf("  %d✓ %d✗", p.Correct, p.Missed)
	if p.Blind {
		counts = fmt.Sprintf("  %d answered", p.Correct+p.Missed)
	}
	barWidth := max(p.Width-lipgloss.Width(b.String())-lipgloss.Width(counts), 4)
	correct, missed, rest := p.segments(barWidth)

	if p.Blind {
		b.WriteString(lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", correct+missed)))
	} else {
		b.WriteString(lipgloss.NewStyle().Background(theme.Success).Render(strings.Repeat(" ", correct)))
		b.WriteString(lipgloss.NewStyle().Background(theme.Error).Render(strings.Repeat(" ", missed)))
	}
	b.WriteString(lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", rest)))
	b.WriteString(theme.Dim.Render(counts))

	return b.String()
}
