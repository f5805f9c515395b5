package drill

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizcraft/internal/quiz"
	"github.com/abhisek/quizcraft/internal/ui/components"
	"github.com/abhisek/quizcraft/internal/ui/theme"
)

// statusLine renders lives (when limited) and the current streak.
func statusLine(s *quiz.Session) string {
	parts := []string{theme.Streak.Render(fmt.Sprintf("★ %d", s.Streak()))}
	if !s.Config().Lives.Unlimited() {
		parts = append([]string{theme.Lives.Render(fmt.Sprintf("♥ %d", s.Lives()))}, parts...)
	}
	return strings.Join(parts, "   ")
}

func centered(width int, style lipgloss.Style, text string) string {
	return style.Width(width).Align(lipgloss.Center).Render(text)
}

func (d *DrillScreen) View(width, height int) string {
	if d.errMsg != "" {
		return centered(width, theme.Incorrect, "\n\n"+d.errMsg)
	}
	if d.phase == phaseQuitConfirm {
		return renderQuitConfirm(width)
	}
	if d.card.ID == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(d.renderProgress(width))
	b.WriteString("\n\n")

	switch d.mode {
	case inputChoice:
		b.WriteString(centered(width, theme.Question, d.card.Question))
		b.WriteString("\n\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, d.choice.View()))
	case inputSelfAssess:
		b.WriteString(d.renderSelfAssess(width))
	default:
		b.WriteString(centered(width, theme.Question, d.card.Question))
		b.WriteString("\n\n")
		b.WriteString(centered(width, theme.Dim, "Answer: ") + "\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, d.input.View()))
	}

	if d.phase == phaseFeedback {
		b.WriteString("\n\n")
		b.WriteString(d.renderFeedback(width))
	}
	return b.String()
}

func (d *DrillScreen) renderProgress(width int) string {
	sum := d.sess.Summary()
	label := fmt.Sprintf("Card %d/%d", d.sess.CurrentIndex()+1, sum.Total)
	bar := components.NewProgressBar(label, sum.Correct, sum.Answered-sum.Correct, sum.Total, max(min(width-8, 60), 20))
	// Correctness stays hidden until the review.
	bar.Blind = d.sess.Config().Feedback == quiz.FeedbackEndReview
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View())
}

func (d *DrillScreen) renderSelfAssess(width int) string {
	var b strings.Builder
	b.WriteString(centered(width, theme.Question, d.card.Question))
	b.WriteString("\n\n")
	if d.revealed || d.phase == phaseFeedback {
		b.WriteString(centered(width, theme.Reveal, d.card.Answer))
	} else {
		b.WriteString(centered(width, theme.Hint, "Did you know it? Space reveals the answer."))
	}
	return b.String()
}

func (d *DrillScreen) renderFeedback(width int) string {
	out := d.outcome
	if out == nil {
		return ""
	}

	var b strings.Builder
	if out.Correct {
		b.WriteString(centered(width, theme.Correct, "Correct!"))
		if v := out.Verdict; !v.Exact && v.Distance > 0 {
			b.WriteString("\n")
			b.WriteString(centered(width, theme.Dim,
				fmt.Sprintf("Accepted with %s. Spelling: %s", plural(v.Distance, "typo"), out.CorrectAnswer)))
		}
	} else {
		b.WriteString(centered(width, theme.Incorrect, "Not quite"))
		b.WriteString("\n")
		b.WriteString(centered(width, theme.Dim, "Correct answer: ") + "\n")
		b.WriteString(centered(width, theme.Reveal, out.CorrectAnswer))
		b.WriteString("\n\n")
		if text, ok := d.sess.Explanation(out.CardID); ok {
			exp := theme.Explanation.Width(max(min(width-8, 70), 20)).Render(text)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, exp))
		} else if d.sess.ExplanationPending(out.CardID) {
			b.WriteString(centered(width, theme.Hint, "Fetching an explanation..."))
		}
	}

	if out.Ended {
		b.WriteString("\n\n")
		b.WriteString(centered(width, theme.Warning, "Out of lives!"))
	}
	return b.String()
}

func renderQuitConfirm(width int) string {
	return centered(width, theme.Question, "\n\nEnd this drill now?")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
