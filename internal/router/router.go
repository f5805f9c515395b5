// Package router keeps the stack of screens the app shows. Screens
// navigate by returning commands that yield the messages below.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizcraft/internal/screen"
)

// PushScreenMsg opens Screen on top of the current one.
type PushScreenMsg struct {
	Screen screen.Screen
}

// PopScreenMsg returns to the previous screen. The root screen stays.
type PopScreenMsg struct{}

// ReplaceScreenMsg swaps the current screen for Screen, as when a drill
// hands over to its summary.
type ReplaceScreenMsg struct {
	Screen screen.Screen
}

// Router is a stack of screens; only the top one receives messages.
type Router struct {
	screens []screen.Screen
}

// New creates a Router showing root. root's Init is left to the caller.
func New(root screen.Screen) *Router {
	return &Router{screens: []screen.Screen{root}}
}

// Push shows s on top and runs its Init.
func (r *Router) Push(s screen.Screen) tea.Cmd {
	r.screens = append(r.screens, s)
	return s.Init()
}

// Pop drops the top screen unless it is the last one.
func (r *Router) Pop() tea.Cmd {
	if n := len(r.screens); n > 1 {
		r.screens[n-1] = nil
		r.screens = r.screens[:n-1]
	}
	return nil
}

// Replace swaps the top screen for s and runs its Init.
func (r *Router) Replace(s screen.Screen) tea.Cmd {
	if n := len(r.screens); n > 0 {
		r.screens[n-1] = s
		return s.Init()
	}
	return r.Push(s)
}

// Active is the top screen, or nil for an empty router.
func (r *Router) Active() screen.Screen {
	if n := len(r.screens); n > 0 {
		return r.screens[n-1]
	}
	return nil
}

// Depth is the number of stacked screens.
func (r *Router) Depth() int { return len(r.screens) }

// Update applies navigation messages and hands everything else to the
// active screen, which may return a different screen to take its place.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	}

	n := len(r.screens)
	if n == 0 {
		return nil
	}
	next, cmd := r.screens[n-1].Update(msg)
	r.screens[n-1] = next
	return cmd
}

// View renders the active screen into width x height.
func (r *Router) View(width, height int) string {
	if s := r.Active(); s != nil {
		return s.View(width, height)
	}
	return ""
}
