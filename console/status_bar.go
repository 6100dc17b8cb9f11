// ABOUTME: Single-line status bar showing session id, state, counts, view mode, and elapsed time.
// ABOUTME: Renders from the tracker snapshot; the app feeds it session start and finish times.
package console

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/tusk/trace"
)

// StatusBar displays session status in a single line.
type StatusBar struct {
	width int
	start time.Time
	end   time.Time
}

// SetWidth sets the bar width for rendering.
func (m *StatusBar) SetWidth(w int) {
	m.width = w
}

// SessionStarted records when the current session began.
func (m *StatusBar) SessionStarted(at time.Time) {
	m.start = at
	m.end = time.Time{}
}

// SessionFinished freezes the elapsed clock.
func (m *StatusBar) SessionFinished(at time.Time) {
	m.end = at
}

// Elapsed returns the current session's wall-clock time, frozen once
// the session finished. Zero before the first session.
func (m StatusBar) Elapsed() time.Duration {
	if m.start.IsZero() {
		return 0
	}
	if !m.end.IsZero() {
		return m.end.Sub(m.start)
	}
	return time.Since(m.start)
}

// formatElapsed formats a duration as a human-readable string.
// Durations under a minute show as seconds (e.g. "12s").
// Durations of a minute or more show as minutes and seconds (e.g. "2m30s").
func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) - minutes*60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// View renders the status bar for the given snapshot.
func (m StatusBar) View(snap trace.Snapshot) string {
	state := "idle"
	switch {
	case snap.Streaming:
		state = "streaming"
	case snap.SessionID != "":
		state = "finished"
	}

	id := snap.SessionID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		id = "-"
	}

	content := fmt.Sprintf("Session: %s | %s | %d steps | %d archived | %s | %s",
		id, state, len(snap.Steps), len(snap.History), snap.Mode, formatElapsed(m.Elapsed()))

	style := StatusBarStyle.Width(m.width)

	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, style.Render(content))
}
