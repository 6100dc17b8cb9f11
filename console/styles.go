// ABOUTME: Lipgloss style constants shared by the console panels.
// ABOUTME: Maps step statuses to display styles and holds the spinner frames.
package console

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/tusk/trace"
)

var (
	// Panel borders
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	// Title styling
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	// Status colors
	PendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	RunningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	CompletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	FailedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Secondary text inside panels
	DimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	ThinkingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	SubagentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	// Detail labels in the pinned-step card
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(10)
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// History browser overlay
	OverlayStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(1, 2)

	// Selected row in the history browser
	SelectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// SpinnerFrames contains the Braille-dot animation frames for running
// steps.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StyleForStatus returns the display style for a step status.
func StyleForStatus(status trace.StepStatus) lipgloss.Style {
	switch status {
	case trace.StepRunning:
		return RunningStyle
	case trace.StepCompleted:
		return CompletedStyle
	case trace.StepError:
		return FailedStyle
	default:
		return PendingStyle
	}
}

// GlyphForStatus returns the status marker rendered before a step line.
// Running steps animate, so the caller passes the current spinner index.
func GlyphForStatus(status trace.StepStatus, spinnerIdx int) string {
	switch status {
	case trace.StepRunning:
		return SpinnerFrames[spinnerIdx%len(SpinnerFrames)]
	case trace.StepCompleted:
		return "✓"
	case trace.StepError:
		return "✗"
	default:
		return " "
	}
}
