// ABOUTME: The console's single input line for questions, feedback, and confirmations.
// ABOUTME: Wraps bubbles textinput with a mode-aware placeholder.
package console

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const askPlaceholder = "ask a question (!text sends feedback, ctrl+r browses history)"

// InputModel is the always-focused line at the bottom of the console.
type InputModel struct {
	text textinput.Model
}

// NewInputModel creates the input line, focused and unbounded.
func NewInputModel() InputModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = askPlaceholder
	ti.Focus()
	return InputModel{text: ti}
}

// Value returns the current input text.
func (m InputModel) Value() string { return m.text.Value() }

// Reset clears the input text.
func (m *InputModel) Reset() { m.text.Reset() }

// SetWidth bounds the rendered input width.
func (m *InputModel) SetWidth(w int) { m.text.Width = w }

// SetConfirming switches the placeholder while a confirmation is
// pending.
func (m *InputModel) SetConfirming(confirming bool) {
	if confirming {
		m.text.Placeholder = "approve? y/n"
	} else {
		m.text.Placeholder = askPlaceholder
	}
}

// Update forwards key events to the embedded textinput. Cursor-blink
// commands are ignored in sub-model updates.
func (m InputModel) Update(msg tea.Msg) InputModel {
	var cmd tea.Cmd
	m.text, cmd = m.text.Update(msg)
	_ = cmd
	return m
}

// View renders the input line.
func (m InputModel) View() string { return m.text.View() }
