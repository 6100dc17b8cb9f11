// ABOUTME: Modal history browser over archived steps with fuzzy filtering,
// ABOUTME: newest first, cursor selection, and an overlay rendering.
package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/2389-research/tusk/trace"
)

// HistoryPanel is the archived-step browser shown over the main layout.
type HistoryPanel struct {
	active  bool
	filter  textinput.Model
	steps   []trace.HistoricalStep
	matched []int
	cursor  int
	width   int
	height  int
}

// NewHistoryPanel creates a closed history browser.
func NewHistoryPanel() HistoryPanel {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.Placeholder = "tool or result text"
	ti.CharLimit = 120
	return HistoryPanel{filter: ti}
}

// SetSize sets the terminal dimensions the overlay is centered in.
func (p *HistoryPanel) SetSize(w, h int) {
	p.width = w
	p.height = h
}

// Active reports whether the browser is open.
func (p HistoryPanel) Active() bool {
	return p.active
}

// Open shows the browser over the given archive, newest first.
func (p *HistoryPanel) Open(history []trace.HistoricalStep) {
	p.active = true
	p.steps = make([]trace.HistoricalStep, len(history))
	for i, h := range history {
		p.steps[len(history)-1-i] = h
	}
	p.filter.SetValue("")
	p.filter.Focus()
	p.cursor = 0
	p.refilter()
}

// Close hides the browser.
func (p *HistoryPanel) Close() {
	p.active = false
	p.filter.Blur()
}

// MoveUp moves the cursor toward the newest match.
func (p *HistoryPanel) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// MoveDown moves the cursor toward the oldest match.
func (p *HistoryPanel) MoveDown() {
	if p.cursor < len(p.matched)-1 {
		p.cursor++
	}
}

// Selected returns the archived step under the cursor.
func (p HistoryPanel) Selected() (trace.HistoricalStep, bool) {
	if p.cursor < 0 || p.cursor >= len(p.matched) {
		return trace.HistoricalStep{}, false
	}
	return p.steps[p.matched[p.cursor]], true
}

// Forward feeds a key to the filter input and refilters on change.
func (p *HistoryPanel) Forward(msg tea.Msg) {
	before := p.filter.Value()
	p.filter, _ = p.filter.Update(msg)
	if p.filter.Value() != before {
		p.cursor = 0
		p.refilter()
	}
}

// refilter recomputes the visible matches for the current filter text.
// Matches keep fuzzy's score order; an empty filter shows everything.
func (p *HistoryPanel) refilter() {
	query := strings.TrimSpace(p.filter.Value())
	if query == "" {
		p.matched = make([]int, len(p.steps))
		for i := range p.steps {
			p.matched[i] = i
		}
	} else {
		targets := make([]string, len(p.steps))
		for i, h := range p.steps {
			targets[i] = h.ToolName + " " + h.Result
		}
		matches := fuzzy.Find(query, targets)
		p.matched = make([]int, 0, len(matches))
		for _, m := range matches {
			p.matched = append(p.matched, m.Index)
		}
	}
	if p.cursor >= len(p.matched) {
		p.cursor = len(p.matched) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// View renders the overlay box.
func (p HistoryPanel) View() string {
	innerWidth := p.width - 12
	if innerWidth > 72 {
		innerWidth = 72
	}
	if innerWidth < 24 {
		innerWidth = 24
	}
	maxRows := p.height - 12
	if maxRows > 14 {
		maxRows = 14
	}
	if maxRows < 3 {
		maxRows = 3
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("STEP HISTORY"))
	b.WriteString("\n")
	b.WriteString(p.filter.View())
	b.WriteString("\n")
	b.WriteString(DimStyle.Render(fmt.Sprintf("%d of %d archived", len(p.matched), len(p.steps))))
	b.WriteString("\n\n")

	if len(p.steps) == 0 {
		b.WriteString(DimStyle.Render("No archived steps yet."))
	} else if len(p.matched) == 0 {
		b.WriteString(DimStyle.Render("No archived steps match."))
	} else {
		start := 0
		if p.cursor >= maxRows {
			start = p.cursor - maxRows + 1
		}
		end := start + maxRows
		if end > len(p.matched) {
			end = len(p.matched)
		}
		for i := start; i < end; i++ {
			h := p.steps[p.matched[i]]
			line := truncate(fmt.Sprintf("#%-3d %-20s %s", h.Index, h.ToolName, resultPreview(h.Result)), innerWidth)
			if i == p.cursor {
				line = SelectedStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(DimStyle.Render("enter views step, esc closes"))

	return OverlayStyle.Width(innerWidth + 4).Render(b.String())
}
