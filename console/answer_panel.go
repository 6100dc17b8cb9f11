// ABOUTME: Scrollable answer panel: renders agent answers as terminal markdown,
// ABOUTME: with thinking lines in verbose mode and terminal errors inline.
package console

import (
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// maxThinkingLines bounds the reasoning feed kept per session.
const maxThinkingLines = 5

// AnswerPanel shows the agent's answer and presentation events.
type AnswerPanel struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	width    int
	height   int

	answer   string
	thinking []string
	errText  string
	notice   string
}

// NewAnswerPanel creates an empty answer panel.
func NewAnswerPanel() AnswerPanel {
	return AnswerPanel{viewport: viewport.New(80, 10)}
}

// SetSize sets the available dimensions and rewraps the content.
func (p *AnswerPanel) SetSize(w, h int) {
	p.width = w
	p.height = h
	vpWidth := w - 2
	vpHeight := h - 3
	if vpWidth < 1 {
		vpWidth = 1
	}
	if vpHeight < 1 {
		vpHeight = 1
	}
	p.viewport.Width = vpWidth
	p.viewport.Height = vpHeight
	// Markdown wraps to the panel width, so the renderer is rebuilt.
	p.renderer = nil
	p.sync()
}

// SetAnswer replaces the answer markdown.
func (p *AnswerPanel) SetAnswer(md string) {
	p.answer = md
	p.sync()
}

// AddThinking appends one reasoning line, keeping a bounded feed.
func (p *AnswerPanel) AddThinking(line string) {
	if len(p.thinking) >= maxThinkingLines {
		p.thinking = p.thinking[1:]
	}
	p.thinking = append(p.thinking, line)
	p.sync()
}

// SetError shows a terminal backend error.
func (p *AnswerPanel) SetError(reason string) {
	p.errText = reason
	p.sync()
}

// SetNotice shows a transient one-line notice.
func (p *AnswerPanel) SetNotice(notice string) {
	p.notice = notice
	p.sync()
}

// Clear empties the panel for a new session.
func (p *AnswerPanel) Clear() {
	p.answer = ""
	p.thinking = nil
	p.errText = ""
	p.notice = ""
	p.sync()
}

// Forward passes a message to the embedded viewport, for scroll keys.
func (p *AnswerPanel) Forward(msg tea.Msg) {
	p.viewport, _ = p.viewport.Update(msg)
}

// View renders the answer panel.
func (p AnswerPanel) View() string {
	body := p.viewport.View()
	if p.answer == "" && len(p.thinking) == 0 && p.errText == "" && p.notice == "" {
		body = DimStyle.Render("Waiting for a question.")
	}

	rendered := TitleStyle.Render("ANSWER") + "\n" + body

	return BorderStyle.
		Width(p.width - 2).
		Height(p.height - 2).
		Render(rendered)
}

// sync rebuilds the viewport content and scrolls to the bottom.
func (p *AnswerPanel) sync() {
	var parts []string
	for _, t := range p.thinking {
		parts = append(parts, ThinkingStyle.Render("· "+t))
	}
	if p.answer != "" {
		parts = append(parts, p.renderMarkdown(p.answer))
	}
	if p.errText != "" {
		parts = append(parts, FailedStyle.Render("agent error: "+p.errText))
	}
	if p.notice != "" {
		parts = append(parts, DimStyle.Render(p.notice))
	}
	p.viewport.SetContent(strings.Join(parts, "\n"))
	p.viewport.GotoBottom()
}

// renderMarkdown converts answer markdown to ANSI at the panel width.
// Failures fall back to the raw text; an answer must never be lost to a
// rendering problem.
func (p *AnswerPanel) renderMarkdown(md string) string {
	if p.renderer == nil {
		width := p.viewport.Width
		if width < 10 {
			width = 10
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			log.Printf("console: markdown renderer: %v", err)
			return md
		}
		p.renderer = r
	}
	out, err := p.renderer.Render(md)
	if err != nil {
		log.Printf("console: render markdown: %v", err)
		return md
	}
	return strings.TrimRight(out, "\n")
}
