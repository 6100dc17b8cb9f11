// ABOUTME: Renders the execution trace: arrival-ordered steps with status glyphs,
// ABOUTME: durations, result previews, and nested subagent rows; or one pinned archived step.
package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/2389-research/tusk/trace"
)

// TracePanel renders the live trace, or the pinned archived step while
// the view is historical.
type TracePanel struct {
	width  int
	height int
}

// SetSize sets the available dimensions, borders included.
func (p *TracePanel) SetSize(w, h int) {
	p.width = w
	p.height = h
}

// View renders the panel for the given snapshot.
func (p TracePanel) View(snap trace.Snapshot, spinnerIdx int, now time.Time) string {
	title := "TRACE"
	var content string
	if snap.Mode == trace.ViewHistorical && snap.Pinned != nil {
		title = "ARCHIVED STEP"
		content = p.renderPinned(*snap.Pinned)
	} else {
		content = p.renderLive(snap, spinnerIdx, now)
	}

	rendered := TitleStyle.Render(title) + "\n" + content

	return BorderStyle.
		Width(p.width - 2).
		Height(p.height - 2).
		Render(rendered)
}

// renderLive lists the session's steps in arrival order. When the list
// outgrows the panel the oldest lines scroll off the top.
func (p TracePanel) renderLive(snap trace.Snapshot, spinnerIdx int, now time.Time) string {
	if len(snap.Steps) == 0 {
		return DimStyle.Render("No steps yet. Ask a question below.")
	}

	var lines []string
	for _, step := range snap.Steps {
		lines = append(lines, p.renderStepLine(step, spinnerIdx, now))
		if preview := resultPreview(step.Result); preview != "" {
			lines = append(lines, DimStyle.Render("    → "+truncate(preview, p.width-8)))
		}
		for _, sub := range step.Subagents {
			lines = append(lines, p.renderSubagentLine(sub, spinnerIdx))
		}
	}

	maxLines := p.height - 3
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}

func (p TracePanel) renderStepLine(step trace.Step, spinnerIdx int, now time.Time) string {
	glyph := GlyphForStatus(step.Status, spinnerIdx)
	style := StyleForStatus(step.Status)

	line := fmt.Sprintf("  %s #%d %s", glyph, step.Seq, step.ToolName)
	if step.Status == trace.StepRunning {
		line += fmt.Sprintf("  running %s", formatDuration(step.Elapsed(now)))
	} else {
		line += fmt.Sprintf("  %s", formatDuration(step.Elapsed(now)))
	}
	return style.Render(truncate(line, p.width-4))
}

func (p TracePanel) renderSubagentLine(sub trace.SubagentStep, spinnerIdx int) string {
	glyph := GlyphForStatus(sub.Status, spinnerIdx)
	line := fmt.Sprintf("    └ %s %s/%d %s", glyph, sub.SubagentName, sub.Seq, sub.ToolName)
	if sub.Status != trace.StepRunning && sub.Result != "" {
		line += "  " + resultPreview(sub.Result)
	}
	return SubagentStyle.Render(truncate(line, p.width-4))
}

// renderPinned shows one archived step as a label/value card.
func (p TracePanel) renderPinned(h trace.HistoricalStep) string {
	var b strings.Builder

	row := func(label, value string) {
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(ValueStyle.Render(truncate(value, p.width-16)))
		b.WriteString("\n")
	}

	row("Index:", fmt.Sprintf("%d", h.Index))
	row("Tool:", h.ToolName)
	row("Archived:", h.ArchivedAt.Format("15:04:05"))

	if h.Args.Len() > 0 {
		b.WriteString(LabelStyle.Render("Args:"))
		b.WriteString("\n")
		for _, name := range h.Args.Keys() {
			value, _ := h.Args.Get(name)
			b.WriteString(ValueStyle.Render(truncate(fmt.Sprintf("  %s: %s", name, value), p.width-6)))
			b.WriteString("\n")
		}
	}

	b.WriteString(LabelStyle.Render("Result:"))
	b.WriteString("\n")
	maxResult := p.height - 10
	if maxResult < 1 {
		maxResult = 1
	}
	for i, line := range strings.Split(h.Result, "\n") {
		if i >= maxResult {
			b.WriteString(DimStyle.Render("  …"))
			break
		}
		b.WriteString(ValueStyle.Render(truncate("  "+line, p.width-6)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(DimStyle.Render("esc returns to live"))
	return b.String()
}

// resultPreview reduces a result to its first non-empty line.
func resultPreview(result string) string {
	for _, line := range strings.Split(result, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// formatDuration formats a duration as a human-readable string like
// "0.1s" or "2m03s".
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 10 {
		return fmt.Sprintf("%.1fs", secs)
	}
	if secs < 60 {
		return fmt.Sprintf("%.0fs", secs)
	}
	mins := int(secs) / 60
	remainSecs := int(secs) % 60
	return fmt.Sprintf("%dm%02ds", mins, remainSecs)
}

// truncate bounds s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
