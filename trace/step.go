// ABOUTME: Data model for the execution trace: live steps, nested subagent steps,
// ABOUTME: immutable archived steps, and the read-only Snapshot handed to UIs.
package trace

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/2389-research/tusk/protocol"
)

// StepStatus is the lifecycle state of a step.
type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// ViewMode selects what the host UI should display.
type ViewMode string

const (
	ViewLive       ViewMode = "live"
	ViewHistorical ViewMode = "historical"
)

// Step is one tool invocation in the current session's trace. The
// backend's sequence numbers are not guaranteed unique when tools run
// concurrently, so Seq identifies a step only loosely; list position is
// the stable ordering.
type Step struct {
	Seq         int
	ToolName    string
	Args        protocol.Args
	Result      string
	Status      StepStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Subagents   []SubagentStep
}

// SubagentStep is a nested tool invocation made by a named subagent on
// behalf of its parent Step. Seq is scoped to the subagent.
type SubagentStep struct {
	SubagentName string
	Seq          int
	ToolName     string
	Args         protocol.Args
	Result       string
	Status       StepStatus
}

// HistoricalStep is an archived step from a finished session. Immutable
// once created; Index is unique across the whole archive and ID gives
// it a stable identity for UIs and logs.
type HistoricalStep struct {
	ID         ulid.ULID
	Index      uint64
	ToolName   string
	Args       protocol.Args
	Result     string
	ArchivedAt time.Time
}

// Snapshot is a deep copy of the tracker's state at one instant.
// Mutating a snapshot never affects the tracker.
type Snapshot struct {
	SessionID string
	Steps     []Step
	Streaming bool
	Mode      ViewMode
	Pinned    *HistoricalStep
	History   []HistoricalStep
}

func (s Step) clone() Step {
	out := s
	out.Args = s.Args.Clone()
	if s.Subagents != nil {
		out.Subagents = make([]SubagentStep, len(s.Subagents))
		for i, sub := range s.Subagents {
			out.Subagents[i] = sub.clone()
		}
	}
	return out
}

func (s SubagentStep) clone() SubagentStep {
	out := s
	out.Args = s.Args.Clone()
	return out
}

func (h HistoricalStep) clone() HistoricalStep {
	out := h
	out.Args = h.Args.Clone()
	return out
}

// Elapsed reports how long the step has been running, or its total
// runtime once completed.
func (s Step) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if !s.CompletedAt.IsZero() {
		return s.CompletedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}
