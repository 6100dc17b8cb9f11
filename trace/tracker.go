// ABOUTME: Tracker is the execution-step state machine behind the console.
// ABOUTME: It absorbs out-of-order tool events, archives finished traces, and drives view mode.
package trace

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/tusk/protocol"
)

// DefaultSubagentTool is the reserved tool name that marks a step as a
// subagent invocation, making it eligible to parent nested steps.
const DefaultSubagentTool = "task"

// Tracker holds the execution trace for the current or most recent
// session plus the archive of past steps. All methods are safe for
// concurrent use; events themselves must arrive in transport order for
// the matching heuristics to mean anything.
type Tracker struct {
	mu            sync.Mutex
	sessionID     string
	steps         []Step
	streaming     bool
	history       []HistoricalStep
	mode          ViewMode
	pinned        *HistoricalStep
	subagentTools map[string]bool

	archiver *Archiver
	notifier *Notifier
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithSubagentTools replaces the set of tool names whose steps may
// parent subagent steps.
func WithSubagentTools(names ...string) Option {
	return func(t *Tracker) {
		t.subagentTools = make(map[string]bool, len(names))
		for _, n := range names {
			t.subagentTools[n] = true
		}
	}
}

// New creates a Tracker in live mode with no session.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		mode:          ViewLive,
		subagentTools: map[string]bool{DefaultSubagentTool: true},
		archiver:      NewArchiver(),
		notifier:      NewNotifier(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers a change listener channel.
func (t *Tracker) Subscribe() <-chan Change { return t.notifier.Subscribe() }

// Unsubscribe removes and closes a change listener channel.
func (t *Tracker) Unsubscribe(ch <-chan Change) { t.notifier.Unsubscribe(ch) }

// Close shuts down change delivery. The tracker state stays readable.
func (t *Tracker) Close() { t.notifier.Close() }

// StartSession clears the live trace and begins a new session. It
// always returns the view to live mode; new agent activity preempts any
// historical browsing. Returns the fresh session id.
func (t *Tracker) StartSession() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessionID = uuid.New().String()
	t.steps = nil
	t.streaming = true
	t.mode = ViewLive
	t.pinned = nil
	t.emit(ChangeSessionStarted, nil)
	return t.sessionID
}

// RecordCall appends a running step in arrival order. Duplicate or
// out-of-order sequence numbers are expected when the backend runs
// tools concurrently and are never deduplicated.
func (t *Tracker) RecordCall(seq int, toolName string, args protocol.Args) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.steps = append(t.steps, Step{
		Seq:       seq,
		ToolName:  toolName,
		Args:      args.Clone(),
		Status:    StepRunning,
		StartedAt: time.Now(),
	})
	t.emit(ChangeStepAdded, map[string]any{"seq": seq, "tool_name": toolName})
}

// RecordResult completes at most one running step. Matching priority:
// exact sequence number, then earliest running step named toolNameHint,
// then earliest running step of any name. With no running steps the
// result is dropped. The tie-break order compensates for a backend that
// cannot correlate concurrent results reliably; UIs depend on it, so it
// must not be reordered.
func (t *Tracker) RecordResult(seq int, result string, toolNameHint string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.matchResult(seq, toolNameHint)
	if idx < 0 {
		log.Printf("tracker: dropping result for step %d (no running step matches)", seq)
		return
	}
	t.steps[idx].Status = StepCompleted
	t.steps[idx].Result = result
	t.steps[idx].CompletedAt = time.Now()
	t.emit(ChangeStepUpdated, map[string]any{
		"seq":       t.steps[idx].Seq,
		"tool_name": t.steps[idx].ToolName,
	})
}

func (t *Tracker) matchResult(seq int, hint string) int {
	for i := range t.steps {
		if t.steps[i].Status == StepRunning && t.steps[i].Seq == seq {
			return i
		}
	}
	if hint != "" {
		for i := range t.steps {
			if t.steps[i].Status == StepRunning && t.steps[i].ToolName == hint {
				return i
			}
		}
	}
	for i := range t.steps {
		if t.steps[i].Status == StepRunning {
			return i
		}
	}
	return -1
}

// FinishSession ends the current session and archives every step that
// carries a result. Only the first call after StartSession acts;
// cancel followed by a late done event must not archive twice. Steps
// stay visible, and still-running steps stay running. That is a known
// limitation, not a bug to fix here.
func (t *Tracker) FinishSession() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.streaming {
		return
	}
	t.streaming = false

	archived := 0
	for i := range t.steps {
		if t.steps[i].Result == "" {
			continue
		}
		t.history = append(t.history, t.archiver.Archive(t.steps[i]))
		archived++
	}
	t.emit(ChangeSessionFinished, map[string]any{"archived": archived})
}

// AddSubagentStep attaches a running nested step to the most recently
// added step whose tool name marks it as a subagent invocation. With no
// eligible parent the event is dropped.
func (t *Tracker) AddSubagentStep(subagentName string, seq int, toolName string, args protocol.Args) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent := t.latestSubagentParent()
	if parent < 0 {
		log.Printf("tracker: dropping subagent step %s/%d (no parent step)", subagentName, seq)
		return
	}
	t.steps[parent].Subagents = append(t.steps[parent].Subagents, SubagentStep{
		SubagentName: subagentName,
		Seq:          seq,
		ToolName:     toolName,
		Args:         args.Clone(),
		Status:       StepRunning,
	})
	t.emit(ChangeSubagentAdded, map[string]any{
		"subagent":   subagentName,
		"seq":        seq,
		"parent_seq": t.steps[parent].Seq,
	})
}

func (t *Tracker) latestSubagentParent() int {
	for i := len(t.steps) - 1; i >= 0; i-- {
		if t.subagentTools[t.steps[i].ToolName] {
			return i
		}
	}
	return -1
}

// UpdateSubagentStepResult completes the running subagent step matching
// the exact (subagentName, seq) pair. Subagent-scoped numbering is
// assumed reliable, so there is deliberately no fallback heuristic; no
// match means the event is dropped.
func (t *Tracker) UpdateSubagentStepResult(subagentName string, seq int, result string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.steps {
		subs := t.steps[i].Subagents
		for j := range subs {
			if subs[j].SubagentName != subagentName || subs[j].Seq != seq || subs[j].Status != StepRunning {
				continue
			}
			subs[j].Status = StepCompleted
			subs[j].Result = result
			t.emit(ChangeSubagentUpdated, map[string]any{
				"subagent": subagentName,
				"seq":      seq,
			})
			return
		}
	}
	log.Printf("tracker: dropping subagent result %s/%d (no running match)", subagentName, seq)
}

// ShowHistoricalStep pins one archived step and switches to historical
// mode. Live events keep mutating the trace underneath; only the
// display target changes.
func (t *Tracker) ShowHistoricalStep(step HistoricalStep) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pinned := step.clone()
	t.pinned = &pinned
	t.mode = ViewHistorical
	t.emit(ChangeViewChanged, map[string]any{"mode": string(ViewHistorical), "index": step.Index})
}

// ExitHistoricalView returns to live mode. No-op when already live.
func (t *Tracker) ExitHistoricalView() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode == ViewLive {
		return
	}
	t.mode = ViewLive
	t.pinned = nil
	t.emit(ChangeViewChanged, map[string]any{"mode": string(ViewLive)})
}

// Snapshot returns a deep copy of the current state. Mutating the
// returned value never leaks back into the tracker.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		SessionID: t.sessionID,
		Streaming: t.streaming,
		Mode:      t.mode,
		Steps:     make([]Step, len(t.steps)),
		History:   make([]HistoricalStep, len(t.history)),
	}
	for i := range t.steps {
		snap.Steps[i] = t.steps[i].clone()
	}
	for i := range t.history {
		snap.History[i] = t.history[i].clone()
	}
	if t.pinned != nil {
		p := t.pinned.clone()
		snap.Pinned = &p
	}
	return snap
}

// emit must be called with t.mu held so changes observe mutation order.
func (t *Tracker) emit(kind ChangeKind, data map[string]any) {
	t.notifier.Emit(Change{
		Kind:      kind,
		Timestamp: time.Now(),
		SessionID: t.sessionID,
		Data:      data,
	})
}
