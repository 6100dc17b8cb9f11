// ABOUTME: Tests for the root console model: submitting questions, feedback
// ABOUTME: lines, confirmations, cancel, and the history browser flow.
package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/tusk/protocol"
	"github.com/2389-research/tusk/trace"
)

type decision struct {
	id      string
	approve bool
}

// fakeAgent records console calls and hands back a fixed stream.
type fakeAgent struct {
	submitted []string
	feedback  []string
	decisions []decision
	cancels   int
	stream    trace.Stream
	submitErr error
}

func (a *fakeAgent) Submit(_ context.Context, question string) (trace.Stream, error) {
	a.submitted = append(a.submitted, question)
	if a.submitErr != nil {
		return nil, a.submitErr
	}
	return a.stream, nil
}

func (a *fakeAgent) Feedback(content string) error {
	a.feedback = append(a.feedback, content)
	return nil
}

func (a *fakeAgent) Decide(id string, approve bool) error {
	a.decisions = append(a.decisions, decision{id: id, approve: approve})
	return nil
}

func (a *fakeAgent) CancelRun() error {
	a.cancels++
	return nil
}

// sliceStream plays fixed events and then reports EOF.
type sliceStream struct {
	events []protocol.Event
	pos    int
	closed bool
}

func (s *sliceStream) Next() (protocol.Event, error) {
	if s.closed || s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

func newTestModel(t *testing.T, agent Agent) (Model, *trace.Tracker) {
	t.Helper()
	tracker := trace.New()
	m := New(Config{Tracker: tracker, Agent: agent})
	return resize(t, m, 100, 30), tracker
}

func resize(t *testing.T, m Model, w, h int) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return updated.(Model)
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(key)
	return updated.(Model), cmd
}

func typeLine(t *testing.T, m Model, s string) Model {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return updated.(Model)
}

func testArgs(t *testing.T, name string, value any) protocol.Args {
	t.Helper()
	var args protocol.Args
	if err := args.Set(name, value); err != nil {
		t.Fatalf("Set(%q): %v", name, err)
	}
	return args
}

func TestModel_SubmitRunsFullLoop(t *testing.T) {
	agent := &fakeAgent{stream: &sliceStream{events: []protocol.Event{
		protocol.ToolCall{Step: 1, ToolName: "execute_sql", Args: testArgs(t, "query", "SELECT 1")},
		protocol.ToolResult{Step: 1, Result: "3 rows"},
		protocol.Message{Content: "Revenue grew 17.4% month over month."},
		protocol.Done{},
	}}}
	m, tracker := newTestModel(t, agent)

	m = typeLine(t, m, "show monthly revenue")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.asking {
		t.Fatal("model not asking after submit")
	}
	if cmd == nil {
		t.Fatal("submit produced no command")
	}

	msg := cmd()
	opened, ok := msg.(StreamOpenedMsg)
	if !ok {
		t.Fatalf("got %T, want StreamOpenedMsg", msg)
	}
	if len(agent.submitted) != 1 || agent.submitted[0] != "show monthly revenue" {
		t.Fatalf("submitted = %v, want the question", agent.submitted)
	}

	updated, pump := m.Update(opened)
	m = updated.(Model)
	if pump == nil {
		t.Fatal("opened stream produced no pump command")
	}
	msg = pump()
	done, ok := msg.(StreamDoneMsg)
	if !ok {
		t.Fatalf("got %T, want StreamDoneMsg", msg)
	}
	if done.Err != nil {
		t.Fatalf("pump error: %v", done.Err)
	}

	updated, _ = m.Update(done)
	m = updated.(Model)
	if m.asking {
		t.Error("still asking after stream end")
	}

	snap := tracker.Snapshot()
	if len(snap.Steps) != 1 {
		t.Fatalf("len(Steps) = %d, want 1", len(snap.Steps))
	}
	if snap.Steps[0].Status != trace.StepCompleted {
		t.Errorf("step status = %q, want completed", snap.Steps[0].Status)
	}
	if snap.Streaming {
		t.Error("session still streaming after done")
	}
	if len(snap.History) != 1 {
		t.Errorf("len(History) = %d, want 1", len(snap.History))
	}

	// The answer note is waiting on the presenter channel.
	noteMsg := waitForNoteCmd(m.notes)()
	answer, ok := noteMsg.(AnswerMsg)
	if !ok {
		t.Fatalf("got %T, want AnswerMsg", noteMsg)
	}
	updated, _ = m.Update(answer)
	m = updated.(Model)
	if !strings.Contains(m.View(), "17.4%") {
		t.Error("answer panel does not show the answer")
	}
}

func TestModel_FeedbackLineRoutesToAgent(t *testing.T) {
	agent := &fakeAgent{}
	m, tracker := newTestModel(t, agent)

	m = typeLine(t, m, "!be more concise")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(agent.feedback) != 1 || agent.feedback[0] != "be more concise" {
		t.Fatalf("feedback = %v, want the bare text", agent.feedback)
	}
	if len(agent.submitted) != 0 {
		t.Error("feedback line must not submit a question")
	}
	if tracker.Snapshot().SessionID != "" {
		t.Error("feedback line must not start a session")
	}
	if m.input.Value() != "" {
		t.Error("input not cleared after feedback")
	}
}

func TestModel_ConfirmationDecision(t *testing.T) {
	agent := &fakeAgent{}
	m, _ := newTestModel(t, agent)

	updated, _ := m.Update(ConfirmationMsg{ID: "confirm-1", Prompt: "Archive 112 orders?"})
	m = updated.(Model)
	if m.confirmID != "confirm-1" {
		t.Fatalf("confirmID = %q, want confirm-1", m.confirmID)
	}
	if !strings.Contains(m.View(), "Archive 112 orders?") {
		t.Error("confirmation prompt not shown")
	}

	m = typeLine(t, m, "y")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(agent.decisions) != 1 {
		t.Fatalf("len(decisions) = %d, want 1", len(agent.decisions))
	}
	if d := agent.decisions[0]; d.id != "confirm-1" || !d.approve {
		t.Errorf("decision = %+v, want approval of confirm-1", d)
	}
	if m.confirmID != "" {
		t.Error("confirmation still pending after decision")
	}
}

func TestModel_ConfirmationDenied(t *testing.T) {
	agent := &fakeAgent{}
	m, _ := newTestModel(t, agent)

	updated, _ := m.Update(ConfirmationMsg{ID: "confirm-2", Prompt: "Drop the table?"})
	m = updated.(Model)
	m = typeLine(t, m, "no")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(agent.decisions) != 1 {
		t.Fatalf("len(decisions) = %d, want 1", len(agent.decisions))
	}
	if d := agent.decisions[0]; d.id != "confirm-2" || d.approve {
		t.Errorf("decision = %+v, want denial of confirm-2", d)
	}
}

func TestModel_CancelFinishesSessionImmediately(t *testing.T) {
	agent := &fakeAgent{stream: &sliceStream{}}
	m, tracker := newTestModel(t, agent)

	m = typeLine(t, m, "long analysis")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.asking {
		t.Fatal("model not asking after submit")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if agent.cancels != 1 {
		t.Errorf("cancels = %d, want 1", agent.cancels)
	}
	if m.asking {
		t.Error("still asking after cancel")
	}
	if tracker.Snapshot().Streaming {
		t.Error("session still streaming after cancel")
	}
}

func TestModel_CtrlCQuitsWhenIdle(t *testing.T) {
	m, _ := newTestModel(t, &fakeAgent{})

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c produced no command")
	}
	msg := cmd()
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Fatalf("got %T, want tea.QuitMsg", msg)
	}
}

func TestModel_SecondSubmitBlockedWhileAsking(t *testing.T) {
	agent := &fakeAgent{stream: &sliceStream{}}
	m, tracker := newTestModel(t, agent)

	m = typeLine(t, m, "first question")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	firstSession := tracker.Snapshot().SessionID

	m = typeLine(t, m, "second question")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := tracker.Snapshot().SessionID; got != firstSession {
		t.Errorf("session id changed to %q, want %q", got, firstSession)
	}
	if !strings.Contains(m.View(), "already in progress") {
		t.Error("no in-progress notice shown")
	}
}

func TestModel_HistoryBrowserPinsArchivedStep(t *testing.T) {
	tracker := trace.New()
	tracker.StartSession()
	tracker.RecordCall(1, "execute_sql", testArgs(t, "query", "SELECT month, total FROM revenue"))
	tracker.RecordResult(1, "2026-01|48210.55", "")
	tracker.FinishSession()

	m := New(Config{Tracker: tracker, Agent: &fakeAgent{}})
	m = resize(t, m, 100, 30)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if !m.history.Active() {
		t.Fatal("history browser not open after ctrl+r")
	}
	if !strings.Contains(m.View(), "STEP HISTORY") {
		t.Error("overlay title missing")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.history.Active() {
		t.Error("browser still open after selection")
	}

	snap := tracker.Snapshot()
	if snap.Mode != trace.ViewHistorical {
		t.Fatalf("mode = %q, want historical", snap.Mode)
	}
	if snap.Pinned == nil || snap.Pinned.ToolName != "execute_sql" {
		t.Fatalf("pinned = %+v, want the archived sql step", snap.Pinned)
	}

	updated, _ := m.Update(TraceChangedMsg{Change: trace.Change{Kind: trace.ChangeViewChanged}})
	m = updated.(Model)
	if !strings.Contains(m.View(), "ARCHIVED STEP") {
		t.Error("pinned card not rendered")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := tracker.Snapshot().Mode; got != trace.ViewLive {
		t.Errorf("mode after esc = %q, want live", got)
	}
}

func TestModel_VerboseShowsThinking(t *testing.T) {
	verbose := New(Config{Tracker: trace.New(), Agent: &fakeAgent{}, Verbose: true})
	verbose = resize(t, verbose, 100, 30)
	updated, _ := verbose.Update(ThinkingMsg{Content: "inspecting the schema"})
	verbose = updated.(Model)
	if !strings.Contains(verbose.View(), "inspecting the schema") {
		t.Error("verbose console hides thinking")
	}

	quiet := New(Config{Tracker: trace.New(), Agent: &fakeAgent{}})
	quiet = resize(t, quiet, 100, 30)
	updated, _ = quiet.Update(ThinkingMsg{Content: "inspecting the schema"})
	quiet = updated.(Model)
	if strings.Contains(quiet.View(), "inspecting the schema") {
		t.Error("quiet console shows thinking")
	}
}

func TestModel_SessionErrorShown(t *testing.T) {
	m, _ := newTestModel(t, &fakeAgent{})
	updated, _ := m.Update(SessionErrorMsg{Reason: "database is locked"})
	m = updated.(Model)
	if !strings.Contains(m.View(), "database is locked") {
		t.Error("session error not shown")
	}
}

func TestModel_SubmitErrorFinishesSession(t *testing.T) {
	agent := &fakeAgent{submitErr: errors.New("connection refused")}
	m, tracker := newTestModel(t, agent)

	m = typeLine(t, m, "list tables")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("submit produced no command")
	}
	msg := cmd()
	if _, ok := msg.(SubmitErrorMsg); !ok {
		t.Fatalf("got %T, want SubmitErrorMsg", msg)
	}

	updated, _ := m.Update(msg)
	m = updated.(Model)
	if m.asking {
		t.Error("still asking after submit error")
	}
	if tracker.Snapshot().Streaming {
		t.Error("session left streaming after submit error")
	}
	if !strings.Contains(m.View(), "connection refused") {
		t.Error("submit error not shown")
	}
}

func TestModel_SmallTerminalGuard(t *testing.T) {
	m, _ := newTestModel(t, &fakeAgent{})
	m = resize(t, m, 40, 10)
	if !strings.Contains(m.View(), "Terminal too small") {
		t.Error("no minimum-size message")
	}
}

func TestModel_TranscriptRecordsConversation(t *testing.T) {
	var buf strings.Builder
	agent := &fakeAgent{stream: &sliceStream{}}
	m := New(Config{Tracker: trace.New(), Agent: agent, Transcript: &buf})
	m = resize(t, m, 100, 30)

	m = typeLine(t, m, "total revenue last month?")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	updated, _ := m.Update(AnswerMsg{Content: "48210.55 across 312 orders."})
	m = updated.(Model)
	_ = m

	got := buf.String()
	if !strings.Contains(got, "Q: total revenue last month?") {
		t.Errorf("transcript missing the question: %q", got)
	}
	if !strings.Contains(got, "A: 48210.55 across 312 orders.") {
		t.Errorf("transcript missing the answer: %q", got)
	}
}

func TestModel_TickAdvancesSpinnerAndRearms(t *testing.T) {
	m, _ := newTestModel(t, &fakeAgent{})
	updated, cmd := m.Update(TickMsg{Time: time.Now()})
	m = updated.(Model)
	if m.spinnerIdx != 1 {
		t.Errorf("spinnerIdx = %d, want 1", m.spinnerIdx)
	}
	if cmd == nil {
		t.Error("tick not re-armed")
	}
}
