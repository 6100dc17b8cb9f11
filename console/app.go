// ABOUTME: Root Bubble Tea model for the console: routes keys, tracker
// ABOUTME: changes, and presenter notes, and lays out the panels.
package console

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/tusk/trace"
)

const (
	minWidth  = 60
	minHeight = 18

	tickInterval = 100 * time.Millisecond
)

// Config carries everything the console needs to run.
type Config struct {
	Tracker *trace.Tracker
	Agent   Agent

	// Persistent is the socket transport's event stream. It is pumped
	// once at startup and lives across questions. Nil for the one-shot
	// transport, where Submit opens a stream per question.
	Persistent trace.Stream

	// Verbose shows agent thinking lines in the answer panel.
	Verbose bool

	// Transcript, when non-nil, receives a timestamped line per
	// question, answer, feedback, and error.
	Transcript io.Writer

	// Context bounds all background work. Defaults to context.Background.
	Context context.Context
}

// Model is the root console model.
type Model struct {
	ctx        context.Context
	tracker    *trace.Tracker
	dispatcher *trace.Dispatcher
	agent      Agent
	persistent trace.Stream
	verbose    bool
	transcript io.Writer

	changes <-chan trace.Change
	notes   chan presenterNote

	snap       trace.Snapshot
	input      InputModel
	tracePanel TracePanel
	answer     AnswerPanel
	history    HistoryPanel
	statusBar  StatusBar

	width      int
	height     int
	spinnerIdx int
	asking     bool
	confirmID  string
	now        time.Time
}

// New builds the console around a tracker and an agent. The model owns
// the dispatcher and the channels its commands block on, so Bubble
// Tea's value copies all share them.
func New(cfg Config) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pres := &chanPresenter{notes: make(chan presenterNote, 16)}
	return Model{
		ctx:        ctx,
		tracker:    cfg.Tracker,
		dispatcher: trace.NewDispatcher(cfg.Tracker, pres),
		agent:      cfg.Agent,
		persistent: cfg.Persistent,
		verbose:    cfg.Verbose,
		transcript: cfg.Transcript,
		changes:    cfg.Tracker.Subscribe(),
		notes:      pres.notes,
		snap:       cfg.Tracker.Snapshot(),
		input:      NewInputModel(),
		answer:     NewAnswerPanel(),
		history:    NewHistoryPanel(),
		now:        time.Now(),
	}
}

// Init starts the change and note listeners, the spinner tick, and the
// persistent pump when the transport has one.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		WaitForChangeCmd(m.changes),
		waitForNoteCmd(m.notes),
		TickCmd(tickInterval),
	}
	if m.persistent != nil {
		cmds = append(cmds, RunStreamCmd(m.ctx, m.dispatcher, m.persistent))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TraceChangedMsg:
		return m.handleChange(msg.Change)

	case AnswerMsg:
		m.answer.SetAnswer(msg.Content)
		m.writeTranscript("A: %s", msg.Content)
		return m, waitForNoteCmd(m.notes)

	case ThinkingMsg:
		if m.verbose {
			m.answer.AddThinking(msg.Content)
		}
		return m, waitForNoteCmd(m.notes)

	case ConfirmationMsg:
		m.confirmID = msg.ID
		m.input.SetConfirming(true)
		m.answer.SetNotice("Confirm: " + msg.Prompt + " (y/n)")
		return m, waitForNoteCmd(m.notes)

	case FeedbackAckMsg:
		m.answer.SetNotice("Feedback received.")
		return m, waitForNoteCmd(m.notes)

	case SessionErrorMsg:
		m.answer.SetError(msg.Reason)
		m.writeTranscript("error: %s", msg.Reason)
		return m, waitForNoteCmd(m.notes)

	case StreamOpenedMsg:
		return m, RunStreamCmd(m.ctx, m.dispatcher, msg.Stream)

	case StreamDoneMsg:
		// The pump finished the session on its way out; here only the
		// failure, if any, is left to show.
		m.asking = false
		if msg.Err != nil {
			m.answer.SetError(msg.Err.Error())
		}
		return m, nil

	case SubmitErrorMsg:
		m.asking = false
		m.answer.SetError(msg.Err.Error())
		m.tracker.FinishSession()
		return m, nil

	case TickMsg:
		m.now = msg.Time
		m.spinnerIdx = (m.spinnerIdx + 1) % len(SpinnerFrames)
		return m, TickCmd(tickInterval)
	}

	return m, nil
}

// View renders the full console.
func (m Model) View() string {
	if m.width == 0 {
		return "starting tusk console..."
	}
	if m.width < minWidth || m.height < minHeight {
		return fmt.Sprintf("Terminal too small (%dx%d). Need at least %dx%d.",
			m.width, m.height, minWidth, minHeight)
	}

	title := TitleStyle.Render("tusk") + DimStyle.Render("  execution trace console")

	if m.history.Active() {
		overlay := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, m.history.View())
		return title + "\n" + overlay
	}

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		m.tracePanel.View(m.snap, m.spinnerIdx, m.now),
		m.answer.View(),
	)

	return title + "\n" +
		panels + "\n" +
		m.statusBar.View(m.snap) + "\n" +
		m.input.View()
}

// handleKey routes one key press. The history browser captures keys
// while it is open.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.history.Active() {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "ctrl+r":
			m.history.Close()
		case "up":
			m.history.MoveUp()
		case "down":
			m.history.MoveDown()
		case "enter":
			if step, ok := m.history.Selected(); ok {
				m.tracker.ShowHistoricalStep(step)
			}
			m.history.Close()
		default:
			m.history.Forward(msg)
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		if m.asking {
			return m.cancelRun()
		}
		return m, tea.Quit
	case "ctrl+r":
		m.history.Open(m.snap.History)
		return m, nil
	case "esc":
		if m.snap.Mode == trace.ViewHistorical {
			m.tracker.ExitHistoricalView()
		}
		return m, nil
	case "pgup", "pgdown":
		m.answer.Forward(msg)
		return m, nil
	case "enter":
		return m.submitLine()
	}

	m.input = m.input.Update(msg)
	return m, nil
}

// handleChange pulls a fresh snapshot after every tracker change and
// re-arms the listener. Session boundaries drive the status bar clock.
func (m Model) handleChange(change trace.Change) (tea.Model, tea.Cmd) {
	m.snap = m.tracker.Snapshot()
	switch change.Kind {
	case trace.ChangeSessionStarted:
		m.statusBar.SessionStarted(change.Timestamp)
	case trace.ChangeSessionFinished:
		m.statusBar.SessionFinished(change.Timestamp)
		m.asking = false
	}
	return m, WaitForChangeCmd(m.changes)
}

// submitLine interprets the input line: a pending confirmation answer,
// a feedback line, or a new question.
func (m Model) submitLine() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	if m.confirmID != "" {
		lower := strings.ToLower(line)
		switch lower {
		case "y", "yes", "n", "no":
			approve := lower == "y" || lower == "yes"
			if err := m.agent.Decide(m.confirmID, approve); err != nil {
				m.answer.SetError(err.Error())
			}
			m.confirmID = ""
			m.input.SetConfirming(false)
			m.input.Reset()
			return m, nil
		}
		// Anything else is a normal line; the confirmation stays pending.
	}

	if strings.HasPrefix(line, "!") {
		feedback := strings.TrimSpace(strings.TrimPrefix(line, "!"))
		if feedback == "" {
			return m, nil
		}
		if err := m.agent.Feedback(feedback); err != nil {
			m.answer.SetNotice(err.Error())
		} else {
			m.writeTranscript("feedback: %s", feedback)
		}
		m.input.Reset()
		return m, nil
	}

	if m.asking {
		m.answer.SetNotice("A run is already in progress. ctrl+c cancels it.")
		return m, nil
	}

	// A new question while pinned to an archived step returns to live.
	if m.snap.Mode == trace.ViewHistorical {
		m.tracker.ExitHistoricalView()
	}
	m.confirmID = ""
	m.input.SetConfirming(false)
	m.tracker.StartSession()
	m.answer.Clear()
	m.asking = true
	m.input.Reset()
	m.writeTranscript("Q: %s", line)
	return m, SubmitCmd(m.ctx, m.agent, line)
}

// writeTranscript appends one timestamped line to the transcript, when
// one is configured.
func (m Model) writeTranscript(format string, args ...any) {
	if m.transcript == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	if _, err := fmt.Fprintf(m.transcript, "%s %s\n", time.Now().Format(time.RFC3339), line); err != nil {
		log.Printf("console: transcript write: %v", err)
	}
}

// cancelRun aborts the in-flight run and finishes the session at once.
// Stream teardown races this; the tracker absorbs the duplicate finish.
func (m Model) cancelRun() (tea.Model, tea.Cmd) {
	if err := m.agent.CancelRun(); err != nil {
		log.Printf("console: cancel run: %v", err)
	}
	m.asking = false
	m.tracker.FinishSession()
	return m, nil
}

// setSize distributes the terminal between the panels.
func (m *Model) setSize(w, h int) {
	m.width = w
	m.height = h

	panelHeight := h - 4
	if panelHeight < 3 {
		panelHeight = 3
	}
	traceWidth := w * 45 / 100
	if traceWidth < 20 {
		traceWidth = 20
	}
	answerWidth := w - traceWidth

	m.tracePanel.SetSize(traceWidth, panelHeight)
	m.answer.SetSize(answerWidth, panelHeight)
	m.history.SetSize(w, h)
	m.statusBar.SetWidth(w)
	m.input.SetWidth(w - 4)
}
