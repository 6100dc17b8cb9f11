// ABOUTME: Bridges the tracker, dispatcher, and agent goroutines into the Bubble Tea loop.
// ABOUTME: Channel-reading tea.Cmd factories plus a channel-backed trace.Presenter.
package console

import (
	"context"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/tusk/trace"
)

// presenterNote carries one presentation event from the pump goroutine
// into the message loop. Channels are reference types, so the note
// channel stays shared across Bubble Tea's value copies of the model.
type presenterNote struct {
	kind    noteKind
	content string
	id      string
}

type noteKind int

const (
	noteAnswer noteKind = iota
	noteThinking
	noteConfirmation
	noteFeedbackAck
	noteSessionError
)

// chanPresenter implements trace.Presenter by writing notes to a
// buffered channel. Delivery never blocks the pump; with a full buffer
// the note is dropped with a diagnostic.
type chanPresenter struct {
	notes chan presenterNote
}

var _ trace.Presenter = (*chanPresenter)(nil)

func (p *chanPresenter) deliver(n presenterNote) {
	select {
	case p.notes <- n:
	default:
		log.Printf("console: dropping presenter note kind=%d (ui not keeping up)", n.kind)
	}
}

func (p *chanPresenter) Message(content string) {
	p.deliver(presenterNote{kind: noteAnswer, content: content})
}

func (p *chanPresenter) Thinking(content string) {
	p.deliver(presenterNote{kind: noteThinking, content: content})
}

func (p *chanPresenter) ConfirmationRequest(id, prompt string) {
	p.deliver(presenterNote{kind: noteConfirmation, id: id, content: prompt})
}

func (p *chanPresenter) FeedbackAck() {
	p.deliver(presenterNote{kind: noteFeedbackAck})
}

func (p *chanPresenter) SessionError(reason string) {
	p.deliver(presenterNote{kind: noteSessionError, content: reason})
}

// WaitForChangeCmd blocks on a tracker change channel and wraps the
// next change for the message loop. The handler re-arms it. Returns nil
// when the channel closes.
func WaitForChangeCmd(ch <-chan trace.Change) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return TraceChangedMsg{Change: change}
	}
}

// waitForNoteCmd blocks on the presenter note channel and translates
// the next note into its message type.
func waitForNoteCmd(ch <-chan presenterNote) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		switch n.kind {
		case noteAnswer:
			return AnswerMsg{Content: n.content}
		case noteThinking:
			return ThinkingMsg{Content: n.content}
		case noteConfirmation:
			return ConfirmationMsg{ID: n.id, Prompt: n.content}
		case noteFeedbackAck:
			return FeedbackAckMsg{}
		case noteSessionError:
			return SessionErrorMsg{Reason: n.content}
		}
		return nil
	}
}

// RunStreamCmd pumps stream through the dispatcher until it ends, then
// reports how it went.
func RunStreamCmd(ctx context.Context, d *trace.Dispatcher, stream trace.Stream) tea.Cmd {
	return func() tea.Msg {
		return StreamDoneMsg{Err: d.Pump(ctx, stream)}
	}
}

// SubmitCmd starts a run for question off the UI goroutine. A one-shot
// agent answers with the stream to pump; a duplex agent answers nil
// because its persistent stream is already being pumped.
func SubmitCmd(ctx context.Context, agent Agent, question string) tea.Cmd {
	return func() tea.Msg {
		stream, err := agent.Submit(ctx, question)
		if err != nil {
			return SubmitErrorMsg{Err: err}
		}
		if stream == nil {
			return nil
		}
		return StreamOpenedMsg{Stream: stream}
	}
}

// TickCmd returns a tea.Cmd that sends a TickMsg after the given
// interval. Used for spinner animation and elapsed-time refreshes.
func TickCmd(interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(interval)
		return TickMsg{Time: time.Now()}
	}
}
