// ABOUTME: Dispatcher routes each decoded backend event to exactly one tracker
// ABOUTME: operation or presenter callback, and pumps streams until they end.
package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/2389-research/tusk/protocol"
)

// Stream is the event source the dispatcher drains. Both transports in
// this module satisfy it.
type Stream interface {
	Next() (protocol.Event, error)
	Close() error
}

// Presenter receives the presentation-only events that the tracker does
// not own: answer text, reasoning, confirmations, and terminal errors.
// Implementations must not block; they run on the pump goroutine.
type Presenter interface {
	Message(content string)
	Thinking(content string)
	ConfirmationRequest(id, prompt string)
	FeedbackAck()
	SessionError(reason string)
}

// nopPresenter discards presentation events, for hosts that only care
// about trace state.
type nopPresenter struct{}

func (nopPresenter) Message(string)                     {}
func (nopPresenter) Thinking(string)                    {}
func (nopPresenter) ConfirmationRequest(string, string) {}
func (nopPresenter) FeedbackAck()                       {}
func (nopPresenter) SessionError(string)                {}

// Dispatcher connects an event stream to the tracker and a presenter.
type Dispatcher struct {
	tracker   *Tracker
	presenter Presenter
}

// NewDispatcher creates a Dispatcher. A nil presenter discards
// presentation events.
func NewDispatcher(tracker *Tracker, presenter Presenter) *Dispatcher {
	if presenter == nil {
		presenter = nopPresenter{}
	}
	return &Dispatcher{tracker: tracker, presenter: presenter}
}

// Dispatch routes one event to exactly one handler. It never fails up
// to the caller: events nobody handles are dropped with a diagnostic.
// An error event reaches the presenter and then ends the session, the
// same terminal path a done event takes.
func (d *Dispatcher) Dispatch(ev protocol.Event) {
	switch e := ev.(type) {
	case protocol.ToolCall:
		d.tracker.RecordCall(e.Step, e.ToolName, e.Args)
	case protocol.ToolResult:
		d.tracker.RecordResult(e.Step, e.Result, e.ToolName)
	case protocol.SubagentToolCall:
		d.tracker.AddSubagentStep(e.SubagentName, e.Step, e.ToolName, e.Args)
	case protocol.SubagentToolResult:
		d.tracker.UpdateSubagentStepResult(e.SubagentName, e.Step, e.Result)
	case protocol.Message:
		d.presenter.Message(e.Content)
	case protocol.Thinking:
		d.presenter.Thinking(e.Content)
	case protocol.ConfirmationRequest:
		d.presenter.ConfirmationRequest(e.ID, e.Prompt)
	case protocol.FeedbackAck:
		d.presenter.FeedbackAck()
	case protocol.ErrorEvent:
		d.presenter.SessionError(e.Reason)
		d.tracker.FinishSession()
	case protocol.Done:
		d.tracker.FinishSession()
	case nil:
		log.Printf("dispatcher: dropping nil event")
	default:
		log.Printf("dispatcher: dropping unhandled event type %q", ev.EventType())
	}
}

// Pump drains stream until it ends, dispatching every event in arrival
// order. Whatever ends the stream, clean close, cancel, timeout, or a
// connection failure, the session is finished on the way out. Pump owns
// the stream and closes it; canceling ctx closes it early, which
// unblocks a pending read.
func (d *Dispatcher) Pump(ctx context.Context, stream Stream) error {
	defer d.tracker.FinishSession()
	defer stream.Close()

	pumpDone := make(chan struct{})
	defer close(pumpDone)
	go func() {
		select {
		case <-ctx.Done():
			stream.Close()
		case <-pumpDone:
		}
	}()

	for {
		ev, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("stream read: %w", err)
		}
		d.Dispatch(ev)
	}
}
