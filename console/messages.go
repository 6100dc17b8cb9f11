// ABOUTME: Bubble Tea message types used in the console message loop.
// ABOUTME: Each type wraps a domain event for the tea.Msg interface (which is interface{}).
package console

import (
	"time"

	"github.com/2389-research/tusk/trace"
)

// TraceChangedMsg wraps one tracker change notification.
type TraceChangedMsg struct {
	Change trace.Change
}

// AnswerMsg carries final answer text from the agent.
type AnswerMsg struct {
	Content string
}

// ThinkingMsg carries intermediate reasoning text. Shown in verbose
// mode only.
type ThinkingMsg struct {
	Content string
}

// ConfirmationMsg asks the user to approve or reject an agent action.
type ConfirmationMsg struct {
	ID     string
	Prompt string
}

// FeedbackAckMsg confirms that mid-session feedback reached the agent.
type FeedbackAckMsg struct{}

// SessionErrorMsg carries a terminal backend error for display.
type SessionErrorMsg struct {
	Reason string
}

// StreamOpenedMsg delivers the event stream a Submit call opened.
type StreamOpenedMsg struct {
	Stream trace.Stream
}

// StreamDoneMsg signals that a pumped stream ended. Err is nil for a
// clean end, including cancel and timeout.
type StreamDoneMsg struct {
	Err error
}

// SubmitErrorMsg reports that a question could not be submitted.
type SubmitErrorMsg struct {
	Err error
}

// TickMsg is sent periodically to advance spinners and elapsed times.
type TickMsg struct {
	Time time.Time
}
