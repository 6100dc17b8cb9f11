// ABOUTME: Event is the tagged union of server-to-client stream events.
// ABOUTME: 10 variants with JSON serialization via a "type" discriminator.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType reports an event or command whose type tag has no
// registered variant. Callers may skip such events to stay compatible
// with newer backends.
var ErrUnknownType = errors.New("unknown type tag")

// Event is a tagged union representing one server-to-client stream event.
type Event interface {
	EventType() string
	eventSeal()
}

// ToolCall announces that the agent started executing a tool.
type ToolCall struct {
	Step     int    `json:"step"`
	ToolName string `json:"tool_name"`
	Args     Args   `json:"args"`
}

func (e ToolCall) EventType() string { return "tool_call" }
func (e ToolCall) eventSeal()        {}

// ToolResult carries the output of a previously announced tool call.
type ToolResult struct {
	Step     int    `json:"step"`
	ToolName string `json:"tool_name"`
	Result   string `json:"result"`
}

func (e ToolResult) EventType() string { return "tool_result" }
func (e ToolResult) eventSeal()        {}

// SubagentToolCall announces a tool call made by a named subagent.
type SubagentToolCall struct {
	SubagentName string `json:"subagent_name"`
	Step         int    `json:"step"`
	ToolName     string `json:"tool_name"`
	Args         Args   `json:"args"`
}

func (e SubagentToolCall) EventType() string { return "subagent_tool_call" }
func (e SubagentToolCall) eventSeal()        {}

// SubagentToolResult carries the output of a subagent's tool call.
type SubagentToolResult struct {
	SubagentName string `json:"subagent_name"`
	Step         int    `json:"step"`
	Result       string `json:"result"`
}

func (e SubagentToolResult) EventType() string { return "subagent_tool_result" }
func (e SubagentToolResult) eventSeal()        {}

// Message carries final answer text for the user.
type Message struct {
	Content string `json:"content"`
}

func (e Message) EventType() string { return "message" }
func (e Message) eventSeal()        {}

// Thinking carries intermediate reasoning text. Presentation only.
type Thinking struct {
	Content string `json:"content"`
}

func (e Thinking) EventType() string { return "thinking" }
func (e Thinking) eventSeal()        {}

// ErrorEvent is a terminal backend error; the session ends after it.
type ErrorEvent struct {
	Reason string `json:"error"`
}

func (e ErrorEvent) EventType() string { return "error" }
func (e ErrorEvent) eventSeal()        {}

// ConfirmationRequest asks the user to approve or reject an action.
type ConfirmationRequest struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

func (e ConfirmationRequest) EventType() string { return "confirmation_request" }
func (e ConfirmationRequest) eventSeal()        {}

// FeedbackAck confirms that mid-session feedback reached the agent.
type FeedbackAck struct{}

func (e FeedbackAck) EventType() string { return "feedback_ack" }
func (e FeedbackAck) eventSeal()        {}

// Done marks the normal end of a session's event stream.
type Done struct{}

func (e Done) EventType() string { return "done" }
func (e Done) eventSeal()        {}

// MarshalEvent serializes an Event as a single JSON object with an
// embedded "type" discriminator, the framing the socket transport uses.
func MarshalEvent(e Event) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("cannot marshal nil event")
	}
	return marshalTagged(e.EventType(), e)
}

// UnmarshalEvent deserializes a JSON object with an embedded "type"
// field into the matching Event variant.
func UnmarshalEvent(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal event type: %w", err)
	}
	return UnmarshalEventPayload(envelope.Type, data)
}

// UnmarshalEventPayload deserializes an event whose type arrived out of
// band, as with SSE framing where the event name travels separately
// from the data payload. A payload that also embeds a "type" field is
// accepted and the field ignored.
func UnmarshalEventPayload(eventType string, data []byte) (Event, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}
	switch eventType {
	case "tool_call":
		var e ToolCall
		return e, unmarshalStrictPayload(eventType, data, &e)
	case "tool_result":
		var e ToolResult
		return e, unmarshalStrictPayload(eventType, data, &e)
	case "subagent_tool_call":
		var e SubagentToolCall
		return e, unmarshalStrictPayload(eventType, data, &e)
	case "subagent_tool_result":
		var e SubagentToolResult
		return e, unmarshalStrictPayload(eventType, data, &e)
	case "message":
		var e Message
		return e, unmarshalStrictPayload(eventType, data, &e)
	case "thinking":
		var e Thinking
		return e, unmarshalStrictPayload(eventType, data, &e)
	case "error":
		var e ErrorEvent
		return e, unmarshalStrictPayload(eventType, data, &e)
	case "confirmation_request":
		var e ConfirmationRequest
		return e, unmarshalStrictPayload(eventType, data, &e)
	case "feedback_ack":
		var e FeedbackAck
		return e, unmarshalStrictPayload(eventType, data, &e)
	case "done":
		var e Done
		return e, unmarshalStrictPayload(eventType, data, &e)
	default:
		return nil, fmt.Errorf("%w: event %q", ErrUnknownType, eventType)
	}
}

func unmarshalStrictPayload(eventType string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", eventType, err)
	}
	return nil
}

// marshalTagged injects the "type" discriminator into v's JSON object.
func marshalTagged(typeName string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	typeJSON, _ := json.Marshal(typeName)
	m["type"] = typeJSON
	return json.Marshal(m)
}
