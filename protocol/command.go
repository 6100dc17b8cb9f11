// ABOUTME: Command is the tagged union of client-to-server control messages.
// ABOUTME: Sent only over the duplex socket transport; the ask transport is one-shot.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Command is a tagged union representing one client-to-server message.
type Command interface {
	CommandType() string
	commandSeal()
}

// UserMessage submits a natural-language request to the agent.
type UserMessage struct {
	Content string `json:"content"`
}

func (c UserMessage) CommandType() string { return "user_message" }
func (c UserMessage) commandSeal()        {}

// Feedback steers the agent mid-session without starting a new request.
type Feedback struct {
	Content string `json:"content"`
}

func (c Feedback) CommandType() string { return "feedback" }
func (c Feedback) commandSeal()        {}

// Decision answers a pending confirmation request.
type Decision struct {
	ID      string `json:"id"`
	Approve bool   `json:"approve"`
}

func (c Decision) CommandType() string { return "decision" }
func (c Decision) commandSeal()        {}

// Cancel aborts the in-flight session.
type Cancel struct{}

func (c Cancel) CommandType() string { return "cancel" }
func (c Cancel) commandSeal()        {}

// MarshalCommand serializes a Command as a single JSON object with an
// embedded "type" discriminator.
func MarshalCommand(c Command) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("cannot marshal nil command")
	}
	return marshalTagged(c.CommandType(), c)
}

// UnmarshalCommand deserializes a JSON object with an embedded "type"
// field into the matching Command variant.
func UnmarshalCommand(data []byte) (Command, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal command type: %w", err)
	}

	switch envelope.Type {
	case "user_message":
		var c UserMessage
		return c, json.Unmarshal(data, &c)
	case "feedback":
		var c Feedback
		return c, json.Unmarshal(data, &c)
	case "decision":
		var c Decision
		return c, json.Unmarshal(data, &c)
	case "cancel":
		var c Cancel
		return c, json.Unmarshal(data, &c)
	default:
		return nil, fmt.Errorf("%w: command %q", ErrUnknownType, envelope.Type)
	}
}
