// ABOUTME: Agent abstracts the two transports behind what the console needs per run.
// ABOUTME: AskAgent opens one stream per question; SocketAgent rides a persistent socket.
package console

import (
	"context"
	"errors"
	"sync"

	"github.com/2389-research/tusk/trace"
	"github.com/2389-research/tusk/transport"
)

// ErrNotDuplex reports an operation that needs the socket transport.
var ErrNotDuplex = errors.New("requires the socket transport (-ws)")

// Agent is the console's handle on a backend connection.
type Agent interface {
	// Submit starts a run for question. One-shot implementations return
	// the new event stream to pump; duplex implementations send the
	// question on their already-pumped socket and return nil.
	Submit(ctx context.Context, question string) (trace.Stream, error)
	// Feedback delivers mid-run guidance. Duplex only.
	Feedback(content string) error
	// Decide answers a confirmation request. Duplex only.
	Decide(id string, approve bool) error
	// CancelRun aborts the in-flight run without ending the program.
	CancelRun() error
}

var (
	_ Agent = (*AskAgent)(nil)
	_ Agent = (*SocketAgent)(nil)
)

// AskAgent asks one-shot questions: every Submit opens a fresh SSE
// stream, and CancelRun closes the one in flight, which the pump
// observes as a normal end of stream.
type AskAgent struct {
	client *transport.AskClient

	mu      sync.Mutex
	current trace.Stream
}

func NewAskAgent(client *transport.AskClient) *AskAgent {
	return &AskAgent{client: client}
}

func (a *AskAgent) Submit(ctx context.Context, question string) (trace.Stream, error) {
	stream, err := a.client.Ask(ctx, question)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	if a.current != nil {
		a.current.Close()
	}
	a.current = stream
	a.mu.Unlock()
	return stream, nil
}

func (a *AskAgent) Feedback(string) error { return ErrNotDuplex }

func (a *AskAgent) Decide(string, bool) error { return ErrNotDuplex }

func (a *AskAgent) CancelRun() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil
	}
	err := a.current.Close()
	a.current = nil
	return err
}

// SocketAgent rides one persistent duplex socket. The socket itself is
// the stream the app pumps for its whole lifetime; Submit only sends
// the question.
type SocketAgent struct {
	sock *transport.Socket
}

func NewSocketAgent(sock *transport.Socket) *SocketAgent {
	return &SocketAgent{sock: sock}
}

func (a *SocketAgent) Submit(_ context.Context, question string) (trace.Stream, error) {
	return nil, a.sock.SendUserMessage(question)
}

func (a *SocketAgent) Feedback(content string) error {
	return a.sock.SendFeedback(content)
}

func (a *SocketAgent) Decide(id string, approve bool) error {
	return a.sock.SendDecision(id, approve)
}

// CancelRun tells the backend to stop the current run. The socket stays
// open for follow-up questions; the caller finishes the session client
// side, and the guard in FinishSession absorbs any late done event.
func (a *SocketAgent) CancelRun() error {
	return a.sock.SendCancel()
}
