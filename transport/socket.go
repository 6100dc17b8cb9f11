// ABOUTME: Persistent duplex socket transport built on gorilla/websocket.
// ABOUTME: Implements Stream for server events and typed senders for client commands.
package transport

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/2389-research/tusk/protocol"
)

// Socket is a persistent duplex connection to the backend agent. It
// carries server events (read via Next) and client commands (sent via
// the Send helpers) as single JSON text frames with embedded type tags.
//
// One goroutine may call Next while others send; sends are serialized
// internally.
type Socket struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the socket endpoint under baseURL. http and https
// schemes are rewritten to ws and wss.
func Dial(ctx context.Context, baseURL string) (*Socket, error) {
	target, err := socketURL(baseURL)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial socket: HTTP %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial socket: %w", err)
	}
	return &Socket{conn: conn}, nil
}

func socketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse socket url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("socket url scheme %q not supported", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + SocketPath
	return u.String(), nil
}

// Next returns the next server event. It returns io.EOF on a clean
// close and the underlying error otherwise. Frames that fail to decode
// are skipped.
func (s *Socket) Next() (protocol.Event, error) {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		ev, err := protocol.UnmarshalEvent(data)
		if err != nil {
			log.Printf("socket: dropping frame: %v", err)
			continue
		}
		return ev, nil
	}
}

// SendUserMessage submits a new question to the agent.
func (s *Socket) SendUserMessage(content string) error {
	return s.send(protocol.UserMessage{Content: content})
}

// SendFeedback steers the in-flight session.
func (s *Socket) SendFeedback(content string) error {
	return s.send(protocol.Feedback{Content: content})
}

// SendDecision answers a confirmation request by id.
func (s *Socket) SendDecision(id string, approve bool) error {
	return s.send(protocol.Decision{ID: id, Approve: approve})
}

// SendCancel asks the backend to abort the in-flight session. The
// connection stays open for follow-up questions.
func (s *Socket) SendCancel() error {
	return s.send(protocol.Cancel{})
}

func (s *Socket) send(cmd protocol.Command) error {
	data, err := protocol.MarshalCommand(cmd)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", cmd.CommandType(), err)
	}
	return nil
}

// Close sends a close frame and tears down the connection. A blocked
// Next unblocks once the connection drops.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
