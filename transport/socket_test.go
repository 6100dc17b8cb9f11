// ABOUTME: Tests for the duplex socket transport against an in-process WS server.
// ABOUTME: Covers command round-trips, event ordering, frame skipping, and clean close.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/2389-research/tusk/protocol"
)

// scriptedSocketServer answers user_message with a short trace, acks
// feedback, and closes on cancel.
func scriptedSocketServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SocketPath {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		send := func(ev protocol.Event) {
			data, err := protocol.MarshalEvent(ev)
			if err != nil {
				t.Errorf("marshal event: %v", err)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				t.Logf("write event: %v", err)
			}
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			cmd, err := protocol.UnmarshalCommand(data)
			if err != nil {
				continue
			}
			switch cmd.(type) {
			case protocol.UserMessage:
				var args protocol.Args
				args.Set("query", "SELECT 1")
				send(protocol.ToolCall{Step: 1, ToolName: "execute_sql", Args: args})
				_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})
				_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
				send(protocol.ToolResult{Step: 1, ToolName: "execute_sql", Result: "1 row"})
				send(protocol.Done{})
			case protocol.Feedback:
				send(protocol.FeedbackAck{})
			case protocol.Cancel:
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSocket_UserMessageStreamsTrace(t *testing.T) {
	srv := scriptedSocketServer(t)

	sock, err := Dial(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sock.Close()

	if err := sock.SendUserMessage("how many rows?"); err != nil {
		t.Fatalf("send: %v", err)
	}

	ev, err := sock.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	tc, ok := ev.(protocol.ToolCall)
	if !ok {
		t.Fatalf("event 0: got %T, want ToolCall", ev)
	}
	if got := tc.Args.Keys(); len(got) != 1 || got[0] != "query" {
		t.Errorf("args keys: %v", got)
	}

	// Binary and unparsable frames between events must be skipped.
	ev, err = sock.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if tr, ok := ev.(protocol.ToolResult); !ok || tr.Result != "1 row" {
		t.Fatalf("event 1: got %#v", ev)
	}

	ev, err = sock.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, ok := ev.(protocol.Done); !ok {
		t.Fatalf("event 2: got %T, want Done", ev)
	}
}

func TestSocket_FeedbackIsAcked(t *testing.T) {
	srv := scriptedSocketServer(t)

	sock, err := Dial(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sock.Close()

	if err := sock.SendFeedback("only verified accounts"); err != nil {
		t.Fatalf("send feedback: %v", err)
	}
	ev, err := sock.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if _, ok := ev.(protocol.FeedbackAck); !ok {
		t.Fatalf("got %T, want FeedbackAck", ev)
	}
}

func TestSocket_CancelEndsStreamCleanly(t *testing.T) {
	srv := scriptedSocketServer(t)

	sock, err := Dial(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sock.Close()

	if err := sock.SendCancel(); err != nil {
		t.Fatalf("send cancel: %v", err)
	}
	if _, err := sock.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after server close, got %v", err)
	}
}

func TestSocketURL_SchemeRewrites(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/api/ws"},
		{"https://agent.example.com", "wss://agent.example.com/api/ws"},
		{"ws://localhost:9000/", "ws://localhost:9000/api/ws"},
	}
	for _, tc := range cases {
		got, err := socketURL(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := socketURL("ftp://nope"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestDial_RefusesUnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if _, err := Dial(ctx, "http://127.0.0.1:1"); err == nil {
		t.Fatal("expected dial error, got nil")
	}
}
