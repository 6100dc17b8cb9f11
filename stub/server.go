// ABOUTME: Local stand-in for the analysis agent, serving canned scripts over both transports.
// ABOUTME: POST /api/ask streams SSE frames; GET /api/ws upgrades to a command-driven socket.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/2389-research/tusk/protocol"
	"github.com/2389-research/tusk/transport"
)

// Server replays a Script to every client. It implements http.Handler
// so tests can mount it on httptest and demo mode on a real listener.
type Server struct {
	script   Script
	router   chi.Router
	upgrader websocket.Upgrader
}

func NewServer(script Script) *Server {
	s := &Server{
		script: script,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local stub, no origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post(transport.AskPath, s.handleAsk)
	r.Get(transport.SocketPath, s.handleSocket)
	return r
}

// ListenAndServe runs the stub on addr until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	log.Printf("stub agent listening on %s script=%s", addr, s.script.Name)
	return srv.ListenAndServe()
}

// Launch starts the stub on an ephemeral loopback port, for demo mode
// and tests. The returned shutdown func stops it.
func Launch(script Script) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("stub listen: %w", err)
	}
	srv := &http.Server{
		Handler:           NewServer(script),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("stub: serve: %v", err)
		}
	}()
	baseURL := "http://" + ln.Addr().String()
	log.Printf("stub agent listening on %s script=%s", ln.Addr(), script.Name)
	shutdown := func() {
		if err := srv.Close(); err != nil {
			log.Printf("stub: close: %v", err)
		}
	}
	return baseURL, shutdown, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"script": s.script.Name,
	})
}

// handleAsk answers one question with the whole script as an SSE
// stream. Each frame names the event out of band, so payloads carry no
// type tag.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}
	log.Printf("stub ask question=%q script=%s", req.Question, s.script.Name)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for _, action := range s.script.Actions {
		if !waitFor(r.Context(), action.Delay) {
			log.Printf("stub ask: client went away")
			return
		}
		data, err := json.Marshal(action.Event)
		if err != nil {
			log.Printf("stub ask: marshal %s: %v", action.Event.EventType(), err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", action.Event.EventType(), data)
		flusher.Flush()
	}
}

// handleSocket runs a persistent session: each user_message starts a
// playback, cancel stops the current one, feedback is acked
// immediately. Playback is linear; decisions are logged but never gate
// it.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stub socket: upgrade: %v", err)
		return
	}
	sess := &socketSession{conn: conn, script: s.script}
	sess.run(r.Context())
}

type socketSession struct {
	conn    *websocket.Conn
	script  Script
	writeMu sync.Mutex

	mu       sync.Mutex
	stopPlay context.CancelFunc
	playDone chan struct{}
}

func (ss *socketSession) run(ctx context.Context) {
	defer ss.conn.Close()
	defer ss.stopPlayback()

	for {
		kind, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("stub socket: client closed")
			} else {
				log.Printf("stub socket: read: %v", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		cmd, err := protocol.UnmarshalCommand(data)
		if err != nil {
			log.Printf("stub socket: dropping command: %v", err)
			continue
		}
		switch c := cmd.(type) {
		case protocol.UserMessage:
			log.Printf("stub socket: question=%q", c.Content)
			ss.startPlayback(ctx)
		case protocol.Feedback:
			log.Printf("stub socket: feedback=%q", c.Content)
			if err := ss.writeEvent(protocol.FeedbackAck{}); err != nil {
				log.Printf("stub socket: ack feedback: %v", err)
			}
		case protocol.Decision:
			log.Printf("stub socket: decision id=%s approve=%t", c.ID, c.Approve)
		case protocol.Cancel:
			log.Printf("stub socket: cancel")
			ss.stopPlayback()
		}
	}
}

// startPlayback stops any playback in flight, then replays the script
// on its own goroutine so the read loop stays responsive to cancel.
func (ss *socketSession) startPlayback(parent context.Context) {
	ss.stopPlayback()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	ss.mu.Lock()
	ss.stopPlay = cancel
	ss.playDone = done
	ss.mu.Unlock()

	go func() {
		defer close(done)
		for _, action := range ss.script.Actions {
			if !waitFor(ctx, action.Delay) {
				return
			}
			if err := ss.writeEvent(action.Event); err != nil {
				log.Printf("stub socket: write %s: %v", action.Event.EventType(), err)
				return
			}
		}
	}()
}

func (ss *socketSession) stopPlayback() {
	ss.mu.Lock()
	cancel, done := ss.stopPlay, ss.playDone
	ss.stopPlay, ss.playDone = nil, nil
	ss.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (ss *socketSession) writeEvent(ev protocol.Event) error {
	data, err := protocol.MarshalEvent(ev)
	if err != nil {
		return err
	}
	ss.writeMu.Lock()
	defer ss.writeMu.Unlock()
	return ss.conn.WriteMessage(websocket.TextMessage, data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("stub: write json response: %v", err)
	}
}

func waitFor(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
