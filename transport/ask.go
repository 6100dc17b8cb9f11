// ABOUTME: One-shot ask transport: POST a question, stream events back over SSE.
// ABOUTME: A hard wall-clock timeout bounds the whole exchange, body included.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389-research/tusk/protocol"
)

// Endpoint paths shared by clients and servers of this protocol.
const (
	AskPath    = "/api/ask"
	SocketPath = "/api/ws"
)

// DefaultAskTimeout bounds a single question/answer exchange end to end.
const DefaultAskTimeout = 300 * time.Second

// AskClient issues one-shot questions against a backend's streaming ask
// endpoint.
type AskClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// AskOption customizes an AskClient.
type AskOption func(*AskClient)

// WithAskTimeout overrides the wall-clock limit for the full exchange.
func WithAskTimeout(d time.Duration) AskOption {
	return func(c *AskClient) { c.timeout = d }
}

// WithHTTPClient substitutes the underlying HTTP client. The client
// must not set its own Timeout or it will sever long streams early.
func WithHTTPClient(client *http.Client) AskOption {
	return func(c *AskClient) { c.client = client }
}

// NewAskClient creates a client for the ask endpoint under baseURL.
func NewAskClient(baseURL string, opts ...AskOption) *AskClient {
	c := &AskClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: DefaultAskTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask submits question and returns the event stream of the agent
// answering it. The returned Stream stays valid until io.EOF, an error,
// Close, or the wall-clock timeout, whichever comes first.
func (c *AskClient) Ask(ctx context.Context, question string) (Stream, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	body, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("marshal ask request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AskPath, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ask request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		cancel()
		return nil, fmt.Errorf("ask request: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	return &askStream{
		body:   resp.Body,
		frames: NewFrameReader(resp.Body),
		cancel: cancel,
	}, nil
}

// askStream adapts the SSE frame reader to the Stream interface.
type askStream struct {
	body   io.ReadCloser
	frames *FrameReader
	cancel context.CancelFunc

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func (s *askStream) Next() (protocol.Event, error) {
	for {
		frame, err := s.frames.Next()
		if err != nil {
			// A deliberate Close severs the body mid-read; report that
			// as a normal end of stream, not a transport failure.
			if s.closed.Load() {
				return nil, io.EOF
			}
			return nil, err
		}
		ev, err := protocol.UnmarshalEventPayload(frame.Type, []byte(frame.Data))
		if err != nil {
			log.Printf("ask stream: dropping frame type=%q: %v", frame.Type, err)
			continue
		}
		return ev, nil
	}
}

// Close aborts the exchange. A blocked Next unblocks with io.EOF.
func (s *askStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
