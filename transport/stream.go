// ABOUTME: Stream is the transport-agnostic event source the dispatcher drains.
// ABOUTME: Both the one-shot ask client and the duplex socket implement it.
package transport

import (
	"github.com/2389-research/tusk/protocol"
)

// Stream delivers decoded backend events in arrival order.
//
// Next blocks until an event arrives and returns io.EOF once the stream
// has ended, whether by a clean close, a cancel, or a timeout. Malformed
// frames are skipped with a logged diagnostic rather than ending the
// stream; any other error is terminal.
type Stream interface {
	Next() (protocol.Event, error)
	Close() error
}
