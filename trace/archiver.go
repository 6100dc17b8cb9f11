// ABOUTME: Archiver turns finished steps into immutable HistoricalSteps.
// ABOUTME: Indexes come from a monotonic counter so same-instant archives never collide.
package trace

import (
	"crypto/rand"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// Archiver produces HistoricalSteps with unique, strictly increasing
// indexes. Seeding the counter from the current time keeps indexes from
// colliding across process restarts even though the archive itself is
// in-memory only.
type Archiver struct {
	next atomic.Uint64
}

// NewArchiver creates an Archiver whose first index is the current
// Unix time in milliseconds.
func NewArchiver() *Archiver {
	a := &Archiver{}
	a.next.Store(uint64(time.Now().UnixMilli()))
	return a
}

// Archive converts one finished step into a HistoricalStep. Callers are
// responsible for only archiving steps that carry a result.
func (a *Archiver) Archive(step Step) HistoricalStep {
	return HistoricalStep{
		ID:         newULID(),
		Index:      a.next.Add(1) - 1,
		ToolName:   step.ToolName,
		Args:       step.Args.Clone(),
		Result:     step.Result,
		ArchivedAt: time.Now(),
	}
}

// newULID generates a new ULID using crypto/rand entropy.
func newULID() ulid.ULID {
	return ulid.MustNew(ulid.Now(), rand.Reader)
}
