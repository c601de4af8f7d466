// Package mailbox implements the single-slot hand-off between the capture
// stage (one producer) and the decode stage (one consumer).
//
// Unlike a latest-wins slot, a full mailbox rejects new frames: the producer
// never overwrites data the consumer has not read yet. The slot is a single
// atomic pointer, so TryPut, Take and Reset never block.
package mailbox

import (
	"sync/atomic"

	"github.com/MeKo-Tech/qrfeed/internal/frame"
)

// Mailbox holds zero or one unconsumed frame.
type Mailbox struct {
	slot atomic.Pointer[frame.Frame]

	puts  atomic.Uint64
	takes atomic.Uint64
	drops atomic.Uint64
}

// Stats is a snapshot of mailbox counters.
type Stats struct {
	Puts     uint64 `json:"puts"`
	Takes    uint64 `json:"takes"`
	Drops    uint64 `json:"drops"`
	Occupied bool   `json:"occupied"`
}

// New returns an empty mailbox.
func New() *Mailbox {
	return &Mailbox{}
}

// TryPut stores f if the slot is empty and reports whether it did.
// A full slot is left untouched and the frame is counted as dropped.
func (m *Mailbox) TryPut(f *frame.Frame) bool {
	if f == nil {
		return false
	}
	if m.slot.CompareAndSwap(nil, f) {
		m.puts.Add(1)
		return true
	}
	m.drops.Add(1)
	return false
}

// Take removes and returns the stored frame, if any.
func (m *Mailbox) Take() (*frame.Frame, bool) {
	f := m.slot.Swap(nil)
	if f == nil {
		return nil, false
	}
	m.takes.Add(1)
	return f, true
}

// Reset discards any stored frame.
func (m *Mailbox) Reset() {
	m.slot.Store(nil)
}

// Empty reports whether the slot currently holds no frame.
func (m *Mailbox) Empty() bool {
	return m.slot.Load() == nil
}

// Stats returns the current counters.
func (m *Mailbox) Stats() Stats {
	return Stats{
		Puts:     m.puts.Load(),
		Takes:    m.takes.Load(),
		Drops:    m.drops.Load(),
		Occupied: !m.Empty(),
	}
}
