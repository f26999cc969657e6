package plan

import "sync/atomic"

// Handoff is the two-slot, single-producer/single-consumer plan buffer.
// Go's sync/atomic gives sequentially-consistent access for Load/Store,
// a strictly stronger (and simpler to reason about) guarantee than the
// acquire/release pairing the original design calls for; it is the
// idiomatic substitute used here rather than hand-rolling weaker memory
// orders the Go memory model does not expose.
type Handoff struct {
	slots [2]ExecutionPlan
	index atomic.Uint32 // which slot is currently visible to the reader
}

// NewHandoff returns a handoff with both slots zeroed.
func NewHandoff() *Handoff {
	return &Handoff{}
}

// WriteSlot returns the slot the producer should fill next: the one NOT
// currently visible to the reader.
func (h *Handoff) WriteSlot() *ExecutionPlan {
	cur := h.index.Load()
	return &h.slots[1-cur]
}

// Publish makes the slot last returned by WriteSlot visible to the reader.
// Must be called exactly once after filling that slot.
func (h *Handoff) Publish() {
	cur := h.index.Load()
	h.index.Store(1 - cur)
}

// Read returns the currently published plan. Safe to call concurrently
// with the producer; the reader always observes a whole plan, never a
// partially-written one, because the index flips only after the write
// completes.
func (h *Handoff) Read() *ExecutionPlan {
	cur := h.index.Load()
	return &h.slots[cur]
}
