// Package voice implements the polyphonic voice pool: a fixed array of
// slots carrying pure lifecycle state (no DSP), with oldest-first voice
// stealing once the pool is exhausted.
//
// The allocation order and stealing policy mirror the note-tracking scheme
// in the teacher's audio.VoiceAllocator (activeNotes as an age-ordered
// queue, noteMap for O(1) note lookup) but the slots here carry no
// oscillator or envelope state — only {note, velocity, gate, trigger,
// release, active}, per the Node/VoiceContext split where DSP lives in
// graph nodes and the allocator owns only lifecycle.
package voice

import "github.com/cjbrigato/go-vtm/ids"

// Slot is one voice's lifecycle state. trigger and release are one-block
// pulses: true for exactly the block in which the transition happened,
// then cleared by ClearTriggers.
type Slot struct {
	Active   bool
	Note     int
	Velocity float64
	Gate     bool
	Trigger  bool
	Release  bool
}

// Context is a read-only snapshot of a slot handed to per-voice nodes
// during Graph.Process.
type Context struct {
	ID       ids.VoiceID
	Note     int
	Velocity float64
	Gate     bool
	Trigger  bool
	Release  bool
}

// Allocator is the fixed-size voice pool.
type Allocator struct {
	slots []Slot
	// order holds active slot indices oldest-first; the head is the next
	// stealing target. A slot's position here tracks allocation age, not
	// note identity, so repeated note_on on a live note does not reorder it.
	order []ids.VoiceID
	// byNote maps a sounding note number to the slot currently gating it,
	// mirroring the teacher's noteMap for O(1) note_off lookup.
	byNote map[int]ids.VoiceID
}

// NewAllocator builds a pool of maxVoices inactive slots.
func NewAllocator(maxVoices int) *Allocator {
	return &Allocator{
		slots:  make([]Slot, maxVoices),
		order:  make([]ids.VoiceID, 0, maxVoices),
		byNote: make(map[int]ids.VoiceID, maxVoices),
	}
}

// MaxVoices reports the fixed pool size.
func (a *Allocator) MaxVoices() int { return len(a.slots) }

func (a *Allocator) removeFromOrder(id ids.VoiceID) {
	for i, v := range a.order {
		if v == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			return
		}
	}
}

// NoteOn finds the first inactive slot, or steals the oldest active one if
// the pool is full. Retriggering an already-sounding note reuses its slot
// without changing its allocation age.
func (a *Allocator) NoteOn(note int, velocity float64) ids.VoiceID {
	if id, ok := a.byNote[note]; ok {
		s := &a.slots[id]
		s.Velocity = velocity
		s.Gate = true
		s.Trigger = true
		s.Release = false
		return id
	}

	var id ids.VoiceID
	found := false
	for i := range a.slots {
		if !a.slots[i].Active {
			id = ids.VoiceID(i)
			found = true
			break
		}
	}
	if !found {
		id = a.order[0]
		a.order = a.order[1:]
		delete(a.byNote, a.slots[id].Note)
	}

	s := &a.slots[id]
	s.Active = true
	s.Note = note
	s.Velocity = velocity
	s.Gate = true
	s.Trigger = true
	s.Release = false

	a.order = append(a.order, id)
	a.byNote[note] = id
	return id
}

// NoteOff finds the active, gated slot holding note and begins its release.
// A note with no matching gated slot is a no-op (e.g. already stolen).
func (a *Allocator) NoteOff(note int) {
	id, ok := a.byNote[note]
	if !ok {
		return
	}
	s := &a.slots[id]
	if !s.Active || !s.Gate {
		return
	}
	s.Gate = false
	s.Release = true
	delete(a.byNote, note)
}

// Deactivate clears a slot entirely; called by the engine once every
// per-voice node on that voice has voted it silent.
func (a *Allocator) Deactivate(id ids.VoiceID) {
	s := &a.slots[id]
	if !s.Active {
		return
	}
	if cur, ok := a.byNote[s.Note]; ok && cur == id {
		delete(a.byNote, s.Note)
	}
	a.removeFromOrder(id)
	*s = Slot{}
}

// ClearTriggers clears trigger and release pulses on every slot. Must be
// called exactly once per block, after the block's events and graph
// processing have observed them (see Engine.ProcessPlan).
func (a *Allocator) ClearTriggers() {
	for i := range a.slots {
		a.slots[i].Trigger = false
		a.slots[i].Release = false
	}
}

// ActiveVoices returns a read-only snapshot of every currently active slot.
// The slice is allocated here for editor/test convenience; the audio-thread
// call path (Graph.Process) iterates slots directly instead, see ForEachActive.
func (a *Allocator) ActiveVoices() []Context {
	out := make([]Context, 0, len(a.slots))
	for i := range a.slots {
		if a.slots[i].Active {
			out = append(out, a.contextAt(ids.VoiceID(i)))
		}
	}
	return out
}

// ForEachActive invokes fn for every active slot without allocating,
// suitable for the audio thread.
func (a *Allocator) ForEachActive(fn func(Context)) {
	for i := range a.slots {
		if a.slots[i].Active {
			fn(a.contextAt(ids.VoiceID(i)))
		}
	}
}

func (a *Allocator) contextAt(id ids.VoiceID) Context {
	s := a.slots[id]
	return Context{
		ID:       id,
		Note:     s.Note,
		Velocity: s.Velocity,
		Gate:     s.Gate,
		Trigger:  s.Trigger,
		Release:  s.Release,
	}
}

// ActiveCount reports the number of currently active slots.
func (a *Allocator) ActiveCount() int {
	return len(a.order)
}

// IsActive reports whether a given slot id is currently active.
func (a *Allocator) IsActive(id ids.VoiceID) bool {
	return a.slots[id].Active
}

// Slot returns a copy of a slot's raw state, mainly for tests.
func (a *Allocator) Slot(id ids.VoiceID) Slot {
	return a.slots[id]
}

// Reset silences every voice immediately, clearing all lifecycle state.
// Used by Engine.Reset on Stop/Seek.
func (a *Allocator) Reset() {
	for i := range a.slots {
		a.slots[i] = Slot{}
	}
	a.order = a.order[:0]
	for k := range a.byNote {
		delete(a.byNote, k)
	}
}
