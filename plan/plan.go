// Package plan defines the sample-domain ExecutionPlan published by the
// Scheduler and consumed by the Engine, and the lock-free double buffer
// that hands it across the editor/audio boundary (§4.4, §4.5, §9).
package plan

import "github.com/cjbrigato/go-vtm/ids"

// EventKind enumerates the engine-side event variants. Unlike a
// scheduler-side MusicalEvent, an Event carries no beat information — it
// has already been placed at a sample position by compile_block.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	NoteOnTarget
	NoteOffTarget
	ParamChange
	AudioStart
	AudioStop
)

// Event is one engine-side occurrence, applied at the start of the slice
// it is attached to.
type Event struct {
	Kind EventKind

	Note     int
	Velocity float64

	NodeID  ids.NodeID
	ParamID ids.ParamID
	Value   float64

	AudioID         ids.AudioID
	StartSample     uint64
	DurationSamples uint64
	Gain            float32
}

// SlicePlan is a contiguous sub-region of a block during which no events
// occur; events are attached to the slice they apply at the start of.
type SlicePlan struct {
	FrameOffset int // relative to the block
	FrameCount  int
	Events      []Event
}

// ExecutionPlan is one block's precompiled work: contiguous slices whose
// frame counts sum to BlockFrames, each carrying the events that apply at
// its start.
type ExecutionPlan struct {
	BlockStartSample uint64
	BlockFrames      int
	BPM              float64
	SampleRate       float64
	Slices           []SlicePlan
}

// Reset clears a plan's slices for reuse without shrinking capacity,
// matching the "no allocation on the publish path" rule (§4.4, §9): the
// Scheduler reuses the same ExecutionPlan value across publishes.
func (p *ExecutionPlan) Reset(blockStart uint64, blockFrames int, bpm, sampleRate float64) {
	p.BlockStartSample = blockStart
	p.BlockFrames = blockFrames
	p.BPM = bpm
	p.SampleRate = sampleRate
	p.Slices = p.Slices[:0]
}

// AppendSlice appends a new slice to the plan, reusing its prior event
// capacity if one already exists in the backing storage at that index.
func (p *ExecutionPlan) AppendSlice(frameOffset, frameCount int) *SlicePlan {
	n := len(p.Slices)
	if n < cap(p.Slices) {
		p.Slices = p.Slices[:n+1]
		s := &p.Slices[n]
		s.FrameOffset, s.FrameCount, s.Events = frameOffset, frameCount, s.Events[:0]
		return s
	}
	p.Slices = append(p.Slices, SlicePlan{FrameOffset: frameOffset, FrameCount: frameCount})
	return &p.Slices[len(p.Slices)-1]
}
