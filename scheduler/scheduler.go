// Package scheduler translates beat-domain musical events into a
// sample-accurate, event-free-slice ExecutionPlan published via a
// plan.Handoff. It runs exclusively on the editor thread (§4.5).
package scheduler

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/plan"
)

// MusicalEvent is the scheduler-side counterpart of plan.Event: the same
// variants plus a beat position, sortable by sample position once
// resolved against a Transport (§3).
type MusicalEvent struct {
	Kind plan.EventKind
	Beat float64

	Note     int
	Velocity float64

	NodeID  ids.NodeID
	ParamID ids.ParamID
	Value   float64

	// Audio events carry their sample-domain placement already, computed
	// by Clip Playback from the clip's tempo and the pool entry's sample
	// rate (§4.9); the scheduler only needs Beat to place them in a block.
	AudioID         ids.AudioID
	StartSample     uint64
	DurationSamples uint64
	Gain            float32
}

func toEngineEvent(me MusicalEvent) plan.Event {
	return plan.Event{
		Kind:            me.Kind,
		Note:            me.Note,
		Velocity:        me.Velocity,
		NodeID:          me.NodeID,
		ParamID:         me.ParamID,
		Value:           me.Value,
		AudioID:         me.AudioID,
		StartSample:     me.StartSample,
		DurationSamples: me.DurationSamples,
		Gain:            me.Gain,
	}
}

type sortedEvent struct {
	samplePos uint64
	ev        MusicalEvent
}

// Scheduler owns the musical transport and the scratch vectors used to
// compile one block at a time without allocating on the hot path beyond
// their initial capacity (§9).
type Scheduler struct {
	Transport Transport

	scratch  []sortedEvent
	log      zerolog.Logger
}

// NewScheduler builds a scheduler at the given tempo and sample rate, with
// scratch capacity pre-sized generously for typical event density.
func NewScheduler(bpm, sampleRate float64, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Transport: Transport{BPM: bpm, SampleRate: sampleRate},
		scratch:   make([]sortedEvent, 0, 256),
		log:       log,
	}
}

// CompileBlock implements §4.5's compile_block: resolves musicalEvents
// that fall within the current block window into engine Events attached
// to slice boundaries, publishes the result, and advances the transport.
func (s *Scheduler) CompileBlock(h *plan.Handoff, blockFrames int, musicalEvents []MusicalEvent) {
	ep := h.WriteSlot()
	blockStart := s.Transport.SamplePosition
	ep.Reset(blockStart, blockFrames, s.Transport.BPM, s.Transport.SampleRate)

	s.scratch = s.scratch[:0]
	for _, me := range musicalEvents {
		sp := s.Transport.EventSamplePosition(me.Beat)
		if sp >= blockStart && sp < blockStart+uint64(blockFrames) {
			s.scratch = append(s.scratch, sortedEvent{samplePos: sp, ev: me})
		}
	}

	if len(s.scratch) == 0 {
		ep.AppendSlice(0, blockFrames)
		s.Transport.Advance(blockFrames)
		h.Publish()
		return
	}

	sort.SliceStable(s.scratch, func(i, j int) bool {
		return s.scratch[i].samplePos < s.scratch[j].samplePos
	})

	cursor := 0
	i := 0
	for i < len(s.scratch) {
		offset := int(s.scratch[i].samplePos - blockStart)
		if offset > cursor {
			ep.AppendSlice(cursor, offset-cursor)
			cursor = offset
		}

		j := i
		for j < len(s.scratch) && int(s.scratch[j].samplePos-blockStart) == offset {
			j++
		}

		nextOffset := blockFrames
		if j < len(s.scratch) {
			nextOffset = int(s.scratch[j].samplePos - blockStart)
		}

		slice := ep.AppendSlice(offset, nextOffset-offset)
		for k := i; k < j; k++ {
			slice.Events = append(slice.Events, toEngineEvent(s.scratch[k].ev))
		}
		cursor = nextOffset
		i = j
	}

	if cursor < blockFrames {
		ep.AppendSlice(cursor, blockFrames-cursor)
	}

	s.Transport.Advance(blockFrames)
	h.Publish()
}
