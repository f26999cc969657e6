package scheduler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/plan"
)

func sumFrames(slices []plan.SlicePlan) int {
	total := 0
	for _, s := range slices {
		total += s.FrameCount
	}
	return total
}

func TestCompileBlockNoEventsEmitsOneSlice(t *testing.T) {
	s := NewScheduler(120, 48000, zerolog.Nop())
	h := plan.NewHandoff()

	s.CompileBlock(h, 512, nil)

	ep := h.Read()
	require.Len(t, ep.Slices, 1)
	require.Equal(t, 512, sumFrames(ep.Slices))
}

func TestCompileBlockParamChangeAtSliceBoundary(t *testing.T) {
	// Scenario 3: NoteOn@0, ParamChange(freq)@0.5 beats, NoteOff@1.0 beats,
	// bpm=120, sr=48000, block=512. Expect >=2 slices in the block
	// containing beat 0.5, with the ParamChange attached at the correct
	// sample offset.
	s := NewScheduler(120, 48000, zerolog.Nop())
	h := plan.NewHandoff()

	events := []MusicalEvent{
		{Kind: plan.NoteOn, Beat: 0.0, Note: 60, Velocity: 0.8},
		{Kind: plan.ParamChange, Beat: 0.5, NodeID: 1, ParamID: ids.ParamFrequency, Value: 880},
		{Kind: plan.NoteOff, Beat: 1.0, Note: 60},
	}

	samplesPerBeat := s.Transport.SamplesPerBeat() // 24000 at 120bpm/48kHz
	require.InDelta(t, 24000, samplesPerBeat, 1e-6)

	// beat 0.5 -> sample 12000, which lands in block 0 ([0,512)) only if
	// 12000 < 512 — it doesn't, so walk blocks until we reach it.
	var found *plan.SlicePlan
	for block := 0; block < 64 && found == nil; block++ {
		s.CompileBlock(h, 512, events)
		ep := h.Read()
		require.Equal(t, 512, sumFrames(ep.Slices))
		for i := range ep.Slices {
			for _, e := range ep.Slices[i].Events {
				if e.Kind == plan.ParamChange {
					require.Equal(t, uint64(ep.BlockStartSample)+uint64(ep.Slices[i].FrameOffset), uint64(12000))
					found = &ep.Slices[i]
				}
			}
		}
		if found != nil {
			require.GreaterOrEqual(t, len(ep.Slices), 2)
		}
	}
	require.NotNil(t, found, "ParamChange at beat 0.5 must be observed in some block")
}

func TestCompileBlockEventAtBlockStartAttachesToFirstSlice(t *testing.T) {
	s := NewScheduler(120, 48000, zerolog.Nop())
	h := plan.NewHandoff()

	events := []MusicalEvent{
		{Kind: plan.NoteOn, Beat: 0.0, Note: 60, Velocity: 1.0},
	}
	s.CompileBlock(h, 512, events)
	ep := h.Read()
	require.NotEmpty(t, ep.Slices[0].Events)
	require.Equal(t, 0, ep.Slices[0].FrameOffset)
}
