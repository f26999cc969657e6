package nodes

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/voice"
)

func peak(buf graphdsp.Buffer, frames int) float32 {
	var p float32
	for ch := 0; ch < buf.Channels(); ch++ {
		row := buf.Channel(ch)
		for i := 0; i < frames; i++ {
			v := row[i]
			if v < 0 {
				v = -v
			}
			if v > p {
				p = v
			}
		}
	}
	return p
}

// Scenario 1 (spec §8): sine -> ADSR -> output, one note, render 4 blocks
// of 512 frames at 48kHz; audible output in blocks 0/1; voice deactivates
// within a few blocks of note_off.
func TestScenarioSineEnvelopeOneNote(t *testing.T) {
	const sr = 48000.0
	const block = 512

	g := graphdsp.NewGraph(1, block, 4, zerolog.Nop())
	osc := g.AddNode(1, ids.TypeOscSine, graphdsp.PerVoice, NewOscillatorFactory(ShapeSine))
	env := g.AddNode(2, ids.TypeADSR, graphdsp.PerVoice, NewADSRFactory())
	out := g.AddNode(3, ids.TypeOutputMixer, graphdsp.Global, NewOutputMixerFactory())
	g.Connect(osc, env)
	g.Connect(env, out)
	g.SetOutputIndex(out)
	g.Prepare(sr)

	g.SetParamByID(2, ids.ParamAttack, 0.01)
	g.SetParamByID(2, ids.ParamDecay, 0.01)
	g.SetParamByID(2, ids.ParamSustain, 0.8)
	g.SetParamByID(2, ids.ParamRelease, 0.02)

	alloc := voice.NewAllocator(4)
	alloc.NoteOn(60, 0.8)

	var samplePos uint64
	for b := 0; b < 2; b++ {
		g.Process(block, samplePos, 120, alloc)
		require.Greater(t, peak(g.OutputBuffer(), block), float32(0.1), "block %d should be audible", b)
		for _, v := range g.VoicesToDeactivate() {
			alloc.Deactivate(v)
		}
		alloc.ClearTriggers()
		samplePos += block
	}

	require.Equal(t, 1, alloc.ActiveCount())

	alloc.NoteOff(60)
	for b := 2; b < 6; b++ {
		g.Process(block, samplePos, 120, alloc)
		for _, v := range g.VoicesToDeactivate() {
			alloc.Deactivate(v)
		}
		alloc.ClearTriggers()
		samplePos += block
	}

	require.Equal(t, 0, alloc.ActiveCount(), "voice should have drained out by block 5")
}
