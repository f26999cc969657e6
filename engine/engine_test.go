package engine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/nodes"
	"github.com/cjbrigato/go-vtm/plan"
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

func buildOscEnvGraph(t *testing.T) *graphdsp.Graph {
	t.Helper()
	const sr = 48000.0
	const block = 512
	g := graphdsp.NewGraph(1, block, 4, zerolog.Nop())
	osc := g.AddNode(1, ids.TypeOscSine, graphdsp.PerVoice, nodes.NewOscillatorFactory(nodes.ShapeSine))
	env := g.AddNode(2, ids.TypeADSR, graphdsp.PerVoice, nodes.NewADSRFactory())
	out := g.AddNode(3, ids.TypeOutputMixer, graphdsp.Global, nodes.NewOutputMixerFactory())
	g.Connect(osc, env)
	g.Connect(env, out)
	g.SetOutputIndex(out)
	g.Prepare(sr)

	g.SetParamByID(2, ids.ParamAttack, 0.01)
	g.SetParamByID(2, ids.ParamDecay, 0.01)
	g.SetParamByID(2, ids.ParamSustain, 0.8)
	g.SetParamByID(2, ids.ParamRelease, 0.02)
	return g
}

// TestProcessPlanAppliesEventsBeforeSliceAndDrainsDeactivation verifies
// §4.6's ordering contract: a NoteOn event attached to slice 0 must be
// audible within that same slice, and voices silent for the whole block
// are deactivated only after every slice of the block has been rendered.
func TestProcessPlanAppliesEventsBeforeSliceAndDrainsDeactivation(t *testing.T) {
	const block = 512
	g := buildOscEnvGraph(t)
	e := NewEngine(g, 4, zerolog.Nop())

	ep := &plan.ExecutionPlan{BlockStartSample: 0, BlockFrames: block, BPM: 120, SampleRate: 48000}
	ep.AppendSlice(0, block)
	ep.Slices[0].Events = []plan.Event{{Kind: plan.NoteOn, Note: 60, Velocity: 0.8}}

	e.ProcessPlan(ep)

	assert.Greater(t, peak(e.Render(), block), float32(0.1), "note-on in slice 0 should be audible within the same block")
	assert.Equal(t, 1, e.ActiveVoiceCount())
}

// TestProcessPlanNoteOffDrainsVoiceAfterRelease exercises note-off through
// several blocks until the voice's ADSR tail has fully decayed and the
// engine deactivates it.
func TestProcessPlanNoteOffDrainsVoiceAfterRelease(t *testing.T) {
	const block = 512
	g := buildOscEnvGraph(t)
	e := NewEngine(g, 4, zerolog.Nop())

	onPlan := &plan.ExecutionPlan{BlockStartSample: 0, BlockFrames: block, BPM: 120, SampleRate: 48000}
	onPlan.AppendSlice(0, block)
	onPlan.Slices[0].Events = []plan.Event{{Kind: plan.NoteOn, Note: 60, Velocity: 1.0}}
	e.ProcessPlan(onPlan)
	require.Equal(t, 1, e.ActiveVoiceCount())

	offPlan := &plan.ExecutionPlan{BlockStartSample: block, BlockFrames: block, BPM: 120, SampleRate: 48000}
	offPlan.AppendSlice(0, block)
	offPlan.Slices[0].Events = []plan.Event{{Kind: plan.NoteOff, Note: 60}}
	e.ProcessPlan(offPlan)

	for b := 0; b < 10 && e.ActiveVoiceCount() > 0; b++ {
		samplePos := uint64(2+b) * block
		tail := &plan.ExecutionPlan{BlockStartSample: samplePos, BlockFrames: block, BPM: 120, SampleRate: 48000}
		tail.AppendSlice(0, block)
		e.ProcessPlan(tail)
	}

	assert.Equal(t, 0, e.ActiveVoiceCount(), "voice should have drained out after release tail")
}

// TestProcessPlanParamChangeAndAudioEventsRouteToGraph verifies a
// ParamChange event reaches the targeted node and an AudioStart with
// ids.NoAudio is counted as an unknown-audio drop rather than silently
// forwarded.
func TestProcessPlanParamChangeAndAudioEventsRouteToGraph(t *testing.T) {
	const block = 256
	g := graphdsp.NewGraph(1, block, 1, zerolog.Nop())
	gain := g.AddNode(1, ids.TypeGain, graphdsp.Global, nodes.NewGainFactory())
	player := g.AddNode(2, ids.TypeAudioPlayer, graphdsp.Global, nodes.NewAudioPlayerFactory())
	g.Connect(player, gain)
	g.SetOutputIndex(gain)
	g.Prepare(48000)

	e := NewEngine(g, 1, zerolog.Nop())

	ep := &plan.ExecutionPlan{BlockStartSample: 0, BlockFrames: block, BPM: 120, SampleRate: 48000}
	ep.AppendSlice(0, block)
	ep.Slices[0].Events = []plan.Event{
		{Kind: plan.ParamChange, NodeID: 1, ParamID: ids.ParamGain, Value: 0.5},
		{Kind: plan.AudioStart, NodeID: 2, AudioID: ids.NoAudio},
	}
	e.ProcessPlan(ep)

	assert.EqualValues(t, 0, e.DroppedEventCount.Load())
	assert.EqualValues(t, 1, e.UnknownAudioCount.Load())
}

// TestProcessPlanParamChangeOnUnknownNodeCountsDropped verifies a
// ParamChange naming a NodeID absent from the graph — e.g. one that named
// a node removed by a Graph swap — is counted in DroppedEventCount rather
// than silently discarded.
func TestProcessPlanParamChangeOnUnknownNodeCountsDropped(t *testing.T) {
	const block = 256
	g := graphdsp.NewGraph(1, block, 1, zerolog.Nop())
	gain := g.AddNode(1, ids.TypeGain, graphdsp.Global, nodes.NewGainFactory())
	g.SetOutputIndex(gain)
	g.Prepare(48000)

	e := NewEngine(g, 1, zerolog.Nop())

	ep := &plan.ExecutionPlan{BlockStartSample: 0, BlockFrames: block, BPM: 120, SampleRate: 48000}
	ep.AppendSlice(0, block)
	ep.Slices[0].Events = []plan.Event{
		{Kind: plan.ParamChange, NodeID: 99, ParamID: ids.ParamGain, Value: 0.5},
	}
	e.ProcessPlan(ep)

	assert.EqualValues(t, 1, e.DroppedEventCount.Load())
}

func TestSwapGraphResetsVoiceState(t *testing.T) {
	g := buildOscEnvGraph(t)
	e := NewEngine(g, 4, zerolog.Nop())

	ep := &plan.ExecutionPlan{BlockStartSample: 0, BlockFrames: 512, BPM: 120, SampleRate: 48000}
	ep.AppendSlice(0, 512)
	ep.Slices[0].Events = []plan.Event{{Kind: plan.NoteOn, Note: 60, Velocity: 1.0}}
	e.ProcessPlan(ep)
	require.Equal(t, 1, e.ActiveVoiceCount())

	g2 := buildOscEnvGraph(t)
	e.SwapGraph(g2)

	assert.Equal(t, 0, e.ActiveVoiceCount())
}
