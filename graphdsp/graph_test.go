package graphdsp

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/voice"
)

// constNode emits a constant value on every channel, useful for order and
// silence-propagation tests without depending on the nodes package.
type constNode struct {
	poly  Polyphony
	value float32
	mute  bool
}

func (c *constNode) Prepare(float64, int)  {}
func (c *constNode) Reset()                {}
func (c *constNode) SetParam(ids.ParamID, float64) {}
func (c *constNode) Polyphony() Polyphony  { return c.poly }
func (c *constNode) Process(ctx ProcessContext, inputs []Buffer, out Buffer) bool {
	if c.mute {
		return true
	}
	for ch := 0; ch < out.Channels(); ch++ {
		row := out.Channel(ch)
		for i := 0; i < ctx.Frames; i++ {
			row[i] = c.value
		}
	}
	return false
}

func TestPrepareOrdersSourcesBeforeSinks(t *testing.T) {
	g := NewGraph(2, 512, 4, zerolog.Nop())
	osc := g.AddNode(1, ids.TypeOscSine, Global, func() Node { return &constNode{poly: Global, value: 1} })
	gain := g.AddNode(2, ids.TypeGain, Global, func() Node { return &constNode{poly: Global, value: 1} })
	out := g.AddNode(3, ids.TypeOutputMixer, Global, func() Node { return &constNode{poly: Global, value: 1} })
	g.Connect(osc, gain)
	g.Connect(gain, out)
	g.SetOutputIndex(out)

	g.Prepare(48000)

	pos := map[int]int{}
	for i, idx := range g.Order() {
		pos[idx] = i
	}
	require.Less(t, pos[osc], pos[gain])
	require.Less(t, pos[gain], pos[out])
	require.False(t, g.HasCycle())
}

func TestGlobalNodeSkipsDSPWhenAllInputsSilent(t *testing.T) {
	g := NewGraph(1, 64, 1, zerolog.Nop())
	src := g.AddNode(1, ids.TypeOscSine, Global, func() Node { return &constNode{poly: Global, mute: true} })
	sink := g.AddNode(2, ids.TypeGain, Global, func() Node { return &constNode{poly: Global, value: 9} })
	g.Connect(src, sink)
	g.SetOutputIndex(sink)
	g.Prepare(48000)

	alloc := voice.NewAllocator(1)
	g.Process(64, 0, 120, alloc)

	out := g.OutputBuffer()
	require.InDelta(t, 0, out.Channel(0)[0], 1e-9, "sink must be skipped and treated as silent/zero when every input is silent")
}

func TestConnectDedupesIdempotently(t *testing.T) {
	g := NewGraph(1, 64, 1, zerolog.Nop())
	a := g.AddNode(1, ids.TypeOscSine, Global, func() Node { return &constNode{poly: Global} })
	b := g.AddNode(2, ids.TypeGain, Global, func() Node { return &constNode{poly: Global} })
	g.Connect(a, b)
	g.Connect(a, b)
	require.Len(t, g.nodes[b].inputs, 1)
}

func TestProcessDoesNotAllocate(t *testing.T) {
	g := NewGraph(2, 256, 8, zerolog.Nop())
	src := g.AddNode(1, ids.TypeOscSine, PerVoice, func() Node { return &constNode{poly: PerVoice, value: 1} })
	env := g.AddNode(2, ids.TypeADSR, PerVoice, func() Node { return &constNode{poly: PerVoice, value: 1} })
	out := g.AddNode(3, ids.TypeOutputMixer, Global, func() Node { return &constNode{poly: Global, value: 1} })
	g.Connect(src, env)
	g.Connect(env, out)
	g.SetOutputIndex(out)
	g.Prepare(48000)

	alloc := voice.NewAllocator(8)
	alloc.NoteOn(60, 1.0)
	alloc.NoteOn(64, 1.0)

	allocs := testing.AllocsPerRun(100, func() {
		g.Process(256, 0, 120, alloc)
	})
	require.Zero(t, allocs, "Graph.Process must not allocate on the audio thread")
}

func TestPerVoiceSilenceVotingRecordsSilentVoice(t *testing.T) {
	g := NewGraph(1, 32, 2, zerolog.Nop())
	env := g.AddNode(1, ids.TypeADSR, PerVoice, func() Node { return &constNode{poly: PerVoice, mute: true} })
	g.SetOutputIndex(env)
	g.Prepare(48000)

	alloc := voice.NewAllocator(2)
	v0 := alloc.NoteOn(60, 1.0)
	g.Process(32, 0, 120, alloc)

	votes := g.VoicesToDeactivate()
	require.Contains(t, votes, v0)
}
