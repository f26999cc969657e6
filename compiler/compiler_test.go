package compiler

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/registry"
	"github.com/cjbrigato/go-vtm/session"
)

func TestCompileUnknownNodeTypeFails(t *testing.T) {
	def := session.NewGraphDef()
	id := def.AddNode(ids.NodeTypeID(9999), 0, 0)
	_ = id
	reg := registry.NewBundled()

	_, err := Compile(def, reg, 2, 256, 8, 48000, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestCompileInvalidConnectionFails(t *testing.T) {
	def := session.NewGraphDef()
	osc := def.AddNode(ids.TypeOscSine, 0, 0)
	def.Connect(osc, 0, ids.NodeID(777), 0)
	reg := registry.NewBundled()

	_, err := Compile(def, reg, 2, 256, 8, 48000, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConnection)
}

// TestCompileRecompileAfterInsertingGainNode exercises scenario 4: an
// existing osc->mixer patch recompiles cleanly, and still produces a
// valid topological order once a gain node is spliced between them.
func TestCompileRecompileAfterInsertingGainNode(t *testing.T) {
	reg := registry.NewBundled()

	def := session.NewGraphDef()
	osc := def.AddNode(ids.TypeOscSine, 0, 0)
	mixer := def.AddNode(ids.TypeOutputMixer, 0, 0)
	def.Connect(osc, 0, mixer, 0)
	def.SetOutputNode(mixer)

	g1, err := Compile(def, reg, 2, 256, 8, 48000, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, g1.HasCycle())
	assert.Equal(t, 2, g1.NodeCount())

	gain := def.AddNode(ids.TypeGain, 0, 0)
	def.Disconnect(osc, 0, mixer, 0)
	def.Connect(osc, 0, gain, 0)
	def.Connect(gain, 0, mixer, 0)

	g2, err := Compile(def, reg, 2, 256, 8, 48000, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, g2.HasCycle())
	assert.Equal(t, 3, g2.NodeCount())

	order := g2.Order()
	require.Len(t, order, 3)

	oscIdx, _ := g2.IndexOf(osc)
	gainIdx, _ := g2.IndexOf(gain)
	mixerIdx, _ := g2.IndexOf(mixer)

	pos := func(idx int) int {
		for i, o := range order {
			if o == idx {
				return i
			}
		}
		return -1
	}
	assert.Less(t, pos(oscIdx), pos(gainIdx), "osc must precede gain")
	assert.Less(t, pos(gainIdx), pos(mixerIdx), "gain must precede mixer")
}

func TestBuildTrackChainAndMasterBusWireFullOutput(t *testing.T) {
	reg := registry.NewBundled()
	def := session.NewGraphDef()

	inst1 := def.AddNode(ids.TypeOscSine, 0, 0)
	inst2 := def.AddNode(ids.TypeOscSaw, 0, 0)

	pan1 := BuildTrackChain(def, inst1, 0.8, -0.2)
	pan2 := BuildTrackChain(def, inst2, 0.6, 0.2)

	BuildMasterBus(def, []ids.NodeID{pan1, pan2}, 1.0)

	g, err := Compile(def, reg, 2, 256, 8, 48000, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, g.HasCycle())
	assert.Equal(t, 8, g.NodeCount()) // 2 instruments + 2*(gain+pan) + bus + mixer
	assert.GreaterOrEqual(t, g.OutputIndex(), 0)
}
