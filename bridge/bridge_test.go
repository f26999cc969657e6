package bridge

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjbrigato/go-vtm/compiler"
	"github.com/cjbrigato/go-vtm/engine"
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/plan"
	"github.com/cjbrigato/go-vtm/registry"
	"github.com/cjbrigato/go-vtm/session"
)

func buildHandles(t *testing.T) (*SessionHandle, *EngineHandle, chan ResultEvent, *registry.Registry) {
	t.Helper()
	reg := registry.NewBundled()
	sess := session.NewSession(120, 48000)

	commands := make(chan Command, 64)
	results := make(chan ResultEvent, 64)
	handoff := plan.NewHandoff()

	sessionHandle := NewSessionHandle(sess, commands, results)

	osc := sessionHandle.AddNode(ids.TypeOscSine, 0, 0)
	env := sessionHandle.AddNode(ids.TypeADSR, 0, 0)
	out := sessionHandle.AddNode(ids.TypeOutputMixer, 0, 0)
	sessionHandle.Connect(osc, 0, env, 0)
	sessionHandle.Connect(env, 0, out, 0)
	sessionHandle.SetOutputNode(out)

	g, err := compiler.Compile(sess.Graph, reg, 1, 256, 4, 48000, zerolog.Nop())
	require.NoError(t, err)

	e := engine.NewEngine(g, 4, zerolog.Nop())
	engineHandle := NewEngineHandle(e, commands, results, handoff)

	// Drain the topology commands emitted building the initial graph so
	// they don't pollute a later ProcessCommands() assertion.
	for engineHandle.ProcessCommands() {
	}

	return sessionHandle, engineHandle, results, reg
}

func TestSessionHandleOptimisticallyUpdatesLocalSession(t *testing.T) {
	sessionHandle, _, _, _ := buildHandles(t)

	id := sessionHandle.AddNode(ids.TypeGain, 10, 20)
	node, ok := sessionHandle.Session.Graph.Nodes[id]
	require.True(t, ok)
	assert.Equal(t, 10.0, node.X)
	assert.Equal(t, 20.0, node.Y)
}

func TestProcessCommandsReportsRecompileNeededForTopologyChange(t *testing.T) {
	sessionHandle, engineHandle, _, _ := buildHandles(t)

	sessionHandle.AddNode(ids.TypeGain, 0, 0)

	needsRecompile := engineHandle.ProcessCommands()
	assert.True(t, needsRecompile)
}

func TestProcessCommandsTreatsSetParamAsRTSafe(t *testing.T) {
	sessionHandle, engineHandle, _, _ := buildHandles(t)

	envNodeID := ids.NodeID(1) // env is the second node added in buildHandles (ids 0,1,2)
	sessionHandle.SetParam(envNodeID, ids.ParamAttack, 0.5)

	needsRecompile := engineHandle.ProcessCommands()
	assert.False(t, needsRecompile, "SetParam is RT-safe and must not request a recompile")
}

func TestStopCommandResetsEngineAndReadback(t *testing.T) {
	sessionHandle, engineHandle, _, _ := buildHandles(t)

	sessionHandle.Play()
	sessionHandle.NoteOn(60, 1.0)
	engineHandle.ProcessCommands()
	assert.True(t, engineHandle.Readback.Read().Running)
	assert.Equal(t, 1, engineHandle.Engine.ActiveVoiceCount())

	sessionHandle.Stop()
	engineHandle.ProcessCommands()
	assert.False(t, engineHandle.Readback.Read().Running)
	assert.Equal(t, 0, engineHandle.Engine.ActiveVoiceCount())
}

func TestSwapGraphReportsResult(t *testing.T) {
	_, engineHandle, results, reg := buildHandles(t)

	def := session.NewGraphDef()
	osc := def.AddNode(ids.TypeOscSine, 0, 0)
	out := def.AddNode(ids.TypeOutputMixer, 0, 0)
	def.Connect(osc, 0, out, 0)
	def.SetOutputNode(out)

	g, err := compiler.Compile(def, reg, 1, 256, 4, 48000, zerolog.Nop())
	require.NoError(t, err)

	engineHandle.SwapGraph(g)

	select {
	case r := <-results:
		assert.Equal(t, ResultOk, r.Kind)
	default:
		t.Fatal("expected a result event after SwapGraph")
	}
}

// TestAddAudioLoadsSampleIntoCompiledAudioPlayerNode verifies AddAudio's
// CmdLoadAudio actually reaches the compiled graph's AudioPlayer node, and
// that a subsequent AudioStart event for that sample is not dropped.
func TestAddAudioLoadsSampleIntoCompiledAudioPlayerNode(t *testing.T) {
	reg := registry.NewBundled()
	sess := session.NewSession(120, 48000)

	commands := make(chan Command, 64)
	results := make(chan ResultEvent, 64)
	handoff := plan.NewHandoff()

	sessionHandle := NewSessionHandle(sess, commands, results)
	player := sessionHandle.AddNode(ids.TypeAudioPlayer, 0, 0)
	sessionHandle.SetOutputNode(player)

	g, err := compiler.Compile(sess.Graph, reg, 1, 256, 1, 48000, zerolog.Nop())
	require.NoError(t, err)

	e := engine.NewEngine(g, 1, zerolog.Nop())
	engineHandle := NewEngineHandle(e, commands, results, handoff)
	for engineHandle.ProcessCommands() {
	}

	audioID := sessionHandle.AddAudio(player, "kick", 48000, 1, []float32{1, 1, 1, 1})
	engineHandle.ProcessCommands()

	select {
	case r := <-results:
		t.Fatalf("expected no error result from a valid AddAudio, got %+v", r)
	default:
	}

	ep := &plan.ExecutionPlan{BlockStartSample: 0, BlockFrames: 4, BPM: 120, SampleRate: 48000}
	ep.AppendSlice(0, 4)
	ep.Slices[0].Events = []plan.Event{
		{Kind: plan.AudioStart, NodeID: player, AudioID: audioID, StartSample: 0, DurationSamples: 4, Gain: 1},
	}
	e.ProcessPlan(ep)

	assert.EqualValues(t, 0, e.DroppedEventCount.Load(), "AudioStart for a loaded sample must not be dropped")
	assert.Greater(t, e.Render().Channel(0)[0], float32(0), "loaded sample must actually render through the AudioPlayer node")
}

func TestReportErrorSendsErrorResult(t *testing.T) {
	_, engineHandle, results, _ := buildHandles(t)

	engineHandle.ReportError(errors.New("boom"))

	select {
	case r := <-results:
		assert.Equal(t, ResultError, r.Kind)
		assert.EqualError(t, r.Err, "boom")
	default:
		t.Fatal("expected an error result event")
	}
}
