// Package engine owns the audio-thread runtime state — the compiled
// graphdsp.Graph and its voice.Allocator — and applies one ExecutionPlan
// per block exactly as scheduled (§4.6).
package engine

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/plan"
	"github.com/cjbrigato/go-vtm/voice"
)

// Engine renders audio one block at a time from a published
// plan.ExecutionPlan, applying events at each slice boundary and draining
// the graph's per-voice deactivation votes after processing (§4.6).
//
// All counters are atomic so a non-realtime thread (host telemetry,
// tests) can read them without synchronizing with the audio thread.
type Engine struct {
	graph *graphdsp.Graph
	alloc *voice.Allocator

	DroppedEventCount atomic.Uint64
	UnknownAudioCount atomic.Uint64
	GraphCycleCount   atomic.Uint64

	log zerolog.Logger
}

// NewEngine wraps an already-compiled graph and a voice pool sized to
// match it.
func NewEngine(g *graphdsp.Graph, maxVoices int, log zerolog.Logger) *Engine {
	e := &Engine{
		graph: g,
		alloc: voice.NewAllocator(maxVoices),
		log:   log,
	}
	if g.HasCycle() {
		e.GraphCycleCount.Add(1)
		log.Warn().Msg("engine received a graph with an unresolved cycle")
	}
	return e
}

// SwapGraph installs a freshly compiled graph, e.g. after an editor-thread
// recompile, discarding any audio-thread voice state tied to the old one.
func (e *Engine) SwapGraph(g *graphdsp.Graph) {
	e.graph = g
	e.alloc.Reset()
	if g.HasCycle() {
		e.GraphCycleCount.Add(1)
	}
}

// Reset clears every node's DSP state and deactivates all voices, used on
// Stop/Seek (§4.10).
func (e *Engine) Reset() {
	e.graph.Reset()
	e.alloc.Reset()
}

func (e *Engine) applyEvent(ev plan.Event) {
	switch ev.Kind {
	case plan.NoteOn, plan.NoteOnTarget:
		e.alloc.NoteOn(ev.Note, ev.Velocity)
	case plan.NoteOff, plan.NoteOffTarget:
		e.alloc.NoteOff(ev.Note)
	case plan.ParamChange:
		if !e.graph.SetParamByID(ev.NodeID, ev.ParamID, ev.Value) {
			e.DroppedEventCount.Add(1)
		}
	case plan.AudioStart:
		if ev.AudioID == ids.NoAudio {
			e.UnknownAudioCount.Add(1)
			return
		}
		if !e.graph.StartAudioByID(ev.NodeID, ev.AudioID, ev.StartSample, ev.DurationSamples, ev.Gain) {
			e.DroppedEventCount.Add(1)
		}
	case plan.AudioStop:
		if !e.graph.StopAudioByID(ev.NodeID, ev.AudioID) {
			e.DroppedEventCount.Add(1)
		}
	default:
		e.DroppedEventCount.Add(1)
	}
}

// ProcessPlan renders every slice of ep in order: for each slice, apply
// its events, run the graph over the slice's frames, then — once the
// whole block is done — clear voice trigger/release pulses and drain the
// per-voice deactivation votes the graph collected (§4.6's exact
// ordering: events before processing, pulse-clear and deactivation after
// the full block).
func (e *Engine) ProcessPlan(ep *plan.ExecutionPlan) {
	for _, slice := range ep.Slices {
		for _, ev := range slice.Events {
			e.applyEvent(ev)
		}
		samplePos := ep.BlockStartSample + uint64(slice.FrameOffset)
		e.graph.Process(slice.FrameCount, samplePos, ep.BPM, e.alloc)
	}

	e.alloc.ClearTriggers()

	for _, id := range e.graph.VoicesToDeactivate() {
		e.alloc.Deactivate(id)
	}
}

// SetParam applies an immediate, RT-safe parameter change outside the
// plan's event stream (§4.7's SetParam command, as opposed to a scheduled
// plan.ParamChange event). Reports false if nodeID names no node.
func (e *Engine) SetParam(nodeID ids.NodeID, paramID ids.ParamID, value float64) bool {
	return e.graph.SetParamByID(nodeID, paramID, value)
}

// LoadAudio installs a decoded audio source into the AudioPlayer capability
// of nodeID, making it playable via a later AudioStart event or command.
// Reports false if nodeID names no AudioPlayer-capable node.
func (e *Engine) LoadAudio(nodeID ids.NodeID, src graphdsp.AudioSource) bool {
	return e.graph.LoadAudioByID(nodeID, src)
}

// UnloadAudio releases nodeID's reference to an audio pool entry.
func (e *Engine) UnloadAudio(nodeID ids.NodeID, audioID ids.AudioID) bool {
	return e.graph.UnloadAudioByID(nodeID, audioID)
}

// NoteOn applies an immediate note-on outside the plan's event stream
// (§4.7's NoteOn command, e.g. live MIDI input).
func (e *Engine) NoteOn(note int, velocity float64) {
	e.alloc.NoteOn(note, velocity)
}

// NoteOff applies an immediate note-off outside the plan's event stream.
func (e *Engine) NoteOff(note int) {
	e.alloc.NoteOff(note)
}

// Render returns the graph's output buffer for the last processed block.
func (e *Engine) Render() graphdsp.Buffer {
	return e.graph.OutputBuffer()
}

// ActiveVoiceCount reports how many voices are currently sounding, for
// host telemetry (e.g. a UI voice meter).
func (e *Engine) ActiveVoiceCount() int {
	return e.alloc.ActiveCount()
}
