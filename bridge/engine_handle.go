package bridge

import (
	"fmt"

	"github.com/cjbrigato/go-vtm/engine"
	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/plan"
)

// EngineHandle is the audio-side handle: it wraps the Engine, drains
// commands at the start of each block, consumes published plans, and
// publishes telemetry into a SharedReadback (§4.10).
type EngineHandle struct {
	Engine   *engine.Engine
	commands <-chan Command
	results  chan<- ResultEvent
	Readback *SharedReadback

	handoff *plan.Handoff
}

// NewEngineHandle wraps e, consuming commands and a plan.Handoff produced
// by the editor side, reporting results and readback back to it.
func NewEngineHandle(e *engine.Engine, commands <-chan Command, results chan<- ResultEvent, handoff *plan.Handoff) *EngineHandle {
	return &EngineHandle{
		Engine:   e,
		commands: commands,
		results:  results,
		Readback: &SharedReadback{},
		handoff:  handoff,
	}
}

func (h *EngineHandle) sendResult(r ResultEvent) {
	select {
	case h.results <- r:
	default:
		// Result channel full: the editor isn't draining fast enough.
		// Dropping here is preferable to blocking the audio thread (§5).
	}
}

// ProcessCommands drains every command currently queued, applying RT-safe
// ones immediately and reporting whether any NOT-RT-safe command was seen
// — the caller must then compile a fresh Graph off the audio thread and
// call SwapGraph (§4.7). A closed or empty channel is treated as "no
// commands this block", never fatal (§7).
func (h *EngineHandle) ProcessCommands() bool {
	needsRecompile := false
	for {
		select {
		case cmd, ok := <-h.commands:
			if !ok {
				return needsRecompile
			}
			if cmd.Kind.RequiresRecompile() {
				needsRecompile = true
				continue
			}
			h.applyCommand(cmd)
		default:
			return needsRecompile
		}
	}
}

func (h *EngineHandle) applyCommand(cmd Command) {
	switch cmd.Kind {
	case CmdSetParam:
		h.Engine.SetParam(cmd.NodeID, cmd.ParamID, cmd.Value)
	case CmdPlay:
		h.Readback.SetRunning(true)
	case CmdStop:
		h.Engine.Reset()
		h.Readback.SetRunning(false)
	case CmdSetTempo:
		// Tempo is authoritative on the editor's Scheduler/Transport; the
		// audio thread has no independent notion of BPM outside a plan.
	case CmdSeek:
		h.Engine.Reset()
	case CmdNoteOn:
		h.Engine.NoteOn(cmd.Note, cmd.Velocity)
	case CmdNoteOff:
		h.Engine.NoteOff(cmd.Note)
	case CmdMoveNode:
		// UI-only; no audio-thread effect (§4.7).
	case CmdLoadAudio:
		h.LoadAudio(cmd.NodeID, graphdsp.AudioSource{
			ID: cmd.AudioID, SampleRate: cmd.SampleRate, Channels: cmd.Channels, Samples: cmd.Samples,
		})
	case CmdUnloadAudio:
		h.UnloadAudio(cmd.NodeID, cmd.AudioID)
	default:
		// Session-only metadata commands (track/clip/scene) have no
		// audio-thread effect: clip playback routing is resolved entirely
		// on the editor side before events ever reach a plan.
	}
}

// ProcessPlan reads the latest published plan from the handoff and renders
// it through the Engine, then publishes updated transport/voice telemetry.
func (h *EngineHandle) ProcessPlan() {
	ep := h.handoff.Read()
	h.Engine.ProcessPlan(ep)

	blockEnd := ep.BlockStartSample + uint64(ep.BlockFrames)
	bpm := ep.BPM
	if bpm <= 0 {
		bpm = 120
	}
	samplesPerBeat := ep.SampleRate * 60.0 / bpm
	beatPos := float64(blockEnd) / samplesPerBeat
	h.Readback.UpdateTransport(blockEnd, beatPos)
	h.Readback.UpdateActiveVoices(h.Engine.ActiveVoiceCount())
}

// Render returns the Engine's rendered output buffer for the last
// processed block.
func (h *EngineHandle) Render() graphdsp.Buffer {
	return h.Engine.Render()
}

// LoadAudio installs a decoded audio source into nodeID's AudioPlayer
// capability, reporting a ResultError if nodeID names no such node.
func (h *EngineHandle) LoadAudio(nodeID ids.NodeID, src graphdsp.AudioSource) {
	if !h.Engine.LoadAudio(nodeID, src) {
		h.ReportError(fmt.Errorf("load audio: node %d has no AudioPlayer capability", nodeID))
	}
}

// UnloadAudio releases nodeID's reference to an audio pool entry.
func (h *EngineHandle) UnloadAudio(nodeID ids.NodeID, audioID ids.AudioID) {
	if !h.Engine.UnloadAudio(nodeID, audioID) {
		h.ReportError(fmt.Errorf("unload audio: node %d has no AudioPlayer capability", nodeID))
	}
}

// SwapGraph installs a freshly compiled graph and always reports a
// ResultOk event; compile failures are reported separately through
// ReportError.
func (h *EngineHandle) SwapGraph(g *graphdsp.Graph) {
	h.Engine.SwapGraph(g)
	h.sendResult(ResultEvent{Kind: ResultOk})
}

// ReportError sends a compile (or other) error back to the editor.
func (h *EngineHandle) ReportError(err error) {
	h.sendResult(ResultEvent{Kind: ResultError, Err: err})
}

// Reset clears all DSP state and voices immediately.
func (h *EngineHandle) Reset() {
	h.Engine.Reset()
}
