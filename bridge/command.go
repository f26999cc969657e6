// Package bridge connects the editor thread's Session to the audio
// thread's Engine across two channels and a SharedReadback atomic block,
// per §4.7/§4.10.
package bridge

import "github.com/cjbrigato/go-vtm/ids"

// CommandKind enumerates every editor->audio command. Commands that touch
// graph topology require a non-RT recompile (§4.7); everything else is
// RT-safe and applied directly on the audio thread.
type CommandKind int

const (
	CmdSetParam CommandKind = iota
	CmdPlay
	CmdStop
	CmdSetTempo
	CmdSeek
	CmdNoteOn
	CmdNoteOff
	CmdMoveNode // accepted, ignored by the audio thread — position is UI-only

	// Session-only metadata commands: no graph/voice side effect on the
	// audio thread, applied to the local Session only by SessionHandle.
	CmdTrackVolume
	CmdTrackPan
	CmdTrackMute
	CmdTrackSolo
	CmdTrackArmed
	CmdTrackTarget
	CmdClipSlot
	CmdLaunchClip
	CmdStopClip
	CmdLaunchScene
	CmdStopAllClips
	CmdScheduleClip
	CmdRemoveClipPlacement

	// CmdLoadAudio/CmdUnloadAudio install or release a decoded audio pool
	// entry on a specific node's AudioPlayer capability. RT-safe: applied
	// directly by EngineHandle, not queued for recompile, since they only
	// mutate one node's private sources map (§4.7).
	CmdLoadAudio
	CmdUnloadAudio

	// NOT RT-safe: require a recompile. process_commands reports these to
	// the caller instead of applying them directly.
	CmdAddNode
	CmdRemoveNode
	CmdConnect
	CmdDisconnect
	CmdSetOutputNode
	CmdClearGraph
	CmdLoadConnections
	CmdRecompileGraph
)

// RequiresRecompile reports whether applying this command's kind demands
// a fresh Graph compile rather than a direct, RT-safe mutation (§4.7).
func (k CommandKind) RequiresRecompile() bool {
	switch k {
	case CmdAddNode, CmdRemoveNode, CmdConnect, CmdDisconnect, CmdSetOutputNode, CmdClearGraph, CmdLoadConnections, CmdRecompileGraph:
		return true
	default:
		return false
	}
}

// Command is the single closed sum type carried editor->audio; only the
// fields relevant to Kind are populated, mirroring original_source's
// src/state/command.rs enum translated into an idiomatic Go tagged
// struct (no reflection-based dispatch on the audio thread).
type Command struct {
	Kind CommandKind

	NodeID  ids.NodeID
	ParamID ids.ParamID
	Value   float64

	TypeID ids.NodeTypeID
	X, Y   float64

	SrcNode, DstNode     ids.NodeID
	SrcPort, DstPort     int

	BPM  float64
	Beat float64

	Note     int
	Velocity float64

	TrackID ids.TrackID
	SceneID ids.SceneID
	ClipID  ids.ClipID

	BoolValue  bool
	FloatValue float64
	StartBeat  float64
	EndBeat    *float64
	ClipOffset float64

	AudioID    ids.AudioID
	SampleRate float64
	Channels   int
	Samples    []float32
}
