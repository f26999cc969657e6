package bridge

import (
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/session"
)

// SessionHandle is the editor-side handle: it owns the Session, applies
// every mutating operation to it optimistically for immediate UI
// feedback, then enqueues the equivalent Command for the audio thread
// (§4.10 step 1-2).
type SessionHandle struct {
	Session  *session.Session
	commands chan<- Command
	results  <-chan ResultEvent
}

// NewSessionHandle wraps session around a pair of channels already
// connected to an EngineHandle.
func NewSessionHandle(sess *session.Session, commands chan<- Command, results <-chan ResultEvent) *SessionHandle {
	return &SessionHandle{Session: sess, commands: commands, results: results}
}

func (h *SessionHandle) send(cmd Command) { h.commands <- cmd }

// PollResults drains every currently available result without blocking,
// for the editor to consume at its convenience (§4.10).
func (h *SessionHandle) PollResults() []ResultEvent {
	var out []ResultEvent
	for {
		select {
		case r := <-h.results:
			out = append(out, r)
		default:
			return out
		}
	}
}

// AddNode allocates a node in the local GraphDef and enqueues the
// equivalent (non-RT-safe) command.
func (h *SessionHandle) AddNode(typeID ids.NodeTypeID, x, y float64) ids.NodeID {
	id := h.Session.Graph.AddNode(typeID, x, y)
	h.send(Command{Kind: CmdAddNode, NodeID: id, TypeID: typeID, X: x, Y: y})
	return id
}

func (h *SessionHandle) RemoveNode(id ids.NodeID) {
	h.Session.Graph.RemoveNode(id)
	h.send(Command{Kind: CmdRemoveNode, NodeID: id})
}

func (h *SessionHandle) Connect(src ids.NodeID, srcPort int, dst ids.NodeID, dstPort int) {
	h.Session.Graph.Connect(src, srcPort, dst, dstPort)
	h.send(Command{Kind: CmdConnect, SrcNode: src, SrcPort: srcPort, DstNode: dst, DstPort: dstPort})
}

func (h *SessionHandle) Disconnect(src ids.NodeID, srcPort int, dst ids.NodeID, dstPort int) {
	h.Session.Graph.Disconnect(src, srcPort, dst, dstPort)
	h.send(Command{Kind: CmdDisconnect, SrcNode: src, SrcPort: srcPort, DstNode: dst, DstPort: dstPort})
}

func (h *SessionHandle) SetOutputNode(id ids.NodeID) {
	h.Session.Graph.SetOutputNode(id)
	h.send(Command{Kind: CmdSetOutputNode, NodeID: id})
}

func (h *SessionHandle) ClearGraph() {
	h.Session.Graph.Clear()
	h.send(Command{Kind: CmdClearGraph})
}

// SetParam is RT-safe: the engine resolves NodeID through its own index
// map and applies it within the block, no recompile needed.
func (h *SessionHandle) SetParam(id ids.NodeID, paramID ids.ParamID, value float64) {
	h.Session.Graph.SetParam(id, paramID, value)
	h.send(Command{Kind: CmdSetParam, NodeID: id, ParamID: paramID, Value: value})
}

// MoveNode updates the node's UI position locally only; the audio thread
// ignores CmdMoveNode entirely (§4.7).
func (h *SessionHandle) MoveNode(id ids.NodeID, x, y float64) {
	if n, ok := h.Session.Graph.Nodes[id]; ok {
		n.X, n.Y = x, y
	}
	h.send(Command{Kind: CmdMoveNode, NodeID: id, X: x, Y: y})
}

func (h *SessionHandle) Play() {
	h.Session.Transport.Playing = true
	h.send(Command{Kind: CmdPlay})
}

func (h *SessionHandle) Stop() {
	h.Session.Transport.Playing = false
	h.send(Command{Kind: CmdStop})
}

func (h *SessionHandle) SetTempo(bpm float64) {
	h.Session.Transport.BPM = bpm
	h.send(Command{Kind: CmdSetTempo, BPM: bpm})
}

func (h *SessionHandle) Seek(beat float64) {
	h.Session.Transport.Seek(beat)
	h.send(Command{Kind: CmdSeek, Beat: beat})
}

func (h *SessionHandle) NoteOn(note int, velocity float64) {
	h.send(Command{Kind: CmdNoteOn, Note: note, Velocity: velocity})
}

func (h *SessionHandle) NoteOff(note int) {
	h.send(Command{Kind: CmdNoteOff, Note: note})
}

func (h *SessionHandle) SetTrackVolume(id ids.TrackID, v float64) {
	h.Session.Arrangement.SetTrackVolume(id, v)
	h.send(Command{Kind: CmdTrackVolume, TrackID: id, FloatValue: v})
}

func (h *SessionHandle) SetTrackPan(id ids.TrackID, v float64) {
	h.Session.Arrangement.SetTrackPan(id, v)
	h.send(Command{Kind: CmdTrackPan, TrackID: id, FloatValue: v})
}

func (h *SessionHandle) SetTrackMute(id ids.TrackID, mute bool) {
	h.Session.Arrangement.SetTrackMute(id, mute)
	h.send(Command{Kind: CmdTrackMute, TrackID: id, BoolValue: mute})
}

func (h *SessionHandle) SetTrackSolo(id ids.TrackID, solo bool) {
	h.Session.Arrangement.SetTrackSolo(id, solo)
	h.send(Command{Kind: CmdTrackSolo, TrackID: id, BoolValue: solo})
}

func (h *SessionHandle) SetTrackArmed(id ids.TrackID, armed bool) {
	h.Session.Arrangement.SetTrackArmed(id, armed)
	h.send(Command{Kind: CmdTrackArmed, TrackID: id, BoolValue: armed})
}

func (h *SessionHandle) SetTrackTarget(id ids.TrackID, target ids.NodeID) {
	h.Session.Arrangement.SetTrackTarget(id, target)
	h.send(Command{Kind: CmdTrackTarget, TrackID: id, NodeID: target})
}

func (h *SessionHandle) SetClipSlot(trackID ids.TrackID, sceneID ids.SceneID, clipID ids.ClipID) {
	h.Session.Arrangement.SetClipSlot(trackID, sceneID, clipID)
	h.send(Command{Kind: CmdClipSlot, TrackID: trackID, SceneID: sceneID, ClipID: clipID})
}

func (h *SessionHandle) LaunchClip(trackID ids.TrackID, clipID ids.ClipID) {
	h.Session.Arrangement.LaunchClip(trackID, clipID)
	h.send(Command{Kind: CmdLaunchClip, TrackID: trackID, ClipID: clipID})
}

func (h *SessionHandle) StopClip(trackID ids.TrackID) {
	h.Session.Arrangement.StopClip(trackID)
	h.send(Command{Kind: CmdStopClip, TrackID: trackID})
}

func (h *SessionHandle) LaunchScene(sceneID ids.SceneID) {
	h.Session.Arrangement.LaunchScene(sceneID)
	h.send(Command{Kind: CmdLaunchScene, SceneID: sceneID})
}

func (h *SessionHandle) StopAllClips() {
	h.Session.Arrangement.StopAll()
	h.send(Command{Kind: CmdStopAllClips})
}

func (h *SessionHandle) ScheduleClip(trackID ids.TrackID, clipID ids.ClipID, startBeat float64, endBeat *float64, clipOffset float64) {
	h.Session.Arrangement.ScheduleClip(trackID, clipID, startBeat, endBeat, clipOffset)
	h.send(Command{Kind: CmdScheduleClip, TrackID: trackID, ClipID: clipID, StartBeat: startBeat, EndBeat: endBeat, ClipOffset: clipOffset})
}

func (h *SessionHandle) RemoveClipPlacement(trackID ids.TrackID, clipID ids.ClipID, startBeat float64) {
	h.Session.Arrangement.RemoveClipPlacement(trackID, clipID, startBeat)
	h.send(Command{Kind: CmdRemoveClipPlacement, TrackID: trackID, ClipID: clipID, StartBeat: startBeat})
}

// AddAudio inserts audio into the arrangement's pool and enqueues a
// CmdLoadAudio so the compiled Graph's AudioPlayer node at nodeID — the
// track Target that will receive this entry's AudioStart events — actually
// holds the decoded samples before any clip can trigger them (§6).
func (h *SessionHandle) AddAudio(nodeID ids.NodeID, name string, sampleRate float64, channels int, samples []float32) ids.AudioID {
	id := h.Session.Arrangement.AudioPool.Add(name, sampleRate, channels, samples)
	h.send(Command{
		Kind: CmdLoadAudio, NodeID: nodeID, AudioID: id,
		SampleRate: sampleRate, Channels: channels, Samples: samples,
	})
	return id
}

// RemoveAudio deletes an entry from the arrangement's pool and enqueues a
// CmdUnloadAudio so nodeID's AudioPlayer releases its reference too.
func (h *SessionHandle) RemoveAudio(nodeID ids.NodeID, audioID ids.AudioID) {
	h.Session.Arrangement.AudioPool.Remove(audioID)
	h.send(Command{Kind: CmdUnloadAudio, NodeID: nodeID, AudioID: audioID})
}

// CreateClipFromAudio builds a one-region clip spanning audioID at the
// session's current tempo.
func (h *SessionHandle) CreateClipFromAudio(audioID ids.AudioID) (ids.ClipID, bool) {
	return h.Session.Arrangement.CreateClipFromAudio(audioID, h.Session.Transport.BPM)
}
