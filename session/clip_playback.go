package session

import (
	"math"

	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/plan"
	"github.com/cjbrigato/go-vtm/scheduler"
)

type playingClip struct {
	clipID       ids.ClipID
	trackID      ids.TrackID
	startBeat    float64
	clipPosition float64
}

type activeNoteKey struct {
	trackID    ids.TrackID
	clipID     ids.ClipID
	targetNode ids.NodeID
	note       uint8
}

type activeNoteState struct {
	key     activeNoteKey
	endBeat float64
}

// ClipPlayback converts an Arrangement's playing clips into a stream of
// beat-stamped MusicalEvents for the Scheduler (§4.9). It owns no DSP
// state of its own — only the bookkeeping needed to know which notes are
// still sounding and where each playing clip's loop cursor sits.
type ClipPlayback struct {
	playing     map[ids.TrackID]*playingClip
	activeNotes []activeNoteState
	eventBuf    []scheduler.MusicalEvent
}

// NewClipPlayback returns an empty playback tracker with pre-sized
// scratch capacity, mirroring original_source's ClipPlayback::new.
func NewClipPlayback() *ClipPlayback {
	return &ClipPlayback{
		playing:     make(map[ids.TrackID]*playingClip),
		activeNotes: make([]activeNoteState, 0, 32),
		eventBuf:    make([]scheduler.MusicalEvent, 0, 64),
	}
}

func (cp *ClipPlayback) startClip(clipID ids.ClipID, trackID ids.TrackID, currentBeat float64) {
	cp.stopTrack(trackID)
	cp.playing[trackID] = &playingClip{clipID: clipID, trackID: trackID, startBeat: currentBeat}
}

func (cp *ClipPlayback) stopTrack(trackID ids.TrackID) {
	pc, ok := cp.playing[trackID]
	if !ok {
		return
	}
	delete(cp.playing, trackID)
	kept := cp.activeNotes[:0]
	for _, n := range cp.activeNotes {
		if !(n.key.trackID == trackID && n.key.clipID == pc.clipID) {
			kept = append(kept, n)
		}
	}
	cp.activeNotes = kept
}

// StopAll clears every playing clip and active note immediately.
func (cp *ClipPlayback) StopAll() {
	cp.playing = make(map[ids.TrackID]*playingClip)
	cp.activeNotes = cp.activeNotes[:0]
}

// IsPlaying reports whether any clip is currently playing.
func (cp *ClipPlayback) IsPlaying() bool { return len(cp.playing) > 0 }

// ActiveNoteCount reports how many notes are awaiting a note-off.
func (cp *ClipPlayback) ActiveNoteCount() int { return len(cp.activeNotes) }

// SyncWithArrangement reconciles internal playing-clip state with
// Arrangement.PlayingClips: starts newly launched clips, stops removed
// ones (§4.9 step 1).
func (cp *ClipPlayback) SyncWithArrangement(a *Arrangement, currentBeat float64) {
	for trackID, clipID := range a.PlayingClips {
		pc, ok := cp.playing[trackID]
		if !ok || pc.clipID != clipID {
			cp.startClip(clipID, trackID, currentBeat)
		}
	}

	var toStop []ids.TrackID
	for trackID := range cp.playing {
		if _, ok := a.PlayingClips[trackID]; !ok {
			toStop = append(toStop, trackID)
		}
	}
	for _, trackID := range toStop {
		cp.stopTrack(trackID)
	}
}

// GenerateEvents produces every NoteOnTarget/NoteOffTarget/AudioStart
// event that falls in [startBeat, endBeat) across all playing, audible
// clips, advances each clip's loop cursor, and drains any notes whose
// end falls in the window (§4.9 steps 2-4). The returned slice is valid
// until the next call.
func (cp *ClipPlayback) GenerateEvents(a *Arrangement, startBeat, endBeat, bpm float64) []scheduler.MusicalEvent {
	cp.eventBuf = cp.eventBuf[:0]
	beatDuration := endBeat - startBeat

	for trackID, pc := range cp.playing {
		clip, ok := a.Clip(pc.clipID)
		if !ok {
			continue
		}
		track := a.track(trackID)
		if track == nil || !a.IsTrackAudible(trackID) {
			continue
		}
		if track.Target == ids.NoNode {
			continue
		}

		clipStart := pc.clipPosition
		clipEnd := pc.clipPosition + beatDuration

		if !clip.Looping && clipStart >= clip.Length {
			continue
		}

		for _, ev := range clip.Events {
			if ev.Note != nil {
				cp.emitNote(trackID, pc.clipID, track.Target, *ev.Note, clip, clipStart, clipEnd, startBeat)
			}
			if ev.Audio != nil {
				cp.emitAudio(*ev.Audio, track.Target, a.AudioPool, clip, clipStart, clipEnd, startBeat, bpm)
			}
		}

		pc.clipPosition += beatDuration
		if clip.Looping && pc.clipPosition >= clip.Length {
			pc.clipPosition = math.Mod(pc.clipPosition, clip.Length)
		}
	}

	cp.generateNoteOffs(startBeat, endBeat)

	return cp.eventBuf
}

func (cp *ClipPlayback) emitNote(trackID ids.TrackID, clipID ids.ClipID, target ids.NodeID, note NoteEvent, clip *ClipDef, clipStart, clipEnd, blockStartBeat float64) {
	noteStart := note.Start

	var shouldTrigger bool
	if clip.Looping {
		wrappedStart := math.Mod(clipStart, clip.Length)
		wrappedEnd := math.Mod(clipEnd, clip.Length)
		if wrappedStart <= wrappedEnd {
			shouldTrigger = noteStart >= wrappedStart && noteStart < wrappedEnd
		} else {
			shouldTrigger = noteStart >= wrappedStart || noteStart < wrappedEnd
		}
	} else {
		shouldTrigger = noteStart >= clipStart && noteStart < clipEnd
	}
	if !shouldTrigger {
		return
	}

	var offsetInBlock float64
	if clip.Looping {
		wrappedStart := math.Mod(clipStart, clip.Length)
		if noteStart >= wrappedStart {
			offsetInBlock = noteStart - wrappedStart
		} else {
			offsetInBlock = (clip.Length - wrappedStart) + noteStart
		}
	} else {
		offsetInBlock = noteStart - clipStart
	}

	absoluteBeat := blockStartBeat + offsetInBlock

	cp.eventBuf = append(cp.eventBuf, scheduler.MusicalEvent{
		Kind: plan.NoteOnTarget, Beat: absoluteBeat, NodeID: target,
		Note: int(note.Note), Velocity: float64(note.Velocity),
	})

	cp.activeNotes = append(cp.activeNotes, activeNoteState{
		key:     activeNoteKey{trackID: trackID, clipID: clipID, targetNode: target, note: note.Note},
		endBeat: absoluteBeat + note.Duration,
	})
}

func (cp *ClipPlayback) emitAudio(region AudioRegionEvent, target ids.NodeID, pool *AudioPool, clip *ClipDef, clipStart, clipEnd, blockStartBeat, bpm float64) {
	entry, ok := pool.Get(region.AudioID)
	if !ok {
		return
	}

	audioStart := region.Start
	var shouldTrigger bool
	if clip.Looping {
		wrappedStart := math.Mod(clipStart, clip.Length)
		wrappedEnd := math.Mod(clipEnd, clip.Length)
		if wrappedStart <= wrappedEnd {
			shouldTrigger = audioStart >= wrappedStart && audioStart < wrappedEnd
		} else {
			shouldTrigger = audioStart >= wrappedStart || audioStart < wrappedEnd
		}
	} else {
		shouldTrigger = audioStart >= clipStart && audioStart < clipEnd
	}
	if !shouldTrigger {
		return
	}

	var offsetInBlock float64
	if clip.Looping {
		wrappedStart := math.Mod(clipStart, clip.Length)
		if audioStart >= wrappedStart {
			offsetInBlock = audioStart - wrappedStart
		} else {
			offsetInBlock = (clip.Length - wrappedStart) + audioStart
		}
	} else {
		offsetInBlock = audioStart - clipStart
	}

	absoluteBeat := blockStartBeat + offsetInBlock

	beatToSeconds := 60.0 / bpm
	sourceOffsetSeconds := region.SourceOffset * beatToSeconds
	durationSeconds := region.Duration * beatToSeconds

	startSample := uint64(sourceOffsetSeconds * entry.SampleRate)
	durationSamples := uint64(durationSeconds * entry.SampleRate)

	cp.eventBuf = append(cp.eventBuf, scheduler.MusicalEvent{
		Kind: plan.AudioStart, Beat: absoluteBeat, NodeID: target,
		AudioID: region.AudioID, StartSample: startSample, DurationSamples: durationSamples, Gain: region.Gain,
	})
}

func (cp *ClipPlayback) generateNoteOffs(startBeat, endBeat float64) {
	i := 0
	for i < len(cp.activeNotes) {
		state := cp.activeNotes[i]
		if state.endBeat >= startBeat && state.endBeat < endBeat {
			cp.eventBuf = append(cp.eventBuf, scheduler.MusicalEvent{
				Kind: plan.NoteOffTarget, Beat: state.endBeat, NodeID: state.key.targetNode, Note: int(state.key.note),
			})
			last := len(cp.activeNotes) - 1
			cp.activeNotes[i] = cp.activeNotes[last]
			cp.activeNotes = cp.activeNotes[:last]
			continue
		}
		i++
	}
}

// GenerateStopEvents returns a NoteOffTarget for every currently active
// note at currentBeat and clears them, used when stopping playback.
func (cp *ClipPlayback) GenerateStopEvents(currentBeat float64) []scheduler.MusicalEvent {
	events := make([]scheduler.MusicalEvent, len(cp.activeNotes))
	for i, state := range cp.activeNotes {
		events[i] = scheduler.MusicalEvent{Kind: plan.NoteOffTarget, Beat: currentBeat, NodeID: state.key.targetNode, Note: int(state.key.note)}
	}
	cp.activeNotes = cp.activeNotes[:0]
	return events
}
