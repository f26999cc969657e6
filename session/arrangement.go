package session

import "github.com/cjbrigato/go-vtm/ids"

// Track is one arrangement track: mixer state, a routing target node, and
// a clip-slot row indexed by scene position (a session-view cell is empty
// when the slot holds ids.NoClip), grounded on original_source's TrackDef.
type Track struct {
	ID     ids.TrackID
	Name   string
	Volume float64
	Pan    float64
	Mute   bool
	Solo   bool
	Armed  bool
	Target ids.NodeID // instrument node this track's notes/audio drive

	ClipSlots []ids.ClipID // one entry per scene, ids.NoClip if empty
}

// Scene is one row of the session view's clip launcher.
type Scene struct {
	ID   ids.SceneID
	Name string
}

// Placement is one clip instance on a track's arrangement timeline.
type Placement struct {
	ClipID     ids.ClipID
	StartBeat  float64
	EndBeat    *float64 // nil means "play full clip length from StartBeat"
	ClipOffset float64
}

// Arrangement is the full session-view + timeline-view state: the audio
// pool, every clip definition, ordered tracks and scenes, per-track
// timeline placements, which clip (if any) is playing per track, and the
// active scene (§3).
type Arrangement struct {
	AudioPool *AudioPool

	clips  map[ids.ClipID]*ClipDef
	nextID ids.ClipID

	Tracks []*Track
	Scenes []*Scene

	placements map[ids.TrackID][]Placement

	// PlayingClips maps a track to the clip currently launched from its
	// session-view slot, if any.
	PlayingClips map[ids.TrackID]ids.ClipID
	ActiveScene  ids.SceneID
}

// NewArrangement returns an empty arrangement with its own audio pool.
func NewArrangement() *Arrangement {
	return &Arrangement{
		AudioPool:    NewAudioPool(),
		clips:        make(map[ids.ClipID]*ClipDef),
		placements:   make(map[ids.TrackID][]Placement),
		PlayingClips: make(map[ids.TrackID]ids.ClipID),
	}
}

// CreateClip allocates a fresh ClipId and inserts a new ClipDef.
func (a *Arrangement) CreateClip(name string, length float64) ids.ClipID {
	id := a.nextID
	a.nextID++
	a.clips[id] = NewClipDef(id, name, length)
	return id
}

// CreateClipFromAudio builds a clip containing a single audio region that
// plays the whole pool entry, sized in beats at the given tempo —
// original_source's Arrangement::create_clip_from_audio.
func (a *Arrangement) CreateClipFromAudio(audioID ids.AudioID, bpm float64) (ids.ClipID, bool) {
	entry, ok := a.AudioPool.Get(audioID)
	if !ok {
		return 0, false
	}
	length := entry.DurationBeats(bpm)
	id := a.CreateClip(entry.Name, length)
	clip := a.clips[id]
	clip.AddAudioRegion(AudioRegionEvent{Start: 0, Duration: length, AudioID: audioID, Gain: 1.0})
	return id, true
}

// DeleteClip removes a clip definition and every placement/slot/playing
// reference to it.
func (a *Arrangement) DeleteClip(id ids.ClipID) {
	delete(a.clips, id)
	for _, t := range a.Tracks {
		for i, c := range t.ClipSlots {
			if c == id {
				t.ClipSlots[i] = ids.NoClip
			}
		}
	}
	for trackID, list := range a.placements {
		kept := list[:0]
		for _, p := range list {
			if p.ClipID != id {
				kept = append(kept, p)
			}
		}
		a.placements[trackID] = kept
	}
	for trackID, clipID := range a.PlayingClips {
		if clipID == id {
			delete(a.PlayingClips, trackID)
		}
	}
}

// Clip returns a clip definition by id.
func (a *Arrangement) Clip(id ids.ClipID) (*ClipDef, bool) {
	c, ok := a.clips[id]
	return c, ok
}

// AddNote adds a note event to an existing clip.
func (a *Arrangement) AddNote(clipID ids.ClipID, note NoteEvent) {
	if c, ok := a.clips[clipID]; ok {
		c.AddNote(note)
	}
}

// AddAudioRegion adds an audio region event to an existing clip.
func (a *Arrangement) AddAudioRegion(clipID ids.ClipID, region AudioRegionEvent) {
	if c, ok := a.clips[clipID]; ok {
		c.AddAudioRegion(region)
	}
}

// CreateTrack appends a new track, extending its clip-slot row to match
// the current scene count.
func (a *Arrangement) CreateTrack(id ids.TrackID, name string) *Track {
	t := &Track{ID: id, Name: name, Volume: 1.0, Target: ids.NoNode}
	t.ClipSlots = make([]ids.ClipID, len(a.Scenes))
	for i := range t.ClipSlots {
		t.ClipSlots[i] = ids.NoClip
	}
	a.Tracks = append(a.Tracks, t)
	return t
}

// DeleteTrack removes a track and its placements/playing-clip state.
func (a *Arrangement) DeleteTrack(id ids.TrackID) {
	for i, t := range a.Tracks {
		if t.ID == id {
			a.Tracks = append(a.Tracks[:i], a.Tracks[i+1:]...)
			break
		}
	}
	delete(a.placements, id)
	delete(a.PlayingClips, id)
}

func (a *Arrangement) track(id ids.TrackID) *Track {
	for _, t := range a.Tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (a *Arrangement) SetTrackVolume(id ids.TrackID, v float64) {
	if t := a.track(id); t != nil {
		t.Volume = v
	}
}

func (a *Arrangement) SetTrackPan(id ids.TrackID, v float64) {
	if t := a.track(id); t != nil {
		t.Pan = v
	}
}

func (a *Arrangement) SetTrackMute(id ids.TrackID, mute bool) {
	if t := a.track(id); t != nil {
		t.Mute = mute
	}
}

func (a *Arrangement) SetTrackSolo(id ids.TrackID, solo bool) {
	if t := a.track(id); t != nil {
		t.Solo = solo
	}
}

func (a *Arrangement) SetTrackArmed(id ids.TrackID, armed bool) {
	if t := a.track(id); t != nil {
		t.Armed = armed
	}
}

func (a *Arrangement) SetTrackTarget(id ids.TrackID, target ids.NodeID) {
	if t := a.track(id); t != nil {
		t.Target = target
	}
}

// CreateScene appends a new scene and extends every track's clip-slot row
// by one empty slot.
func (a *Arrangement) CreateScene(id ids.SceneID, name string) *Scene {
	s := &Scene{ID: id, Name: name}
	a.Scenes = append(a.Scenes, s)
	for _, t := range a.Tracks {
		t.ClipSlots = append(t.ClipSlots, ids.NoClip)
	}
	return s
}

// DeleteScene removes a scene and the corresponding slot from every track.
func (a *Arrangement) DeleteScene(id ids.SceneID) {
	idx := -1
	for i, s := range a.Scenes {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	a.Scenes = append(a.Scenes[:idx], a.Scenes[idx+1:]...)
	for _, t := range a.Tracks {
		if idx < len(t.ClipSlots) {
			t.ClipSlots = append(t.ClipSlots[:idx], t.ClipSlots[idx+1:]...)
		}
	}
}

func (a *Arrangement) scenePosition(id ids.SceneID) int {
	for i, s := range a.Scenes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// SetClipSlot places clipID in track's slot at scene's position.
func (a *Arrangement) SetClipSlot(trackID ids.TrackID, sceneID ids.SceneID, clipID ids.ClipID) {
	t := a.track(trackID)
	pos := a.scenePosition(sceneID)
	if t == nil || pos < 0 || pos >= len(t.ClipSlots) {
		return
	}
	t.ClipSlots[pos] = clipID
}

// GetClipSlot returns the clip id at track/scene, and whether the slot
// exists and is occupied.
func (a *Arrangement) GetClipSlot(trackID ids.TrackID, sceneID ids.SceneID) (ids.ClipID, bool) {
	t := a.track(trackID)
	pos := a.scenePosition(sceneID)
	if t == nil || pos < 0 || pos >= len(t.ClipSlots) {
		return ids.NoClip, false
	}
	clip := t.ClipSlots[pos]
	return clip, clip != ids.NoClip
}

// ScheduleClip adds a timeline placement of clipID on track at startBeat.
func (a *Arrangement) ScheduleClip(trackID ids.TrackID, clipID ids.ClipID, startBeat float64, endBeat *float64, clipOffset float64) {
	a.placements[trackID] = append(a.placements[trackID], Placement{
		ClipID: clipID, StartBeat: startBeat, EndBeat: endBeat, ClipOffset: clipOffset,
	})
}

// RemoveClipPlacement removes the first placement of clipID on track that
// starts at startBeat.
func (a *Arrangement) RemoveClipPlacement(trackID ids.TrackID, clipID ids.ClipID, startBeat float64) {
	list := a.placements[trackID]
	for i, p := range list {
		if p.ClipID == clipID && p.StartBeat == startBeat {
			a.placements[trackID] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// PlacementsInRange returns every placement on track whose clip sounds
// anywhere within [startBeat, endBeat).
func (a *Arrangement) PlacementsInRange(trackID ids.TrackID, startBeat, endBeat float64) []Placement {
	var out []Placement
	for _, p := range a.placements[trackID] {
		end := p.StartBeat
		if p.EndBeat != nil {
			end = *p.EndBeat
		} else if c, ok := a.clips[p.ClipID]; ok {
			end = p.StartBeat + c.Length
		}
		if p.StartBeat < endBeat && end > startBeat {
			out = append(out, p)
		}
	}
	return out
}

// LaunchClip marks clipID as playing on track (session-view launch).
func (a *Arrangement) LaunchClip(trackID ids.TrackID, clipID ids.ClipID) {
	a.PlayingClips[trackID] = clipID
}

// StopClip stops whatever clip is playing on track.
func (a *Arrangement) StopClip(trackID ids.TrackID) {
	delete(a.PlayingClips, trackID)
}

// LaunchScene launches every track's clip slot at scene's position and
// marks it the active scene.
func (a *Arrangement) LaunchScene(sceneID ids.SceneID) {
	pos := a.scenePosition(sceneID)
	if pos < 0 {
		return
	}
	for _, t := range a.Tracks {
		if pos < len(t.ClipSlots) && t.ClipSlots[pos] != ids.NoClip {
			a.PlayingClips[t.ID] = t.ClipSlots[pos]
		}
	}
	a.ActiveScene = sceneID
}

// StopAll stops every currently playing clip.
func (a *Arrangement) StopAll() {
	for k := range a.PlayingClips {
		delete(a.PlayingClips, k)
	}
}

// HasSolo reports whether any track is soloed.
func (a *Arrangement) HasSolo() bool {
	for _, t := range a.Tracks {
		if t.Solo {
			return true
		}
	}
	return false
}

// IsTrackAudible reports whether track should be heard: not muted, and —
// if any track is soloed — itself soloed.
func (a *Arrangement) IsTrackAudible(trackID ids.TrackID) bool {
	t := a.track(trackID)
	if t == nil || t.Mute {
		return false
	}
	if a.HasSolo() {
		return t.Solo
	}
	return true
}
