package session

import "github.com/cjbrigato/go-vtm/ids"

// NoteEvent is a MIDI note event within a clip, positioned in beats
// relative to the clip start. Grounded on original_source's NoteDef.
type NoteEvent struct {
	Start    float64
	Duration float64
	Note     uint8
	Velocity float32
}

// End returns the note's end position in beats.
func (n NoteEvent) End() float64 { return n.Start + n.Duration }

// AudioRegionEvent references audio in the pool and how it should be
// played within a clip. Grounded on original_source's AudioRegionDef.
type AudioRegionEvent struct {
	Start        float64
	Duration     float64
	AudioID      ids.AudioID
	SourceOffset float64
	Gain         float32
	PitchShift   float32
	TimeStretch  bool
}

// End returns the region's end position in beats.
func (a AudioRegionEvent) End() float64 { return a.Start + a.Duration }

// ClipEvent is a unified clip occurrence: either a note or an audio
// region, never both. Exactly one of Note/Audio is non-nil.
type ClipEvent struct {
	Note  *NoteEvent
	Audio *AudioRegionEvent
}

func (e ClipEvent) start() float64 {
	if e.Note != nil {
		return e.Note.Start
	}
	return e.Audio.Start
}

func (e ClipEvent) end() float64 {
	if e.Note != nil {
		return e.Note.End()
	}
	return e.Audio.End()
}

func (e ClipEvent) overlaps(start, end float64) bool {
	return e.start() < end && e.end() > start
}

// ClipDef is a container holding a sorted stream of events: a note event
// ends before or at clip.Length; an audio event ends at or before
// clip.Length (§3).
type ClipDef struct {
	ID      ids.ClipID
	Name    string
	Length  float64
	Events  []ClipEvent
	Color   uint32
	Looping bool
}

// NewClipDef returns a clip of the given length with no events, orange by
// default and looping, matching the original's ClipDef::new.
func NewClipDef(id ids.ClipID, name string, length float64) *ClipDef {
	return &ClipDef{ID: id, Name: name, Length: length, Color: 0xFF5500FF, Looping: true}
}

func (c *ClipDef) sortEvents() {
	for i := 1; i < len(c.Events); i++ {
		for j := i; j > 0 && c.Events[j-1].start() > c.Events[j].start(); j-- {
			c.Events[j-1], c.Events[j] = c.Events[j], c.Events[j-1]
		}
	}
}

// AddNote appends a note event, keeping Events sorted by start beat.
func (c *ClipDef) AddNote(n NoteEvent) {
	c.Events = append(c.Events, ClipEvent{Note: &n})
	c.sortEvents()
}

// AddAudioRegion appends an audio region event, keeping Events sorted.
func (c *ClipDef) AddAudioRegion(a AudioRegionEvent) {
	c.Events = append(c.Events, ClipEvent{Audio: &a})
	c.sortEvents()
}

// RemoveEvent removes the event at index, if any.
func (c *ClipDef) RemoveEvent(index int) {
	if index < 0 || index >= len(c.Events) {
		return
	}
	c.Events = append(c.Events[:index], c.Events[index+1:]...)
}

// EventsInRange returns every event overlapping [start, end).
func (c *ClipDef) EventsInRange(start, end float64) []ClipEvent {
	var out []ClipEvent
	for _, e := range c.Events {
		if e.overlaps(start, end) {
			out = append(out, e)
		}
	}
	return out
}

// HasAudio reports whether the clip contains any audio region events.
func (c *ClipDef) HasAudio() bool {
	for _, e := range c.Events {
		if e.Audio != nil {
			return true
		}
	}
	return false
}

// HasNotes reports whether the clip contains any note events.
func (c *ClipDef) HasNotes() bool {
	for _, e := range c.Events {
		if e.Note != nil {
			return true
		}
	}
	return false
}

// AudioPoolEntry is shared-owned audio sample data: multiple clips may
// reference the same entry; its lifetime is the longest referent (§3).
// Samples is a shared slice (Go slices already share backing storage
// across copies), the idiomatic substitute for the original's Arc<Vec<f32>>.
type AudioPoolEntry struct {
	ID         ids.AudioID
	Name       string
	SampleRate float64
	Channels   int
	Frames     int
	Samples    []float32 // interleaved, shared across clips that reference it
}

// DurationSeconds returns the entry's length in seconds.
func (e *AudioPoolEntry) DurationSeconds() float64 {
	return float64(e.Frames) / e.SampleRate
}

// DurationBeats returns the entry's length in beats at the given tempo.
func (e *AudioPoolEntry) DurationBeats(bpm float64) float64 {
	return e.DurationSeconds() * bpm / 60.0
}

// AudioPool stores every recorded/imported audio entry referenced by the
// arrangement.
type AudioPool struct {
	entries map[ids.AudioID]*AudioPoolEntry
	nextID  ids.AudioID
}

// NewAudioPool returns an empty pool.
func NewAudioPool() *AudioPool {
	return &AudioPool{entries: make(map[ids.AudioID]*AudioPoolEntry)}
}

// Add inserts audio into the pool, returning its new id.
func (p *AudioPool) Add(name string, sampleRate float64, channels int, samples []float32) ids.AudioID {
	id := p.nextID
	p.nextID++
	frames := 0
	if channels > 0 {
		frames = len(samples) / channels
	}
	p.entries[id] = &AudioPoolEntry{ID: id, Name: name, SampleRate: sampleRate, Channels: channels, Frames: frames, Samples: samples}
	return id
}

// Get returns an entry by id, or false if absent.
func (p *AudioPool) Get(id ids.AudioID) (*AudioPoolEntry, bool) {
	e, ok := p.entries[id]
	return e, ok
}

// Remove deletes an entry from the pool.
func (p *AudioPool) Remove(id ids.AudioID) {
	delete(p.entries, id)
}
