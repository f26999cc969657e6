package scheduler

import "math"

// Transport is the beat-domain musical clock, mirrored between Session
// (authoritative on the editor side) and the engine (§3).
type Transport struct {
	Playing        bool
	BPM            float64
	SampleRate     float64
	SamplePosition uint64
	BeatPosition   float64

	// LoopStart/LoopEnd in beats; LoopEnabled gates wrap-around. Zero
	// value (disabled) means "play through", matching a fresh transport.
	LoopEnabled bool
	LoopStart   float64
	LoopEnd     float64
}

// SamplesPerBeat converts the current tempo into a sample-domain scale.
func (t *Transport) SamplesPerBeat() float64 {
	return t.SampleRate * 60.0 / t.BPM
}

// EventSamplePosition maps a beat to the absolute sample position it falls
// on, rounding to the nearest sample.
func (t *Transport) EventSamplePosition(beat float64) uint64 {
	return uint64(math.Round(beat * t.SamplesPerBeat()))
}

// Advance moves the transport forward by frames samples and the
// corresponding fraction of a beat.
func (t *Transport) Advance(frames int) {
	t.SamplePosition += uint64(frames)
	t.BeatPosition += float64(frames) / t.SamplesPerBeat()
	if t.LoopEnabled && t.LoopEnd > t.LoopStart && t.BeatPosition >= t.LoopEnd {
		span := t.LoopEnd - t.LoopStart
		over := t.BeatPosition - t.LoopStart
		t.BeatPosition = t.LoopStart + math.Mod(over, span)
	}
}

// Seek resets the transport's cursor to beat, recomputing the sample
// position from the current tempo. Seeking also resets engine/DSP state
// per §5; that reset is the Engine's responsibility, not the transport's.
func (t *Transport) Seek(beat float64) {
	t.BeatPosition = beat
	t.SamplePosition = t.EventSamplePosition(beat)
}
