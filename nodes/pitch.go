package nodes

import "math"

// NoteToFrequency converts a MIDI note number (0-127, A4=69=440Hz) to Hz.
// Same phase-accumulator-friendly power-of-two formula the teacher's
// synth.NoteToFrequency uses, re-pinned to standard MIDI numbering since
// clip definitions carry MIDI note numbers (original_source's NoteDef).
func NoteToFrequency(note int) float64 {
	return 440.0 * math.Pow(2.0, float64(note-69)/12.0)
}
