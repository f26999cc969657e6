package nodes

import (
	"math"

	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
)

// WaveShape selects the oscillator's waveform, generalizing the teacher's
// synth.WaveType enum (square/saw/triangle/sine) to the bundled node set;
// noise is dropped from the bundled registry (§6 names only the four
// pitched shapes) but the shape constant space is left room to grow.
type WaveShape int

const (
	ShapeSine WaveShape = iota
	ShapeSaw
	ShapeSquare
	ShapeTriangle
)

// Oscillator is a per-voice phase-accumulator oscillator. Its pitch tracks
// the voice's MIDI note by default; ParamFrequency applies a Hz offset on
// top of that (detune), matching how the teacher's Oscillator.Next()
// advances phase by frequency/sampleRate every sample.
type Oscillator struct {
	shape      WaveShape
	sampleRate float64
	phase      float64
	detuneHz   float64
}

// NewOscillatorFactory returns a Factory producing oscillators of the
// given shape, for registration against a bundled NodeTypeID.
func NewOscillatorFactory(shape WaveShape) graphdsp.Factory {
	return func() graphdsp.Node { return &Oscillator{shape: shape} }
}

func (o *Oscillator) Prepare(sampleRate float64, _ int) { o.sampleRate = sampleRate }

func (o *Oscillator) Polyphony() graphdsp.Polyphony { return graphdsp.PerVoice }

func (o *Oscillator) SetParam(id ids.ParamID, value float64) {
	if id == ids.ParamFrequency {
		o.detuneHz = value
	}
}

func (o *Oscillator) Reset() { o.phase = 0 }

func (o *Oscillator) Process(ctx graphdsp.ProcessContext, _ []graphdsp.Buffer, out graphdsp.Buffer) bool {
	if !ctx.Voice.Gate && !ctx.Voice.Release {
		return true
	}

	freq := NoteToFrequency(ctx.Voice.Note) + o.detuneHz
	if freq <= 0 || o.sampleRate <= 0 {
		return true
	}
	increment := freq / o.sampleRate

	silent := true
	for ch := 0; ch < out.Channels(); ch++ {
		row := out.Channel(ch)
		phase := o.phase
		for i := 0; i < ctx.Frames; i++ {
			var s float64
			switch o.shape {
			case ShapeSine:
				s = math.Sin(2.0 * math.Pi * phase)
			case ShapeSaw:
				s = 2.0*phase - 1.0
			case ShapeSquare:
				if phase < 0.5 {
					s = 1.0
				} else {
					s = -1.0
				}
			case ShapeTriangle:
				if phase < 0.5 {
					s = 4.0*phase - 1.0
				} else {
					s = 3.0 - 4.0*phase
				}
			}
			if s != 0 {
				silent = false
			}
			row[i] = float32(s)
			phase += increment
			if phase >= 1.0 {
				phase -= math.Floor(phase)
			}
		}
		if ch == out.Channels()-1 {
			o.phase = phase
		}
	}
	return silent
}
