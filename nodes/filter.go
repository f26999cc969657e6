package nodes

import (
	"math"

	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
)

// FilterMode selects which state-variable-filter output the node emits.
type FilterMode int

const (
	FilterLowpass FilterMode = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

// SVF is a Chamberlin state-variable filter, a standard cheap topology
// covering lowpass/highpass/bandpass/notch from one pair of state
// variables, run globally (one instance for the whole session bus).
type SVF struct {
	mode       FilterMode
	sampleRate float64
	cutoff     float64
	resonance  float64

	low, band [2]float64
}

func NewFilterFactory(mode FilterMode) graphdsp.Factory {
	return func() graphdsp.Node { return &SVF{mode: mode, cutoff: 1000, resonance: 0.5} }
}

func (f *SVF) Prepare(sampleRate float64, _ int) { f.sampleRate = sampleRate }
func (f *SVF) Polyphony() graphdsp.Polyphony     { return graphdsp.Global }
func (f *SVF) Reset()                            { f.low, f.band = [2]float64{}, [2]float64{} }

func (f *SVF) SetParam(id ids.ParamID, v float64) {
	switch id {
	case ids.ParamCutoff:
		f.cutoff = v
	case ids.ParamResonance:
		f.resonance = v
	}
}

func (f *SVF) Process(ctx graphdsp.ProcessContext, inputs []graphdsp.Buffer, out graphdsp.Buffer) bool {
	if len(inputs) == 0 {
		return true
	}
	in := inputs[0]

	freq := 2.0 * math.Sin(math.Pi*math.Min(f.cutoff/f.sampleRate, 0.25))
	damp := math.Min(1.0/math.Max(f.resonance, 0.1), 2.0)

	silent := true
	for ch := 0; ch < out.Channels() && ch < in.Channels(); ch++ {
		src := in.Channel(ch)
		dst := out.Channel(ch)
		low, band := f.low[ch], f.band[ch]
		for i := 0; i < ctx.Frames; i++ {
			x := float64(src[i])
			high := x - low - damp*band
			band += freq * high
			low += freq * band
			notch := high + low

			var y float64
			switch f.mode {
			case FilterLowpass:
				y = low
			case FilterHighpass:
				y = high
			case FilterBandpass:
				y = band
			case FilterNotch:
				y = notch
			}
			dst[i] = float32(y)
			if y != 0 {
				silent = false
			}
		}
		f.low[ch], f.band[ch] = low, band
	}
	return silent
}
