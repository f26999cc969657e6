package nodes

import (
	"math"

	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
)

// LFO is a global low-frequency sine modulator. It has no audio input: it
// writes its own waveform (scaled by depth) to its output buffer so
// other nodes can read it as a modulation source, the same "always
// produce a signal" shape as the teacher's free-running Oscillator.
type LFO struct {
	sampleRate float64
	phase      float64
	rate       float64
	depth      float64
}

func NewLFOFactory() graphdsp.Factory {
	return func() graphdsp.Node { return &LFO{rate: 2.0, depth: 1.0} }
}

func (l *LFO) Prepare(sampleRate float64, _ int) { l.sampleRate = sampleRate }
func (l *LFO) Polyphony() graphdsp.Polyphony     { return graphdsp.Global }
func (l *LFO) Reset()                            { l.phase = 0 }

func (l *LFO) SetParam(id ids.ParamID, v float64) {
	switch id {
	case ids.ParamRate:
		l.rate = v
	case ids.ParamDepth:
		l.depth = v
	}
}

func (l *LFO) Process(ctx graphdsp.ProcessContext, _ []graphdsp.Buffer, out graphdsp.Buffer) bool {
	increment := l.rate / l.sampleRate
	phase := l.phase
	for i := 0; i < ctx.Frames; i++ {
		v := float32(math.Sin(2.0*math.Pi*phase) * l.depth)
		for ch := 0; ch < out.Channels(); ch++ {
			out.Channel(ch)[i] = v
		}
		phase += increment
		if phase >= 1.0 {
			phase -= math.Floor(phase)
		}
	}
	l.phase = phase
	return l.depth == 0
}
