package nodes

import (
	"math"

	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
)

// Gain is a global trim node: output = input * gain.
type Gain struct {
	gain float64
}

func NewGainFactory() graphdsp.Factory {
	return func() graphdsp.Node { return &Gain{gain: 1.0} }
}

func (g *Gain) Prepare(float64, int)            {}
func (g *Gain) Polyphony() graphdsp.Polyphony   { return graphdsp.Global }
func (g *Gain) Reset()                          {}
func (g *Gain) SetParam(id ids.ParamID, v float64) {
	if id == ids.ParamGain {
		g.gain = v
	}
}

func (g *Gain) Process(ctx graphdsp.ProcessContext, inputs []graphdsp.Buffer, out graphdsp.Buffer) bool {
	if len(inputs) == 0 {
		return true
	}
	in := inputs[0]
	silent := true
	for ch := 0; ch < out.Channels() && ch < in.Channels(); ch++ {
		src := in.Channel(ch)
		dst := out.Channel(ch)
		for i := 0; i < ctx.Frames; i++ {
			s := src[i] * float32(g.gain)
			dst[i] = s
			if s != 0 {
				silent = false
			}
		}
	}
	return silent
}

// Pan is a global equal-power stereo panner; mono input is duplicated to
// both output channels before panning. pan is -1 (left) .. +1 (right).
type Pan struct {
	pan float64
}

func NewPanFactory() graphdsp.Factory {
	return func() graphdsp.Node { return &Pan{} }
}

func (p *Pan) Prepare(float64, int)          {}
func (p *Pan) Polyphony() graphdsp.Polyphony { return graphdsp.Global }
func (p *Pan) Reset()                        {}
func (p *Pan) SetParam(id ids.ParamID, v float64) {
	if id == ids.ParamPan {
		p.pan = v
	}
}

func (p *Pan) Process(ctx graphdsp.ProcessContext, inputs []graphdsp.Buffer, out graphdsp.Buffer) bool {
	if len(inputs) == 0 || out.Channels() < 2 {
		return true
	}
	in := inputs[0]
	angle := (p.pan + 1.0) * math.Pi / 4.0
	leftGain := float32(math.Cos(angle))
	rightGain := float32(math.Sin(angle))

	silent := true
	left := out.Channel(0)
	right := out.Channel(1)
	mono := in.Channel(0)
	for i := 0; i < ctx.Frames; i++ {
		s := mono[i]
		left[i] = s * leftGain
		right[i] = s * rightGain
		if s != 0 {
			silent = false
		}
	}
	return silent
}

// Delay is a global feedback delay line with a fixed maximum length; the
// ring buffer is sized once at Prepare and never reallocated, keeping
// Process alloc-free per the audio-thread rule (§5).
type Delay struct {
	sampleRate     float64
	delaySeconds   float64
	feedback       float64
	mix            float64
	ring           [][]float32
	writeIdx       int
}

const maxDelaySeconds = 2.0

func NewDelayFactory() graphdsp.Factory {
	return func() graphdsp.Node { return &Delay{delaySeconds: 0.3, feedback: 0.35, mix: 0.3} }
}

func (d *Delay) Prepare(sampleRate float64, _ int) {
	d.sampleRate = sampleRate
	n := int(maxDelaySeconds * sampleRate)
	d.ring = make([][]float32, 2)
	for ch := range d.ring {
		d.ring[ch] = make([]float32, n)
	}
	d.writeIdx = 0
}

func (d *Delay) Polyphony() graphdsp.Polyphony { return graphdsp.Global }

func (d *Delay) Reset() {
	for ch := range d.ring {
		for i := range d.ring[ch] {
			d.ring[ch][i] = 0
		}
	}
	d.writeIdx = 0
}

func (d *Delay) SetParam(id ids.ParamID, v float64) {
	switch id {
	case ids.ParamDelayTime:
		if v > 0 && v <= maxDelaySeconds {
			d.delaySeconds = v
		}
	case ids.ParamFeedback:
		d.feedback = v
	case ids.ParamMix:
		d.mix = v
	}
}

func (d *Delay) Process(ctx graphdsp.ProcessContext, inputs []graphdsp.Buffer, out graphdsp.Buffer) bool {
	if len(inputs) == 0 || len(d.ring) == 0 {
		return true
	}
	in := inputs[0]
	delaySamples := int(d.delaySeconds * d.sampleRate)
	n := len(d.ring[0])

	silent := true
	for ch := 0; ch < out.Channels() && ch < len(d.ring); ch++ {
		src := in.Channel(ch % in.Channels())
		dst := out.Channel(ch)
		ring := d.ring[ch]
		widx := d.writeIdx
		for i := 0; i < ctx.Frames; i++ {
			ridx := (widx - delaySamples + n) % n
			wet := ring[ridx]
			dry := src[i]
			mixed := dry*float32(1-d.mix) + wet*float32(d.mix)
			dst[i] = mixed
			ring[widx] = dry + wet*float32(d.feedback)
			widx = (widx + 1) % n
			if mixed != 0 {
				silent = false
			}
		}
	}
	d.writeIdx = (d.writeIdx + ctx.Frames) % n
	return silent
}

// Reverb is a global Schroeder-style reverb: four parallel comb filters
// summed, run through two series allpass stages. Classic, cheap,
// allocation-free once its buffers are sized at Prepare.
type Reverb struct {
	sampleRate float64
	mix        float64

	combs    []combFilter
	allpass1 allpassFilter
	allpass2 allpassFilter
}

type combFilter struct {
	buf      []float32
	idx      int
	feedback float32
}

type allpassFilter struct {
	buf  []float32
	idx  int
	gain float32
}

var combTuningsMs = []float64{29.7, 37.1, 41.1, 43.7}
var allpassTuningsMs = []float64{5.0, 1.7}

func NewReverbFactory() graphdsp.Factory {
	return func() graphdsp.Node { return &Reverb{mix: 0.25} }
}

func (r *Reverb) Prepare(sampleRate float64, _ int) {
	r.sampleRate = sampleRate
	r.combs = make([]combFilter, len(combTuningsMs))
	for i, ms := range combTuningsMs {
		r.combs[i] = combFilter{
			buf:      make([]float32, int(ms*sampleRate/1000.0)+1),
			feedback: 0.84,
		}
	}
	r.allpass1 = allpassFilter{buf: make([]float32, int(allpassTuningsMs[0]*sampleRate/1000.0)+1), gain: 0.5}
	r.allpass2 = allpassFilter{buf: make([]float32, int(allpassTuningsMs[1]*sampleRate/1000.0)+1), gain: 0.5}
}

func (r *Reverb) Polyphony() graphdsp.Polyphony { return graphdsp.Global }

func (r *Reverb) Reset() {
	for i := range r.combs {
		for j := range r.combs[i].buf {
			r.combs[i].buf[j] = 0
		}
		r.combs[i].idx = 0
	}
	for j := range r.allpass1.buf {
		r.allpass1.buf[j] = 0
	}
	for j := range r.allpass2.buf {
		r.allpass2.buf[j] = 0
	}
}

func (r *Reverb) SetParam(id ids.ParamID, v float64) {
	if id == ids.ParamMix {
		r.mix = v
	}
}

func (c *combFilter) tick(x float32) float32 {
	y := c.buf[c.idx]
	c.buf[c.idx] = x + y*c.feedback
	c.idx = (c.idx + 1) % len(c.buf)
	return y
}

func (a *allpassFilter) tick(x float32) float32 {
	bufOut := a.buf[a.idx]
	y := -a.gain*x + bufOut
	a.buf[a.idx] = x + bufOut*a.gain
	a.idx = (a.idx + 1) % len(a.buf)
	return y
}

func (r *Reverb) Process(ctx graphdsp.ProcessContext, inputs []graphdsp.Buffer, out graphdsp.Buffer) bool {
	if len(inputs) == 0 || len(r.combs) == 0 {
		return true
	}
	in := inputs[0]
	silent := true
	for ch := 0; ch < out.Channels(); ch++ {
		src := in.Channel(ch % in.Channels())
		dst := out.Channel(ch)
		for i := 0; i < ctx.Frames; i++ {
			dry := src[i]
			var wet float32
			for c := range r.combs {
				wet += r.combs[c].tick(dry)
			}
			wet /= float32(len(r.combs))
			wet = r.allpass1.tick(wet)
			wet = r.allpass2.tick(wet)
			s := dry*float32(1-r.mix) + wet*float32(r.mix)
			dst[i] = s
			if s != 0 {
				silent = false
			}
		}
	}
	return silent
}
