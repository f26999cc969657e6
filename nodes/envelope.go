package nodes

import (
	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
)

type envelopeStage int

const (
	stageOff envelopeStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// ADSR is a per-voice envelope generator that multiplies its (single)
// input by its current level. Sample-counted staging mirrors the
// teacher's synth.Envelope; unlike the teacher's version it responds to
// VoiceContext.Trigger/Release pulses from the allocator rather than
// explicit Trigger()/Release() calls, since the graph drives it.
type ADSR struct {
	attack, decay, sustain, release float64 // seconds / level
	sampleRate                      float64

	stage       envelopeStage
	level       float64
	sampleCount int
}

func NewADSRFactory() graphdsp.Factory {
	return func() graphdsp.Node {
		return &ADSR{attack: 0.01, decay: 0.1, sustain: 0.8, release: 0.2}
	}
}

func (e *ADSR) Prepare(sampleRate float64, _ int) { e.sampleRate = sampleRate }

func (e *ADSR) Polyphony() graphdsp.Polyphony { return graphdsp.PerVoice }

func (e *ADSR) Reset() {
	e.stage = stageOff
	e.level = 0
	e.sampleCount = 0
}

func (e *ADSR) SetParam(id ids.ParamID, value float64) {
	switch id {
	case ids.ParamAttack:
		e.attack = value
	case ids.ParamDecay:
		e.decay = value
	case ids.ParamSustain:
		e.sustain = value
	case ids.ParamRelease:
		e.release = value
	}
}

func (e *ADSR) Process(ctx graphdsp.ProcessContext, inputs []graphdsp.Buffer, out graphdsp.Buffer) bool {
	if ctx.Voice.Trigger {
		e.stage = stageAttack
		e.sampleCount = 0
	}
	if ctx.Voice.Release && e.stage != stageOff {
		e.stage = stageRelease
		e.sampleCount = 0
	}

	var in graphdsp.Buffer
	hasInput := len(inputs) > 0
	if hasInput {
		in = inputs[0]
	}

	velocity := ctx.Voice.Velocity
	if velocity == 0 {
		velocity = 1
	}

	silent := true
	for i := 0; i < ctx.Frames; i++ {
		e.advance()
		gain := e.level * velocity
		if gain != 0 {
			silent = false
		}
		for ch := 0; ch < out.Channels(); ch++ {
			var s float32
			if hasInput && ch < in.Channels() {
				s = in.Channel(ch)[i]
			} else {
				s = 1
			}
			out.Channel(ch)[i] = s * float32(gain)
		}
	}

	return silent && e.stage == stageOff
}

func (e *ADSR) advance() {
	switch e.stage {
	case stageAttack:
		attackSamples := int(e.attack * e.sampleRate)
		if attackSamples <= 0 || e.sampleCount >= attackSamples {
			e.level = 1.0
			e.stage = stageDecay
			e.sampleCount = 0
		} else {
			e.level = float64(e.sampleCount) / float64(attackSamples)
			e.sampleCount++
		}
	case stageDecay:
		decaySamples := int(e.decay * e.sampleRate)
		if decaySamples <= 0 || e.sampleCount >= decaySamples {
			e.level = e.sustain
			e.stage = stageSustain
		} else {
			t := float64(e.sampleCount) / float64(decaySamples)
			e.level = 1.0 + t*(e.sustain-1.0)
			e.sampleCount++
		}
	case stageSustain:
		e.level = e.sustain
	case stageRelease:
		releaseSamples := int(e.release * e.sampleRate)
		if releaseSamples <= 0 || e.sampleCount >= releaseSamples {
			e.level = 0
			e.stage = stageOff
		} else {
			t := float64(e.sampleCount) / float64(releaseSamples)
			e.level = e.sustain * (1.0 - t)
			e.sampleCount++
		}
	case stageOff:
		e.level = 0
	}
}
