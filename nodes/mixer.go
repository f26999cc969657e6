package nodes

import (
	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
)

// OutputMixer sums every input and applies a single master gain.
// compiler.BuildMasterBus places one after the Gain node that sums the
// track chains (§6's "master bus feeding master output"); Compile itself
// does not add one.
type OutputMixer struct {
	masterGain float64
}

func NewOutputMixerFactory() graphdsp.Factory {
	return func() graphdsp.Node { return &OutputMixer{masterGain: 1.0} }
}

func (m *OutputMixer) Prepare(float64, int)          {}
func (m *OutputMixer) Polyphony() graphdsp.Polyphony { return graphdsp.Global }
func (m *OutputMixer) Reset()                        {}

func (m *OutputMixer) SetParam(id ids.ParamID, v float64) {
	if id == ids.ParamGain {
		m.masterGain = v
	}
}

func (m *OutputMixer) Process(ctx graphdsp.ProcessContext, inputs []graphdsp.Buffer, out graphdsp.Buffer) bool {
	silent := true
	for _, in := range inputs {
		for ch := 0; ch < out.Channels() && ch < in.Channels(); ch++ {
			src := in.Channel(ch)
			dst := out.Channel(ch)
			for i := 0; i < ctx.Frames; i++ {
				s := src[i] * float32(m.masterGain)
				dst[i] += s
				if s != 0 {
					silent = false
				}
			}
		}
	}
	return silent
}
