// Package registry implements the NodeRegistry: the mapping from
// NodeTypeId to a node factory and its declared polyphony, plus the
// per-parameter metadata (ParamInfo) restored from original_source's
// src/state/param_info.rs that lets a host build generic UI (§3, §6).
package registry

import (
	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/nodes"
)

// Curve describes how a parameter's raw value maps to a perceptual scale,
// for host-side UI widgets (a linear fader vs. a log-scaled frequency
// knob).
type Curve int

const (
	CurveLinear Curve = iota
	CurveExponential
	CurveLogarithmic
)

// ParamInfo is static metadata for one (NodeTypeId, ParamId) pair.
type ParamInfo struct {
	ID      ids.ParamID
	Name    string
	Min     float64
	Max     float64
	Default float64
	Units   string
	Curve   Curve
}

// NodeTypeDescriptor is everything the registry knows about one node type:
// how to build it, its declared polyphony, and its parameter metadata.
type NodeTypeDescriptor struct {
	TypeID   ids.NodeTypeID
	Name     string
	Poly     graphdsp.Polyphony
	Factory  graphdsp.Factory
	Params   []ParamInfo
}

// Registry maps NodeTypeId to its descriptor. Additional types may be
// registered before any graph compilation (§6).
type Registry struct {
	types map[ids.NodeTypeID]NodeTypeDescriptor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{types: make(map[ids.NodeTypeID]NodeTypeDescriptor)}
}

// Register adds or replaces a node type descriptor.
func (r *Registry) Register(d NodeTypeDescriptor) {
	r.types[d.TypeID] = d
}

// Lookup returns the descriptor for typeID, or false if unregistered.
func (r *Registry) Lookup(typeID ids.NodeTypeID) (NodeTypeDescriptor, bool) {
	d, ok := r.types[typeID]
	return d, ok
}

// ParamInfo returns the declared metadata for (typeID, paramID), or false
// if either the type or the param is unknown.
func (r *Registry) ParamInfo(typeID ids.NodeTypeID, paramID ids.ParamID) (ParamInfo, bool) {
	d, ok := r.types[typeID]
	if !ok {
		return ParamInfo{}, false
	}
	for _, p := range d.Params {
		if p.ID == paramID {
			return p, true
		}
	}
	return ParamInfo{}, false
}

// All returns every registered descriptor, in no particular order.
func (r *Registry) All() []NodeTypeDescriptor {
	out := make([]NodeTypeDescriptor, 0, len(r.types))
	for _, d := range r.types {
		out = append(out, d)
	}
	return out
}

// NewBundled builds a registry pre-populated with the default node set
// named in §6: sine/saw/square/triangle oscillators, ADSR, gain/pan/delay/
// reverb, SVF lowpass/highpass/bandpass/notch, LFO, audio player, output
// mixer.
func NewBundled() *Registry {
	r := New()

	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeOscSine, Name: "Sine Oscillator", Poly: graphdsp.PerVoice,
		Factory: nodes.NewOscillatorFactory(nodes.ShapeSine),
		Params:  []ParamInfo{{ID: ids.ParamFrequency, Name: "Detune", Min: -1200, Max: 1200, Units: "Hz", Curve: CurveLinear}},
	})
	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeOscSaw, Name: "Saw Oscillator", Poly: graphdsp.PerVoice,
		Factory: nodes.NewOscillatorFactory(nodes.ShapeSaw),
		Params:  []ParamInfo{{ID: ids.ParamFrequency, Name: "Detune", Min: -1200, Max: 1200, Units: "Hz", Curve: CurveLinear}},
	})
	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeOscSquare, Name: "Square Oscillator", Poly: graphdsp.PerVoice,
		Factory: nodes.NewOscillatorFactory(nodes.ShapeSquare),
		Params:  []ParamInfo{{ID: ids.ParamFrequency, Name: "Detune", Min: -1200, Max: 1200, Units: "Hz", Curve: CurveLinear}},
	})
	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeOscTriangle, Name: "Triangle Oscillator", Poly: graphdsp.PerVoice,
		Factory: nodes.NewOscillatorFactory(nodes.ShapeTriangle),
		Params:  []ParamInfo{{ID: ids.ParamFrequency, Name: "Detune", Min: -1200, Max: 1200, Units: "Hz", Curve: CurveLinear}},
	})

	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeADSR, Name: "ADSR Envelope", Poly: graphdsp.PerVoice,
		Factory: nodes.NewADSRFactory(),
		Params: []ParamInfo{
			{ID: ids.ParamAttack, Name: "Attack", Min: 0, Max: 10, Default: 0.01, Units: "s", Curve: CurveExponential},
			{ID: ids.ParamDecay, Name: "Decay", Min: 0, Max: 10, Default: 0.1, Units: "s", Curve: CurveExponential},
			{ID: ids.ParamSustain, Name: "Sustain", Min: 0, Max: 1, Default: 0.8, Units: "", Curve: CurveLinear},
			{ID: ids.ParamRelease, Name: "Release", Min: 0, Max: 10, Default: 0.2, Units: "s", Curve: CurveExponential},
		},
	})

	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeGain, Name: "Gain", Poly: graphdsp.Global,
		Factory: nodes.NewGainFactory(),
		Params:  []ParamInfo{{ID: ids.ParamGain, Name: "Gain", Min: 0, Max: 4, Default: 1, Curve: CurveLinear}},
	})
	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypePan, Name: "Pan", Poly: graphdsp.Global,
		Factory: nodes.NewPanFactory(),
		Params:  []ParamInfo{{ID: ids.ParamPan, Name: "Pan", Min: -1, Max: 1, Default: 0, Curve: CurveLinear}},
	})
	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeDelay, Name: "Delay", Poly: graphdsp.Global,
		Factory: nodes.NewDelayFactory(),
		Params: []ParamInfo{
			{ID: ids.ParamDelayTime, Name: "Time", Min: 0.01, Max: 2.0, Default: 0.3, Units: "s", Curve: CurveExponential},
			{ID: ids.ParamFeedback, Name: "Feedback", Min: 0, Max: 0.95, Default: 0.35, Curve: CurveLinear},
			{ID: ids.ParamMix, Name: "Mix", Min: 0, Max: 1, Default: 0.3, Curve: CurveLinear},
		},
	})
	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeReverb, Name: "Reverb", Poly: graphdsp.Global,
		Factory: nodes.NewReverbFactory(),
		Params:  []ParamInfo{{ID: ids.ParamMix, Name: "Mix", Min: 0, Max: 1, Default: 0.25, Curve: CurveLinear}},
	})

	filterParams := []ParamInfo{
		{ID: ids.ParamCutoff, Name: "Cutoff", Min: 20, Max: 20000, Default: 1000, Units: "Hz", Curve: CurveLogarithmic},
		{ID: ids.ParamResonance, Name: "Resonance", Min: 0.1, Max: 10, Default: 0.5, Curve: CurveLinear},
	}
	r.Register(NodeTypeDescriptor{TypeID: ids.TypeFilterLP, Name: "Lowpass Filter", Poly: graphdsp.Global, Factory: nodes.NewFilterFactory(nodes.FilterLowpass), Params: filterParams})
	r.Register(NodeTypeDescriptor{TypeID: ids.TypeFilterHP, Name: "Highpass Filter", Poly: graphdsp.Global, Factory: nodes.NewFilterFactory(nodes.FilterHighpass), Params: filterParams})
	r.Register(NodeTypeDescriptor{TypeID: ids.TypeFilterBP, Name: "Bandpass Filter", Poly: graphdsp.Global, Factory: nodes.NewFilterFactory(nodes.FilterBandpass), Params: filterParams})
	r.Register(NodeTypeDescriptor{TypeID: ids.TypeFilterNotch, Name: "Notch Filter", Poly: graphdsp.Global, Factory: nodes.NewFilterFactory(nodes.FilterNotch), Params: filterParams})

	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeLFO, Name: "LFO", Poly: graphdsp.Global,
		Factory: nodes.NewLFOFactory(),
		Params: []ParamInfo{
			{ID: ids.ParamRate, Name: "Rate", Min: 0.01, Max: 20, Default: 2, Units: "Hz", Curve: CurveExponential},
			{ID: ids.ParamDepth, Name: "Depth", Min: 0, Max: 1, Default: 1, Curve: CurveLinear},
		},
	})

	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeAudioPlayer, Name: "Audio Player", Poly: graphdsp.Global,
		Factory: nodes.NewAudioPlayerFactory(),
	})

	r.Register(NodeTypeDescriptor{
		TypeID: ids.TypeOutputMixer, Name: "Output Mixer", Poly: graphdsp.Global,
		Factory: nodes.NewOutputMixerFactory(),
		Params:  []ParamInfo{{ID: ids.ParamGain, Name: "Master Gain", Min: 0, Max: 2, Default: 1, Curve: CurveLinear}},
	})

	return r
}
