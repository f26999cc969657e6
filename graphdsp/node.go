package graphdsp

import (
	"github.com/cjbrigato/go-vtm/ids"
	"github.com/cjbrigato/go-vtm/voice"
)

// Polyphony declares how many instances of a node type the graph holds.
type Polyphony int

const (
	// Global: one shared instance (effects, output, master bus).
	Global Polyphony = iota
	// PerVoice: instantiated once per voice slot.
	PerVoice
)

func (p Polyphony) String() string {
	if p == PerVoice {
		return "per-voice"
	}
	return "global"
}

// ProcessContext carries the per-call state a Node needs to render one
// slice. Voice is the zero value for Global nodes.
type ProcessContext struct {
	Frames     int
	SamplePos  uint64
	BPM        float64
	SampleRate float64
	Voice      voice.Context
}

// Node is the capability set every DSP node satisfies: prepare, process,
// set_param, reset. Polyphony is a static property of the type, not the
// instance, reported once so the graph can decide instancing (§4.1).
type Node interface {
	Prepare(sampleRate float64, maxBlock int)
	// Process renders ctx.Frames samples from inputs into output, and
	// reports whether the result is silent (all-zero) for this call.
	Process(ctx ProcessContext, inputs []Buffer, output Buffer) (silent bool)
	SetParam(id ids.ParamID, value float64)
	Reset()
	Polyphony() Polyphony
}

// AudioSource is the minimal, DSP-agnostic description of one pool entry
// an AudioPlayer node needs to render — the graph layer's mirror of
// session.AudioPoolEntry, kept free of any session import to avoid a
// compiler->session->graphdsp->session cycle.
type AudioSource struct {
	ID         ids.AudioID
	SampleRate float64
	Channels   int
	Samples    []float32 // interleaved
}

// AudioPlayer is the optional capability a Node may implement in addition
// to Node, for nodes that can start/stop/load/unload audio regions.
type AudioPlayer interface {
	LoadAudio(src AudioSource)
	UnloadAudio(id ids.AudioID)
	StartAudio(id ids.AudioID, startSample uint64, durationSamples uint64, gain float32)
	StopAudio(id ids.AudioID)
}

// Factory creates a fresh Node instance. The compiler calls it once for a
// Global node and maxVoices times for a PerVoice node.
type Factory func() Node
