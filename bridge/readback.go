package bridge

import (
	"math"
	"sync/atomic"
)

// SharedReadback is the lock-free block of atomics the audio thread
// updates every block and the editor thread polls at its own cadence
// (§4.10). BeatPosition is a float64 bit-packed into a uint64, the
// idiomatic substitute for atomic float support Go's sync/atomic lacks.
type SharedReadback struct {
	samplePosition atomic.Uint64
	beatPositionBits atomic.Uint64
	activeVoices   atomic.Uint64
	running        atomic.Bool

	// cpuLoad and peaks are host-computed — see DESIGN.md's resolution of
	// spec.md's Open Question on this point — exposed here only as a
	// convenience pass-through a host MAY choose to populate.
	cpuLoadBits atomic.Uint64
	peakLBits   atomic.Uint64
	peakRBits   atomic.Uint64
}

// UpdateTransport publishes the current sample/beat position, called by
// the audio thread after each processed block.
func (r *SharedReadback) UpdateTransport(samplePos uint64, beatPos float64) {
	r.samplePosition.Store(samplePos)
	r.beatPositionBits.Store(math.Float64bits(beatPos))
}

// UpdateActiveVoices publishes the current voice count.
func (r *SharedReadback) UpdateActiveVoices(n int) {
	r.activeVoices.Store(uint64(n))
}

// SetRunning publishes the transport's play/stop state.
func (r *SharedReadback) SetRunning(running bool) {
	r.running.Store(running)
}

// UpdateLoad publishes host-measured CPU load and stereo peak levels. A
// host that does not measure these may simply never call it; readers
// then observe zero, which is a valid "unmeasured" value.
func (r *SharedReadback) UpdateLoad(cpuLoad float64, peakL, peakR float32) {
	r.cpuLoadBits.Store(math.Float64bits(cpuLoad))
	r.peakLBits.Store(uint64(math.Float32bits(peakL)))
	r.peakRBits.Store(uint64(math.Float32bits(peakR)))
}

// Readback is a point-in-time, non-atomic snapshot of a SharedReadback,
// returned by Read for convenient consumption.
type Readback struct {
	SamplePosition uint64
	BeatPosition   float64
	ActiveVoices   int
	Running        bool
	CPULoad        float64
	PeakL, PeakR   float32
}

// Read takes a consistent-enough snapshot of every field; individual
// fields may be read a fraction of a block apart from each other, which
// is acceptable for telemetry (§4.10: "the editor reads the atomic
// readback any time").
func (r *SharedReadback) Read() Readback {
	return Readback{
		SamplePosition: r.samplePosition.Load(),
		BeatPosition:   math.Float64frombits(r.beatPositionBits.Load()),
		ActiveVoices:   int(r.activeVoices.Load()),
		Running:        r.running.Load(),
		CPULoad:        math.Float64frombits(r.cpuLoadBits.Load()),
		PeakL:          math.Float32frombits(uint32(r.peakLBits.Load())),
		PeakR:          math.Float32frombits(uint32(r.peakRBits.Load())),
	}
}
