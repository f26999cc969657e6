//go:build (linux || windows || darwin) && !noaudio

// Package audio drives real-time output for a compiled patch through oto,
// pulling rendered blocks from a bridge.EngineHandle instead of a tracker
// player (§4.6/§4.10).
package audio

import (
	"io"
	"math"

	"github.com/ebitengine/oto/v3"

	"github.com/cjbrigato/go-vtm/bridge"
	"github.com/cjbrigato/go-vtm/plan"
	"github.com/cjbrigato/go-vtm/scheduler"
)

// Playback owns the oto context and drives one EngineHandle block at a
// time from a Scheduler's musical clock.
type Playback struct {
	otoContext *oto.Context
	otoPlayer  *oto.Player
	engine     *bridge.EngineHandle
	scheduler  *scheduler.Scheduler
	handoff    *plan.Handoff
	blockSize  int
	done       chan bool
}

// NewPlayback wires engine to a Scheduler already sharing handoff, ready
// to stream blockSize-frame blocks through oto at sampleRate.
func NewPlayback(engine *bridge.EngineHandle, sched *scheduler.Scheduler, handoff *plan.Handoff, sampleRate, blockSize int) (*Playback, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &Playback{
		otoContext: otoCtx,
		engine:     engine,
		scheduler:  sched,
		handoff:    handoff,
		blockSize:  blockSize,
		done:       make(chan bool),
	}, nil
}

// Play starts streaming blocks through oto. events is re-read on every
// block so a caller can grow it as new clip-playback events are
// scheduled (e.g. from a live arrangement).
func (pb *Playback) Play(events func() []scheduler.MusicalEvent) {
	pb.otoPlayer = pb.otoContext.NewPlayer(&blockReader{pb: pb, events: events})
	pb.otoPlayer.Play()
}

// Stop halts playback.
func (pb *Playback) Stop() {
	close(pb.done)
}

// IsPlaying reports whether the oto player is actively streaming.
func (pb *Playback) IsPlaying() bool {
	return pb.otoPlayer != nil && pb.otoPlayer.IsPlaying()
}

// blockReader implements io.Reader, pulling one engine block at a time
// and serializing it to little-endian stereo float32 PCM for oto.
type blockReader struct {
	pb     *Playback
	events func() []scheduler.MusicalEvent
}

func (r *blockReader) Read(p []byte) (int, error) {
	select {
	case <-r.pb.done:
		return 0, io.EOF
	default:
	}

	framesWanted := len(p) / 4 / 2
	if framesWanted > r.pb.blockSize {
		framesWanted = r.pb.blockSize
	}

	r.pb.scheduler.CompileBlock(r.pb.handoff, framesWanted, r.events())
	r.pb.engine.ProcessPlan()
	buf := r.pb.engine.Render()

	left := buf.Channel(0)
	right := buf.Channel(0)
	if buf.Channels() > 1 {
		right = buf.Channel(1)
	}

	n := 0
	for i := 0; i < framesWanted; i++ {
		writeFloat32LE(p[n:], left[i])
		writeFloat32LE(p[n+4:], right[i])
		n += 8
	}
	return n, nil
}

func writeFloat32LE(p []byte, f float32) {
	bits := math.Float32bits(f)
	p[0] = byte(bits)
	p[1] = byte(bits >> 8)
	p[2] = byte(bits >> 16)
	p[3] = byte(bits >> 24)
}
