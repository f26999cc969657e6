//go:build !(linux || windows || darwin) || noaudio

package audio

import (
	"fmt"

	"github.com/cjbrigato/go-vtm/bridge"
	"github.com/cjbrigato/go-vtm/plan"
	"github.com/cjbrigato/go-vtm/scheduler"
)

// Playback stub for unsupported platforms.
type Playback struct{}

// NewPlayback returns an error on unsupported platforms.
func NewPlayback(engine *bridge.EngineHandle, sched *scheduler.Scheduler, handoff *plan.Handoff, sampleRate, blockSize int) (*Playback, error) {
	return nil, fmt.Errorf("audio playback not supported on this platform")
}

// Play is a no-op.
func (pb *Playback) Play(events func() []scheduler.MusicalEvent) {}

// Stop is a no-op.
func (pb *Playback) Stop() {}

// IsPlaying always reports false.
func (pb *Playback) IsPlaying() bool { return false }
