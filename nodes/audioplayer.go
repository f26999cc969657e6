package nodes

import (
	"github.com/cjbrigato/go-vtm/graphdsp"
	"github.com/cjbrigato/go-vtm/ids"
)

type activeRegion struct {
	audioID     ids.AudioID
	startSample uint64
	duration    uint64
	gain        float32
	readFrame   int
}

// AudioPlayer is a global node that renders loaded audio-pool sources. A
// region starts sounding in the slice where its AudioStart is applied and
// reads the source from frame startSample for durationSamples frames.
// LoadAudio/UnloadAudio manage the node's view of the pool and are applied
// by the bridge's EngineHandle while it drains commands; StartAudio/StopAudio
// are RT-safe per §4.7 and only mutate a pre-sized slice of active regions.
type AudioPlayer struct {
	sources map[ids.AudioID]graphdsp.AudioSource
	active  []activeRegion
}

func NewAudioPlayerFactory() graphdsp.Factory {
	return func() graphdsp.Node {
		return &AudioPlayer{
			sources: make(map[ids.AudioID]graphdsp.AudioSource),
			active:  make([]activeRegion, 0, 32),
		}
	}
}

func (a *AudioPlayer) Prepare(float64, int)          {}
func (a *AudioPlayer) Polyphony() graphdsp.Polyphony { return graphdsp.Global }
func (a *AudioPlayer) SetParam(ids.ParamID, float64) {}

func (a *AudioPlayer) Reset() {
	a.active = a.active[:0]
}

func (a *AudioPlayer) LoadAudio(src graphdsp.AudioSource) {
	a.sources[src.ID] = src
}

func (a *AudioPlayer) UnloadAudio(id ids.AudioID) {
	delete(a.sources, id)
}

func (a *AudioPlayer) StartAudio(id ids.AudioID, startSample, durationSamples uint64, gain float32) {
	if _, ok := a.sources[id]; !ok {
		// Audio pool miss: silent no-op (§7).
		return
	}
	a.active = append(a.active, activeRegion{audioID: id, startSample: startSample, duration: durationSamples, gain: gain})
}

func (a *AudioPlayer) StopAudio(id ids.AudioID) {
	for i := 0; i < len(a.active); {
		if a.active[i].audioID == id {
			a.active = append(a.active[:i], a.active[i+1:]...)
			continue
		}
		i++
	}
}

func (a *AudioPlayer) Process(ctx graphdsp.ProcessContext, _ []graphdsp.Buffer, out graphdsp.Buffer) bool {
	silent := true
	for i := 0; i < ctx.Frames; i++ {
		for ri := 0; ri < len(a.active); ri++ {
			r := &a.active[ri]
			if uint64(r.readFrame) >= r.duration {
				continue
			}
			src, ok := a.sources[r.audioID]
			frameIdx := int(r.startSample) + r.readFrame
			r.readFrame++
			if !ok || frameIdx >= len(src.Samples)/maxInt(src.Channels, 1) {
				continue
			}
			for ch := 0; ch < out.Channels(); ch++ {
				srcCh := ch % maxInt(src.Channels, 1)
				sampleIdx := frameIdx*src.Channels + srcCh
				if sampleIdx >= 0 && sampleIdx < len(src.Samples) {
					s := src.Samples[sampleIdx] * r.gain
					out.Channel(ch)[i] += s
					if s != 0 {
						silent = false
					}
				}
			}
		}
	}

	// Drop regions that have fully played out their duration.
	stillActive := a.active[:0]
	for _, r := range a.active {
		if uint64(r.readFrame) < r.duration {
			stillActive = append(stillActive, r)
		}
	}
	a.active = stillActive

	return silent
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
