// Package loadutil decodes WAV files on disk into the interleaved
// float32 samples an AudioPool/AudioSource expects. Kept outside any
// audio-thread path: WAV decoding allocates and does file I/O, neither of
// which belongs on the render thread (§5).
package loadutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cjbrigato/go-vtm/bridge"
	"github.com/cjbrigato/go-vtm/ids"
)

// DecodedAudio is the result of loading a WAV file: interleaved samples
// ready for session.AudioPool.Add or graphdsp.AudioSource.
type DecodedAudio struct {
	SampleRate float64
	Channels   int
	Samples    []float32 // interleaved
}

// LoadWAV decodes name's PCM samples into a DecodedAudio, converting
// whatever bit depth the file carries to float32 in [-1, 1].
func LoadWAV(name string) (DecodedAudio, error) {
	f, err := os.Open(name)
	if err != nil {
		return DecodedAudio{}, fmt.Errorf("loadutil: open %s: %w", name, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return DecodedAudio{}, fmt.Errorf("loadutil: %s is not a valid WAV file", name)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return DecodedAudio{}, fmt.Errorf("loadutil: decode %s: %w", name, err)
	}

	return DecodedAudio{
		SampleRate: float64(d.SampleRate),
		Channels:   int(d.NumChans),
		Samples:    intBufferToFloat32(buf),
	}, nil
}

// LoadWAVIntoPool decodes name and registers it in sh's arrangement audio
// pool, enqueuing the CmdLoadAudio that installs it on nodeID's AudioPlayer
// so a clip can trigger it immediately (§4.12).
func LoadWAVIntoPool(name string, nodeID ids.NodeID, sh *bridge.SessionHandle) (ids.AudioID, error) {
	decoded, err := LoadWAV(name)
	if err != nil {
		return ids.NoAudio, err
	}
	id := sh.AddAudio(nodeID, filepath.Base(name), decoded.SampleRate, decoded.Channels, decoded.Samples)
	return id, nil
}

// intBufferToFloat32 mirrors go-audio/audio's own AsFloat32Buffer scaling
// (sample / 2^(bitDepth-1)) but writes directly into a []float32 rather
// than the library's []float64, since every downstream graphdsp buffer is
// float32.
func intBufferToFloat32(buf *audio.IntBuffer) []float32 {
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (uint(bitDepth) - 1))

	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}
	return out
}
