package loadutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, sampleRate, bitDepth, channels int, samples []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func TestLoadWAVDecodesMonoFile(t *testing.T) {
	path := writeTestWAV(t, 48000, 16, 1, []int{0, 16384, -16384, 32767})

	got, err := LoadWAV(path)
	require.NoError(t, err)

	assert.Equal(t, 48000.0, got.SampleRate)
	assert.Equal(t, 1, got.Channels)
	require.Len(t, got.Samples, 4)
	assert.InDelta(t, 0.0, got.Samples[0], 0.001)
	assert.InDelta(t, 0.5, got.Samples[1], 0.001)
	assert.InDelta(t, -0.5, got.Samples[2], 0.001)
	assert.InDelta(t, 1.0, got.Samples[3], 0.001)
}

func TestLoadWAVRejectsMissingFile(t *testing.T) {
	_, err := LoadWAV(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestLoadWAVStereoInterleavesSamples(t *testing.T) {
	path := writeTestWAV(t, 44100, 16, 2, []int{100, -100, 200, -200})

	got, err := LoadWAV(path)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Channels)
	require.Len(t, got.Samples, 4)
}
