package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjbrigato/go-vtm/ids"
)

func TestArrangementCreateClipFromAudioSizesLengthByTempo(t *testing.T) {
	a := NewArrangement()
	audioID := a.AudioPool.Add("kick", 48000, 1, make([]float32, 48000)) // 1 second

	clipID, ok := a.CreateClipFromAudio(audioID, 120) // 2 beats/sec at 120bpm
	require.True(t, ok)

	clip, ok := a.Clip(clipID)
	require.True(t, ok)
	assert.InDelta(t, 2.0, clip.Length, 0.01)
	require.Len(t, clip.Events, 1)
	require.NotNil(t, clip.Events[0].Audio)
	assert.Equal(t, audioID, clip.Events[0].Audio.AudioID)
}

func TestArrangementCreateClipFromAudioFailsOnUnknownAudio(t *testing.T) {
	a := NewArrangement()
	_, ok := a.CreateClipFromAudio(ids.AudioID(99), 120)
	assert.False(t, ok)
}

func TestArrangementDeleteClipClearsSlotsPlacementsAndPlaying(t *testing.T) {
	a := NewArrangement()
	scene := a.CreateScene(0, "Scene 1")
	track := a.CreateTrack(0, "Track 1")
	clipID := a.CreateClip("Clip", 4)

	a.SetClipSlot(track.ID, scene.ID, clipID)
	a.ScheduleClip(track.ID, clipID, 0, nil, 0)
	a.LaunchClip(track.ID, clipID)

	a.DeleteClip(clipID)

	slot, occupied := a.GetClipSlot(track.ID, scene.ID)
	assert.Equal(t, ids.NoClip, slot)
	assert.False(t, occupied)
	assert.Empty(t, a.PlacementsInRange(track.ID, 0, 100))
	_, playing := a.PlayingClips[track.ID]
	assert.False(t, playing)
}

func TestArrangementCreateSceneExtendsExistingTrackSlots(t *testing.T) {
	a := NewArrangement()
	track := a.CreateTrack(0, "Track 1")
	require.Empty(t, track.ClipSlots)

	a.CreateScene(0, "Scene 1")
	a.CreateScene(1, "Scene 2")

	assert.Len(t, track.ClipSlots, 2)
	for _, slot := range track.ClipSlots {
		assert.Equal(t, ids.NoClip, slot)
	}
}

func TestArrangementDeleteSceneRemovesCorrespondingSlot(t *testing.T) {
	a := NewArrangement()
	track := a.CreateTrack(0, "Track 1")
	a.CreateScene(0, "Scene 1")
	scene2 := a.CreateScene(1, "Scene 2")
	clipID := a.CreateClip("Clip", 4)
	a.SetClipSlot(track.ID, scene2.ID, clipID)

	a.DeleteScene(ids.SceneID(0))

	require.Len(t, track.ClipSlots, 1)
	assert.Equal(t, clipID, track.ClipSlots[0])
}

func TestArrangementLaunchSceneSetsPlayingClipsFromSlots(t *testing.T) {
	a := NewArrangement()
	trackA := a.CreateTrack(0, "A")
	trackB := a.CreateTrack(1, "B")
	scene := a.CreateScene(0, "Scene 1")
	clipA := a.CreateClip("ClipA", 4)

	a.SetClipSlot(trackA.ID, scene.ID, clipA)
	// trackB's slot stays empty (ids.NoClip)

	a.LaunchScene(scene.ID)

	assert.Equal(t, clipA, a.PlayingClips[trackA.ID])
	_, playing := a.PlayingClips[trackB.ID]
	assert.False(t, playing)
	assert.Equal(t, scene.ID, a.ActiveScene)
}

func TestArrangementIsTrackAudibleRespectsMuteAndSolo(t *testing.T) {
	a := NewArrangement()
	trackA := a.CreateTrack(0, "A")
	trackB := a.CreateTrack(1, "B")

	assert.True(t, a.IsTrackAudible(trackA.ID))

	a.SetTrackMute(trackA.ID, true)
	assert.False(t, a.IsTrackAudible(trackA.ID))
	a.SetTrackMute(trackA.ID, false)

	a.SetTrackSolo(trackB.ID, true)
	assert.False(t, a.IsTrackAudible(trackA.ID))
	assert.True(t, a.IsTrackAudible(trackB.ID))
}

func TestArrangementPlacementsInRangeUsesClipLengthWhenEndBeatNil(t *testing.T) {
	a := NewArrangement()
	track := a.CreateTrack(0, "A")
	clipID := a.CreateClip("Clip", 4)
	a.ScheduleClip(track.ID, clipID, 10, nil, 0)

	inRange := a.PlacementsInRange(track.ID, 12, 20)
	require.Len(t, inRange, 1)

	outOfRange := a.PlacementsInRange(track.ID, 14, 20)
	assert.Empty(t, outOfRange)
}
