package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandoffPublishDeterminism(t *testing.T) {
	h := NewHandoff()

	a := h.WriteSlot()
	a.Reset(0, 512, 120, 48000)
	a.AppendSlice(0, 512)
	h.Publish()

	require.Equal(t, uint64(0), h.Read().BlockStartSample)

	b := h.WriteSlot()
	b.Reset(512, 512, 120, 48000)
	b.AppendSlice(0, 512)
	h.Publish()

	require.Equal(t, uint64(512), h.Read().BlockStartSample, "second consumption must return the second published plan")
}

func TestHandoffNeverObservesTornSlotBetweenPublishes(t *testing.T) {
	h := NewHandoff()
	first := h.WriteSlot()
	first.Reset(0, 256, 100, 44100)
	h.Publish()
	require.Same(t, first, h.Read())
}
