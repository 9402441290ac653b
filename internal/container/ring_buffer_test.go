package container_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nitrocore/internal/allocator"
	"nitrocore/internal/container"
)

// TestRingBufferScenarioS3: capacity 10 over u8, allocate 4 (A), allocate 4
// (B), allocate 4 fails, free A, allocate 4 succeeds from offset 0 since
// the tail gap is only 2.
func TestRingBufferScenarioS3(t *testing.T) {
	a := allocator.New(64, nil, "test")
	ring, ok := container.NewRingBuffer[byte](a, 10)
	require.True(t, ok)

	handleA, ok := ring.Allocate(4)
	require.True(t, ok)

	_, ok = ring.Allocate(4)
	require.True(t, ok)

	_, ok = ring.Allocate(4)
	require.False(t, ok, "only 2 bytes left at the tail, should not fit")

	freed, ok := ring.Free(handleA)
	require.True(t, ok)
	require.Equal(t, container.RingHandle{}, freed)

	_, ok = ring.Allocate(4)
	require.True(t, ok, "should wrap to offset 0 now that A is free")
}

func TestRingBufferFreeOutOfOrderLeavesStateUnchanged(t *testing.T) {
	a := allocator.New(64, nil, "test")
	ring, ok := container.NewRingBuffer[byte](a, 10)
	require.True(t, ok)

	handleA, ok := ring.Allocate(2)
	require.True(t, ok)
	handleB, ok := ring.Allocate(2)
	require.True(t, ok)

	returned, ok := ring.Free(handleB)
	require.False(t, ok, "B is not the oldest outstanding allocation")
	require.Equal(t, handleB, returned)

	_, ok = ring.Free(handleA)
	require.True(t, ok)
}

func TestRingBufferPanicsOnWrongBufferIdentity(t *testing.T) {
	a := allocator.New(64, nil, "test")
	ring0, ok := container.NewRingBuffer[byte](a, 4)
	require.True(t, ok)
	ring1, ok := container.NewRingBuffer[byte](a, 4)
	require.True(t, ok)

	h, ok := ring0.Allocate(2)
	require.True(t, ok)

	require.Panics(t, func() {
		ring1.GetMut(h)
	})
}

func TestRingBufferSplitRejoin(t *testing.T) {
	a := allocator.New(64, nil, "test")
	ring, ok := container.NewRingBuffer[byte](a, 8)
	require.True(t, ok)

	h, ok := ring.Allocate(4)
	require.True(t, ok)

	piece := ring.Split(h)
	piece.Data[0] = 0x42

	rejoined := piece.Rejoin()
	require.Equal(t, byte(0x42), ring.GetMut(rejoined)[0])

	_, ok = ring.Free(rejoined)
	require.True(t, ok)
}

// TestRingBufferSurvivesRepeatedCycles drains and refills the ring through
// several wrap-arounds: a staging buffer in steady state does exactly this
// every frame, so an empty ring must always have its full capacity
// available no matter where the cursors ended up.
func TestRingBufferSurvivesRepeatedCycles(t *testing.T) {
	a := allocator.New(64, nil, "test")
	ring, ok := container.NewRingBuffer[byte](a, 10)
	require.True(t, ok)

	for cycle := 0; cycle < 25; cycle++ {
		h, ok := ring.Allocate(7)
		require.Truef(t, ok, "cycle %d: allocation failed on an empty ring", cycle)
		_, ok = ring.Free(h)
		require.Truef(t, ok, "cycle %d: free of the only allocation failed", cycle)
	}
}

// TestRingBufferFreesAcrossWrapGap frees, in FIFO order, a sequence whose
// last allocation wrapped past the end of the backing array: the skipped
// tail gap must be reclaimed together with the allocation that skipped it.
func TestRingBufferFreesAcrossWrapGap(t *testing.T) {
	a := allocator.New(64, nil, "test")
	ring, ok := container.NewRingBuffer[byte](a, 10)
	require.True(t, ok)

	handleA, ok := ring.Allocate(4)
	require.True(t, ok)
	handleB, ok := ring.Allocate(4)
	require.True(t, ok)

	_, ok = ring.Free(handleA)
	require.True(t, ok)

	handleC, ok := ring.Allocate(4) // wraps, leaving a 2-element tail gap
	require.True(t, ok)

	// C is not the oldest outstanding allocation, even though it sits at
	// physical offset 0.
	_, ok = ring.Free(handleC)
	require.False(t, ok)

	_, ok = ring.Free(handleB)
	require.True(t, ok)
	_, ok = ring.Free(handleC)
	require.True(t, ok)

	// Everything freed: the full capacity is available again.
	require.True(t, ring.WouldFit(10))
}

func TestRingBufferWouldFit(t *testing.T) {
	a := allocator.New(64, nil, "test")
	ring, ok := container.NewRingBuffer[byte](a, 10)
	require.True(t, ok)

	require.True(t, ring.WouldFit(10))
	_, ok = ring.Allocate(4)
	require.True(t, ok)
	require.False(t, ring.WouldFit(10))
}
