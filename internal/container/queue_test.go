package container_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nitrocore/internal/allocator"
	"nitrocore/internal/container"
)

// TestQueueScenarioS2 is the concrete queue scenario: capacity 3, push
// 0/1/2/3 (last fails with 3), pop yields 0, push 3 succeeds, pop until
// empty yields 1, 2, 3, then nothing.
func TestQueueScenarioS2(t *testing.T) {
	a := allocator.New(64, nil, "test")
	q, ok := container.NewQueue[int](a, 3)
	require.True(t, ok)

	require.True(t, q.PushBack(0))
	require.True(t, q.PushBack(1))
	require.True(t, q.PushBack(2))
	require.False(t, q.PushBack(3))

	v, ok := q.PopFront()
	require.True(t, ok)
	require.Equal(t, 0, v)

	require.True(t, q.PushBack(3))

	for _, want := range []int{1, 2, 3} {
		v, ok := q.PopFront()
		require.True(t, ok)
		require.Equal(t, want, v)
	}
	_, ok = q.PopFront()
	require.False(t, ok)
}

func TestQueuePartsSpanWrap(t *testing.T) {
	a := allocator.New(64, nil, "test")
	q, ok := container.NewQueue[int](a, 3)
	require.True(t, ok)

	require.True(t, q.PushBack(0))
	require.True(t, q.PushBack(1))
	require.True(t, q.PushBack(2))
	_, _ = q.PopFront()
	require.True(t, q.PushBack(3))

	head, tail := q.Parts()
	all := append(append([]int{}, head...), tail...)
	require.Equal(t, []int{1, 2, 3}, all)
}

func TestQueueSpareCapacity(t *testing.T) {
	a := allocator.New(64, nil, "test")
	q, ok := container.NewQueue[int](a, 4)
	require.True(t, ok)
	require.Equal(t, 4, q.SpareCapacity())
	require.True(t, q.PushBack(1))
	require.Equal(t, 3, q.SpareCapacity())
}
