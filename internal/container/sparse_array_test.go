package container_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nitrocore/internal/allocator"
	"nitrocore/internal/container"
)

// TestSparseArrayRoundTripScenarioS9 covers invariant 9: insert then get
// then unload then get, and insert-after-unload reuses the freed slot.
func TestSparseArrayRoundTripScenarioS9(t *testing.T) {
	a := allocator.New(256, nil, "test")
	sa, ok := container.NewSparseArray[int](a, 8, 2)
	require.True(t, ok)

	v, ok := sa.Insert(3, func() (int, bool) { return 42, true })
	require.True(t, ok)
	require.Equal(t, 42, *v)

	got, ok := sa.Get(3)
	require.True(t, ok)
	require.Equal(t, 42, *got)

	sa.Unload(3)
	_, ok = sa.Get(3)
	require.False(t, ok)

	// Insert after unload reuses the freed resident slot rather than
	// consuming more of the bounded resident pool.
	_, ok = sa.Insert(5, func() (int, bool) { return 99, true })
	require.True(t, ok)
	_, ok = sa.Insert(6, func() (int, bool) { return 100, true })
	require.True(t, ok)
	// Resident pool has room for 2; a third distinct insert must fail.
	_, ok = sa.Insert(7, func() (int, bool) { return 101, true })
	require.False(t, ok)
}

func TestSparseArrayInsertDeclinesWhenInitFails(t *testing.T) {
	a := allocator.New(256, nil, "test")
	sa, ok := container.NewSparseArray[int](a, 4, 2)
	require.True(t, ok)

	_, ok = sa.Insert(0, func() (int, bool) { return 0, false })
	require.False(t, ok)
	_, ok = sa.Get(0)
	require.False(t, ok)
}

func TestSparseArrayArrayLen(t *testing.T) {
	a := allocator.New(256, nil, "test")
	sa, ok := container.NewSparseArray[int](a, 16, 4)
	require.True(t, ok)
	require.Equal(t, 16, sa.ArrayLen())
}
