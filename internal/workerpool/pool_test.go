package workerpool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nitrocore/internal/allocator"
	"nitrocore/internal/platform/testplatform"
	"nitrocore/internal/workerpool"
)

func TestSpawnJoinRoundTrip(t *testing.T) {
	a := allocator.New(4096, nil, "test")
	pool, ok := workerpool.New(a, testplatform.New(), 2, 8, nil)
	require.True(t, ok)
	defer pool.Shutdown()

	n := 5
	handle, ok := workerpool.SpawnTask(pool, &n, func(v *int) { *v *= 2 })
	require.True(t, ok)

	result, ok := workerpool.JoinTask(pool, handle)
	require.True(t, ok)
	require.Equal(t, 10, *result)
}

// TestPoolFIFOPerThreadInvariant7: tasks spawned on the same thread must be
// joined in submission order.
func TestPoolFIFOPerThreadInvariant7(t *testing.T) {
	a := allocator.New(4096, nil, "test")
	pool, ok := workerpool.New(a, testplatform.New(), 1, 8, nil)
	require.True(t, ok)
	defer pool.Shutdown()

	var values [3]int
	var handles [3]workerpool.TaskHandle[int]
	for i := range values {
		values[i] = i
		h, ok := workerpool.SpawnTask(pool, &values[i], func(v *int) { *v += 100 })
		require.True(t, ok)
		handles[i] = h
	}

	for i, h := range handles {
		result, ok := workerpool.JoinTask(pool, h)
		require.True(t, ok)
		require.Equal(t, i+100, *result)
	}
}

func TestSpawnTaskFailsWithNoThreads(t *testing.T) {
	a := allocator.New(1024, nil, "test")
	pool, ok := workerpool.New(a, testplatform.New(), 0, 4, nil)
	require.True(t, ok)

	n := 1
	_, ok = workerpool.SpawnTask(pool, &n, func(v *int) {})
	require.False(t, ok)
}

func TestWorkerPanicPropagatesToJoin(t *testing.T) {
	a := allocator.New(1024, nil, "test")
	pool, ok := workerpool.New(a, testplatform.New(), 1, 4, nil)
	require.True(t, ok)
	defer pool.Shutdown()

	n := 0
	handle, ok := workerpool.SpawnTask(pool, &n, func(v *int) {
		panic("boom")
	})
	require.True(t, ok)

	require.Panics(t, func() {
		workerpool.JoinTask(pool, handle)
	})
}

func TestJoinTaskPanicsOnForeignPoolHandle(t *testing.T) {
	a := allocator.New(4096, nil, "test")
	pool0, ok := workerpool.New(a, testplatform.New(), 1, 4, nil)
	require.True(t, ok)
	defer pool0.Shutdown()
	pool1, ok := workerpool.New(a, testplatform.New(), 1, 4, nil)
	require.True(t, ok)
	defer pool1.Shutdown()

	n := 1
	handle, ok := workerpool.SpawnTask(pool0, &n, func(v *int) {})
	require.True(t, ok)

	require.Panics(t, func() {
		workerpool.JoinTask(pool1, handle)
	})

	_, ok = workerpool.JoinTask(pool0, handle)
	require.True(t, ok)
}

func TestRoundRobinAssignment(t *testing.T) {
	a := allocator.New(4096, nil, "test")
	pool, ok := workerpool.New(a, testplatform.New(), 3, 4, nil)
	require.True(t, ok)
	defer pool.Shutdown()

	var vals [6]int
	var handles [6]workerpool.TaskHandle[int]
	for i := range vals {
		vals[i] = i
		h, ok := workerpool.SpawnTask(pool, &vals[i], func(v *int) { *v++ })
		require.True(t, ok)
		handles[i] = h
	}
	for i, h := range handles {
		result, ok := workerpool.JoinTask(pool, h)
		require.True(t, ok)
		require.Equal(t, i+1, *result)
	}
}
