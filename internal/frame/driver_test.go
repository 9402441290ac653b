package frame_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nitrocore/internal/allocator"
	"nitrocore/internal/frame"
	"nitrocore/internal/mixer"
	"nitrocore/internal/platform"
	"nitrocore/internal/platform/testplatform"
	"nitrocore/internal/resources"
)

func buildEmptyDatabase() []byte {
	header := resources.Header{Magic: resources.MagicNumber, ChunkSize: 64}
	return resources.SerializeHeader(header)
}

func newTestDriver(t *testing.T) (*frame.Driver, *testplatform.Platform, *frame.DrawQueue, *bool) {
	t.Helper()
	p := testplatform.New()
	file := p.AddFile("empty.rdb", buildEmptyDatabase())

	dbArena := allocator.New(1<<16, nil, "db")
	tmpArena := allocator.New(1<<16, nil, "tmp")
	db, ok := resources.OpenDatabase(p, dbArena, tmpArena, file, resources.ResidentBudget{})
	require.True(t, ok)

	loaderArena := allocator.New(1<<16, nil, "loader")
	loader, ok := resources.NewLoader(loaderArena, db, 4096, 8, 8, nil)
	require.True(t, ok)

	mixerArena := allocator.New(1<<16, nil, "mixer")
	mx, ok := mixer.New(mixerArena, 1, 4, 16)
	require.True(t, ok)

	engineArena := allocator.New(1<<16, nil, "engine")
	events, ok := frame.NewEventQueue(engineArena, 8)
	require.True(t, ok)
	draws, ok := frame.NewDrawQueue(engineArena, 8)
	require.True(t, ok)

	frameArena := allocator.New(1<<16, nil, "frame")

	called := false
	d := frame.New(frameArena, events, draws, db, loader, mx, func(
		_ *allocator.Arena,
		_ *frame.EventQueue,
		_ *resources.Database,
		_ *resources.Loader,
		_ *mixer.Mixer,
		dq *frame.DrawQueue,
	) {
		called = true
		dq.Push(frame.DrawCall{})
	})
	return d, p, draws, &called
}

func TestIterateRunsGameFunctionAndFlushesDraws(t *testing.T) {
	d, p, draws, called := newTestDriver(t)

	now := time.Unix(0, 0)
	p.SetAudioPlaybackPosition(0, now)
	d.Iterate(p, now)

	require.True(t, *called)
	require.Equal(t, 0, d.Events().Len())
	require.Equal(t, 0, draws.Len(), "the game's draw call must be flushed by the end of the frame")
}

// TestIterateExpiresEventsPastTimeout exercises invariant 10: an event
// queued at t0 and never consumed is gone by the next frame whose
// timestamp t satisfies t - t0 >= 200ms.
func TestIterateExpiresEventsPastTimeout(t *testing.T) {
	d, p, _, _ := newTestDriver(t)

	t0 := time.Unix(0, 0)
	d.Events().Push(platform.Event{Kind: platform.EventButtonDown}, t0)
	require.Equal(t, 1, d.Events().Len())

	p.SetAudioPlaybackPosition(0, t0)
	d.Iterate(p, t0.Add(199*time.Millisecond))
	require.Equal(t, 1, d.Events().Len(), "event should still be live just under the timeout")

	d.Iterate(p, t0.Add(200*time.Millisecond))
	require.Equal(t, 0, d.Events().Len(), "event should expire at exactly the timeout")
}

func TestIterateRunsInSpecifiedOrder(t *testing.T) {
	p := testplatform.New()
	file := p.AddFile("empty.rdb", buildEmptyDatabase())

	dbArena := allocator.New(1<<16, nil, "db")
	tmpArena := allocator.New(1<<16, nil, "tmp")
	db, ok := resources.OpenDatabase(p, dbArena, tmpArena, file, resources.ResidentBudget{})
	require.True(t, ok)

	loaderArena := allocator.New(1<<16, nil, "loader")
	loader, ok := resources.NewLoader(loaderArena, db, 4096, 8, 8, nil)
	require.True(t, ok)

	mixerArena := allocator.New(1<<16, nil, "mixer")
	mx, ok := mixer.New(mixerArena, 1, 4, 16)
	require.True(t, ok)

	engineArena := allocator.New(1<<16, nil, "engine")
	events, ok := frame.NewEventQueue(engineArena, 8)
	require.True(t, ok)
	draws, ok := frame.NewDrawQueue(engineArena, 8)
	require.True(t, ok)

	frameArena := allocator.New(1<<16, nil, "frame")

	var order []string
	d := frame.New(frameArena, events, draws, db, loader, mx, func(
		_ *allocator.Arena,
		ev *frame.EventQueue,
		_ *resources.Database,
		_ *resources.Loader,
		_ *mixer.Mixer,
		_ *frame.DrawQueue,
	) {
		order = append(order, "game")
		require.Equal(t, 0, frameArena.Allocated(), "the frame arena must be reset before game logic runs")
		require.Equal(t, 0, ev.Len(), "expired events must be gone before game logic runs")
		require.Empty(t, p.LastAudioBuffer(), "audio must not be rendered before game logic runs")
	})

	now := time.Unix(0, 0)
	_, ok = allocator.Alloc[byte](frameArena, 64)
	require.True(t, ok)
	events.Push(platform.Event{Kind: platform.EventButtonDown}, now.Add(-frame.EventTimeout))
	p.SetAudioPlaybackPosition(0, now)
	d.Iterate(p, now)

	require.Equal(t, []string{"game"}, order)
	require.Len(t, p.LastAudioBuffer(), 16*platform.AudioChannels, "audio is rendered after game logic")
}
