package frame

import (
	"nitrocore/internal/allocator"
	"nitrocore/internal/container"
	"nitrocore/internal/platform"
)

// DrawCall is one batch of triangles queued by game logic during a frame,
// to be flushed to the platform at the end of the frame.
type DrawCall struct {
	Vertices []platform.Vertex
	Indices  []uint32
	Settings platform.DrawSettings
}

// DrawQueue is the bounded list of draw calls game logic accumulates during
// a frame before the driver flushes them to the platform. Its backing
// storage must come from a persistent arena (not the per-frame one the
// driver resets), since the queue itself lives across frames; Flush empties
// it after every frame's dispatch.
type DrawQueue struct {
	calls *container.BoundedVector[DrawCall]
}

// NewDrawQueue carves a DrawQueue of the given capacity out of arena.
func NewDrawQueue(arena *allocator.Arena, capacity int) (*DrawQueue, bool) {
	calls, ok := container.NewBoundedVector[DrawCall](arena, capacity)
	if !ok {
		return nil, false
	}
	return &DrawQueue{calls: calls}, true
}

// Push queues a draw call. Reports false without modifying the queue if
// it's full.
func (d *DrawQueue) Push(call DrawCall) bool {
	return d.calls.Push(call)
}

// Len returns the number of queued draw calls.
func (d *DrawQueue) Len() int { return d.calls.Len() }

// Flush sends every queued draw call to the platform, in submission order,
// then empties the queue.
func (d *DrawQueue) Flush(p platform.Platform) {
	for i := 0; i < d.calls.Len(); i++ {
		call := d.calls.At(i)
		p.Draw2D(call.Vertices, call.Indices, call.Settings)
	}
	d.calls.Clear()
}
