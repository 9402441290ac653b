package container

import (
	"sync/atomic"

	"nitrocore/internal/allocator"
)

var ringBufferIDCounter atomic.Uint64

// RingHandle is an opaque reference to a contiguous run of elements
// allocated from a RingBuffer. Handles are cheap to copy but only valid
// against the RingBuffer that produced them, and must be freed in the
// order they were allocated.
//
// The start/end pair counts monotonically over the buffer's whole lifetime
// rather than wrapping; the physical offset of a run is start modulo the
// buffer's capacity. Keeping the cursors monotonic is what lets Free tell a
// stale handle from the oldest live one even after the buffer has wrapped
// many times. padding records the tail gap this allocation skipped over, so
// freeing it reclaims the gap along with the run itself.
type RingHandle struct {
	start, end uint64
	padding    uint64
	bufferID   uint64
}

// RingBuffer allocates variable-length contiguous runs of T in FIFO order.
// Unlike a general allocator, allocations can't span the end of the backing
// array: if the tail doesn't have room, allocation restarts at offset 0,
// leaving a gap that's reclaimed once the allocations ahead of it free.
type RingBuffer[T any] struct {
	buffer []T
	// Monotonic cursors: allocEnd advances on every Allocate (including the
	// skipped tail gap when an allocation wraps), allocStart advances on
	// every Free. allocEnd - allocStart is the live span, gaps included,
	// and never exceeds len(buffer).
	allocStart uint64
	allocEnd   uint64
	bufferID   uint64
}

// NewRingBuffer carves a RingBuffer of the given capacity out of a. The
// backing storage starts zeroed.
func NewRingBuffer[T any](a *allocator.Arena, capacity int) (*RingBuffer[T], bool) {
	buffer, ok := allocator.AllocZeroed[T](a, capacity)
	if !ok {
		return nil, false
	}
	return &RingBuffer[T]{
		buffer:   buffer,
		bufferID: ringBufferIDCounter.Add(1),
	}, true
}

// fit computes where an allocation of the given length would start (as a
// monotonic cursor) and whether it fits. The two cases are the tail run
// after allocEnd's physical offset, or — when the tail is too short — the
// head at physical offset 0, charging the skipped tail gap to the live
// span. An empty buffer pays no gap: the cursors just move past it, so
// base tracks where the live span would effectively begin.
func (r *RingBuffer[T]) fit(length int) (start, base uint64, ok bool) {
	capacity := uint64(len(r.buffer))
	if capacity == 0 || uint64(length) > capacity {
		return 0, 0, false
	}

	start = r.allocEnd
	base = r.allocStart
	if offset := start % capacity; offset+uint64(length) > capacity {
		// Doesn't fit at the tail: skip the gap and retry from offset 0.
		start += capacity - offset
		if r.allocStart == r.allocEnd {
			base = start
		}
	}
	if start+uint64(length)-base > capacity {
		return 0, 0, false
	}
	return start, base, true
}

// Allocate reserves a contiguous run of length elements, returning the
// handle for it, or ok=false if there's no contiguous free region large
// enough.
func (r *RingBuffer[T]) Allocate(length int) (RingHandle, bool) {
	start, base, ok := r.fit(length)
	if !ok {
		return RingHandle{}, false
	}
	r.allocStart = base
	padding := start - r.allocEnd
	if base == start {
		padding = 0
	}
	end := start + uint64(length)
	r.allocEnd = end
	return RingHandle{start: start, end: end, padding: padding, bufferID: r.bufferID}, true
}

// WouldFit reports whether Allocate(length) would succeed if called right
// now, without actually allocating.
func (r *RingBuffer[T]) WouldFit(length int) bool {
	_, _, ok := r.fit(length)
	return ok
}

// Free reclaims the memory behind h. h must be the oldest outstanding
// allocation; otherwise the handle is returned unchanged and ok is false.
// Panics if h was allocated from a different RingBuffer.
func (r *RingBuffer[T]) Free(h RingHandle) (RingHandle, bool) {
	r.checkIdentity(h)
	if h.start-h.padding != r.allocStart || h.end > r.allocEnd {
		return h, false
	}
	r.allocStart = h.end
	return RingHandle{}, true
}

// GetMut returns the slice backing h. Panics if h was allocated from a
// different RingBuffer.
func (r *RingBuffer[T]) GetMut(h RingHandle) []T {
	r.checkIdentity(h)
	offset := h.start % uint64(len(r.buffer))
	return r.buffer[offset : offset+(h.end-h.start)]
}

func (r *RingBuffer[T]) checkIdentity(h RingHandle) {
	if h.bufferID != r.bufferID {
		panic("container: ring handle was not allocated from this buffer")
	}
}

// RingSlice bundles an allocation's element slice together with the handle
// needed to free it later, mirroring the split-and-rejoin mechanism the
// original engine used to hand ring buffer ownership to a platform task
// (e.g. an asynchronous file read) without holding a borrow of the
// RingBuffer itself for the task's duration.
type RingSlice[T any] struct {
	Data   []T
	Handle RingHandle
}

// Split returns the data slice for h paired with h itself, so the pair can
// travel together to a collaborator (a platform read task, a worker task)
// and be rejoined later.
func (r *RingBuffer[T]) Split(h RingHandle) RingSlice[T] {
	return RingSlice[T]{Data: r.GetMut(h), Handle: h}
}

// Rejoin returns the handle half of a previously Split allocation, ready to
// be passed to Free or GetMut again.
func (s RingSlice[T]) Rejoin() RingHandle {
	return s.Handle
}
