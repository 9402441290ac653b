// Package allocator implements the engine's linear arena: a bump allocator
// over a fixed backing buffer that never frees individual allocations and
// never grows. Every dynamically sized structure in the core is carved out
// of one of these.
package allocator

import (
	"math"
	"sync/atomic"
	"unsafe"

	"nitrocore/internal/enginelog"
)

// Arena is a linear bump allocator with a fixed capacity. Allocation is
// lock-free and callable from multiple goroutines simultaneously; Reset is
// not and requires the caller hold the only reference to outstanding
// allocations.
//
// Allocations are returned uninitialized (leftover bytes from whatever
// previously occupied that region of the backing buffer before the last
// Reset); callers must initialize before reading, same as Rust's
// MaybeUninit<T> that this design is modeled on.
type Arena struct {
	backing   []byte
	allocated atomic.Uint64
	// saturated flips once per saturation episode so the first failed
	// allocation logs a warning and the rest stay silent until Reset.
	saturated atomic.Bool
	logger    *enginelog.Logger
	name      string
}

// New creates an Arena owning a freshly allocated backing buffer of
// capacity bytes.
func New(capacity int, logger *enginelog.Logger, name string) *Arena {
	return &Arena{
		backing: make([]byte, capacity),
		logger:  logger,
		name:    name,
	}
}

// NewStatic wraps an already-allocated, process-lifetime backing slice
// (typically the contents of a package-level [N]byte array) as an Arena.
// Because the backing memory outlives every allocation from it and the
// counter is the only mutable state, the result is safe to share across
// goroutines for the lifetime of the process. This is the engine's "static
// arena" specialization from the data model: same type, different
// provenance of the backing memory.
func NewStatic(backing []byte, logger *enginelog.Logger, name string) *Arena {
	return &Arena{
		backing: backing,
		logger:  logger,
		name:    name,
	}
}

// Total returns the arena's fixed capacity in bytes.
func (a *Arena) Total() int {
	return len(a.backing)
}

// Allocated returns an estimate of the currently allocated bytes. The
// allocated counter can overshoot capacity once the arena saturates; the
// estimate is clamped to Total().
func (a *Arena) Allocated() int {
	n := a.allocated.Load()
	if n > uint64(len(a.backing)) {
		return len(a.backing)
	}
	return int(n)
}

// Reset reclaims the entire backing buffer for future allocations. The
// caller must ensure no allocation handed out since the last Reset is still
// observable; the arena does not, and cannot, check this itself.
func (a *Arena) Reset() {
	a.allocated.Store(0)
	a.saturated.Store(false)
	a.logger.Logf(enginelog.ComponentArena, enginelog.LevelTrace, "arena %s reset", a.name)
}

// noteSaturation records the transition into the saturated state, once per
// episode. Saturation is sticky until Reset, so repeated failures after the
// first carry no new information.
func (a *Arena) noteSaturation(requested uintptr) {
	if a.saturated.CompareAndSwap(false, true) {
		a.logger.Logf(enginelog.ComponentArena, enginelog.LevelWarn,
			"arena %s saturated: %d bytes requested, %d of %d reserved",
			a.name, requested, a.allocated.Load(), len(a.backing))
	}
}

// Alloc reserves room for count values of T and returns a slice over the
// reservation, or ok=false if it doesn't fit. The reservation still advances
// the allocated counter on failure, so once Alloc fails the arena stays
// saturated until Reset — this trades a rollback compare-exchange for a
// single atomic fetch-add per call.
func Alloc[T any](a *Arena, count int) (out []T, ok bool) {
	if count < 0 {
		return nil, false
	}
	if count == 0 {
		return nil, true
	}

	var zero T
	elemSize := uintptr(unsafe.Sizeof(zero))
	elemAlign := uintptr(unsafe.Alignof(zero))

	if elemSize == 0 {
		// Zero-sized elements occupy no arena space; a plain make carries
		// no backing array either.
		return make([]T, count), true
	}
	if uintptr(count) > math.MaxInt64/elemSize {
		return nil, false
	}
	reserve := uintptr(count)*elemSize + elemAlign - 1

	unalignedOffset := uintptr(a.allocated.Add(uint64(reserve))) - reserve
	if unalignedOffset+reserve > uintptr(len(a.backing)) || unalignedOffset+reserve < unalignedOffset {
		a.noteSaturation(reserve)
		return nil, false
	}

	basePtr := unsafe.Pointer(&a.backing[unalignedOffset])
	extra := uintptr(basePtr) % elemAlign
	var alignPad uintptr
	if extra != 0 {
		alignPad = elemAlign - extra
	}
	alignedOffset := unalignedOffset + alignPad
	if alignedOffset+uintptr(count)*elemSize > uintptr(len(a.backing)) {
		a.noteSaturation(reserve)
		return nil, false
	}

	ptr := unsafe.Pointer(&a.backing[alignedOffset])
	return unsafe.Slice((*T)(ptr), count), true
}

// AllocOne is Alloc specialized to a single value.
func AllocOne[T any](a *Arena) (out *T, ok bool) {
	s, ok := Alloc[T](a, 1)
	if !ok {
		return nil, false
	}
	return &s[0], true
}

// AllocZeroed behaves like Alloc but zeroes the reserved region first, for
// callers that need an all-zero initial state rather than raw leftover
// bytes.
func AllocZeroed[T any](a *Arena, count int) (out []T, ok bool) {
	out, ok = Alloc[T](a, count)
	if !ok {
		return nil, false
	}
	var zero T
	for i := range out {
		out[i] = zero
	}
	return out, true
}
