// Package spsc implements the engine's single-producer single-consumer
// channel: a lock-free bounded queue over arena-supplied backing storage,
// paired with a platform semaphore for blocking receive. Ownership of
// write_offset belongs exclusively to the Sender and read_offset
// exclusively to the Receiver; the pair of atomics plus the semaphore fully
// serialize the handoff of each slot between the two sides.
package spsc

import (
	"sync/atomic"

	"nitrocore/internal/allocator"
	"nitrocore/internal/platform"
)

type slot[T any] struct {
	value T
}

type shared[T any] struct {
	slots       []slot[T]
	readOffset  atomic.Uint64
	writeOffset atomic.Uint64
	sem         platform.Semaphore
}

// Sender is the write endpoint of a channel. A channel has exactly one
// Sender; it must not be used from more than one goroutine at a time.
type Sender[T any] struct {
	ch *shared[T]
}

// Receiver is the read endpoint of a channel. A channel has exactly one
// Receiver; it must not be used from more than one goroutine at a time.
type Receiver[T any] struct {
	ch *shared[T]
}

// New carves a channel with room for capacity buffered elements out of a,
// using sem as the blocking-receive signal. capacity may be zero, in which
// case every Send and TryRecv on the resulting channel fails and Recv never
// returns a value (it panics on a single-threaded semaphore and blocks on a
// counting one) — this keeps the type total rather than special-casing a
// zero-capacity construction as an error.
func New[T any](a *allocator.Arena, capacity int, sem platform.Semaphore) (*Sender[T], *Receiver[T], bool) {
	slots, ok := allocator.AllocZeroed[slot[T]](a, capacity+1)
	if !ok {
		return nil, nil, false
	}
	ch := &shared[T]{slots: slots, sem: sem}
	return &Sender[T]{ch: ch}, &Receiver[T]{ch: ch}, true
}

// Send pushes value onto the channel. Reports false without blocking if
// the channel is full (or has zero capacity).
func (s *Sender[T]) Send(value T) bool {
	n := uint64(len(s.ch.slots))
	if n <= 1 {
		return false
	}

	read := s.ch.readOffset.Load()
	write := s.ch.writeOffset.Load()
	next := (write + 1) % n

	if next == read {
		return false
	}

	s.ch.slots[write].value = value
	s.ch.sem.Increment()
	s.ch.writeOffset.Store(next)
	return true
}

// TryRecv pops the oldest value on the channel, if any, without blocking.
func (r *Receiver[T]) TryRecv() (value T, ok bool) {
	value, ok = r.recvImpl()
	if !ok {
		return value, false
	}
	r.ch.sem.Decrement()
	return value, true
}

// Recv blocks on the channel's semaphore until a value is available, then
// returns it. Panics if the semaphore releases but no value turns out to
// be available — on a single-threaded (no-op) semaphore this indicates a
// receive with no matching send, which would otherwise hang forever.
func (r *Receiver[T]) Recv() T {
	r.ch.sem.Decrement()
	value, ok := r.recvImpl()
	if !ok {
		panic("spsc: recv woke up but the channel was empty (missing send?)")
	}
	return value
}

func (r *Receiver[T]) recvImpl() (value T, ok bool) {
	n := uint64(len(r.ch.slots))
	if n <= 1 {
		return value, false
	}

	write := r.ch.writeOffset.Load()
	read := r.ch.readOffset.Load()
	if read == write {
		return value, false
	}

	value = r.ch.slots[read].value
	var zero T
	r.ch.slots[read].value = zero

	next := (read + 1) % n
	r.ch.readOffset.Store(next)
	return value, true
}
