// Package platform defines the collaborator contract the engine core polls
// and drives but never implements itself: drawing, file I/O completion,
// semaphores, thread spawning, the audio device, input devices, and the
// monotonic clock. Concrete implementations live in sibling packages
// (platform/sdl2 for a real window and audio device, platform/testplatform
// for an in-memory double used by tests).
package platform

import "sync"

// Semaphore is a counting semaphore: Increment never blocks, Decrement
// blocks until the count is positive and then consumes one count.
type Semaphore interface {
	Increment()
	Decrement()
}

// CountingSemaphore is a general-purpose blocking Semaphore backed by a
// condition variable, suitable for a real multi-threaded platform.
type CountingSemaphore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int
}

// NewCountingSemaphore creates a CountingSemaphore starting at zero.
func NewCountingSemaphore() *CountingSemaphore {
	s := &CountingSemaphore{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Increment adds one to the count and wakes a blocked waiter, if any.
func (s *CountingSemaphore) Increment() {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	s.cond.Signal()
}

// Decrement blocks until the count is positive, then consumes one count.
func (s *CountingSemaphore) Decrement() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.count <= 0 {
		s.cond.Wait()
	}
	s.count--
}

// SingleThreadedSemaphore is a no-op Semaphore for platforms (and tests)
// that never hand channel endpoints to separate threads. Its Decrement
// panics instead of blocking forever, since on a single thread a blocking
// wait with no other thread to perform the matching Increment is a bug,
// not a valid program state.
type SingleThreadedSemaphore struct {
	count int
}

// Increment adds one to the count.
func (s *SingleThreadedSemaphore) Increment() {
	s.count++
}

// Decrement consumes one count, panicking if the count is already zero.
func (s *SingleThreadedSemaphore) Decrement() {
	if s.count <= 0 {
		panic("platform: single-threaded semaphore decremented without a matching increment")
	}
	s.count--
}
