// Package frame implements the per-frame driver: it resets the frame arena,
// expires stale input events, runs the game's frame function, synchronizes
// and renders the mixer, drives the resource loader, and flushes the draw
// queue — the one orchestration point that ties modules A through G
// together into a game loop the platform can call once per iteration.
package frame

import (
	"time"

	"nitrocore/internal/allocator"
	"nitrocore/internal/container"
	"nitrocore/internal/platform"
)

// EventTimeout is how long a queued input event may sit unconsumed before
// the driver drops it.
const EventTimeout = 200 * time.Millisecond

// TimestampedEvent pairs a platform input event with the instant it
// happened, so the queue can expire events the game loop never consumed.
type TimestampedEvent struct {
	Event platform.Event
	Time  time.Time
}

// EventQueue is the bounded FIFO of pending input events the frame driver
// pumps once per iteration. Excess events are dropped by the platform
// before they ever reach here; events that do make it in but age out past
// EventTimeout are dropped by DropExpired.
type EventQueue struct {
	queue *container.Queue[TimestampedEvent]
}

// NewEventQueue carves an EventQueue of the given capacity out of arena.
func NewEventQueue(arena *allocator.Arena, capacity int) (*EventQueue, bool) {
	q, ok := container.NewQueue[TimestampedEvent](arena, capacity)
	if !ok {
		return nil, false
	}
	return &EventQueue{queue: q}, true
}

// Push enqueues an event observed at t. Reports false without modifying the
// queue if it's full — matching the platform's own "excess events dropped"
// policy one level up.
func (q *EventQueue) Push(e platform.Event, t time.Time) bool {
	return q.queue.PushBack(TimestampedEvent{Event: e, Time: t})
}

// Pop removes and returns the oldest queued event, if any.
func (q *EventQueue) Pop() (TimestampedEvent, bool) {
	return q.queue.PopFront()
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int { return q.queue.Len() }

// DropExpired removes every queued event whose timestamp is at least
// EventTimeout behind now. Events expire in FIFO order, so this only ever
// needs to look at the front of the queue.
func (q *EventQueue) DropExpired(now time.Time) {
	for {
		e, ok := q.queue.PeekFront()
		if !ok {
			return
		}
		if now.Sub(e.Time) < EventTimeout {
			return
		}
		q.queue.PopFront()
	}
}
