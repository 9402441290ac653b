// Package scatter implements the engine's scoped scatter/gather session: a
// structured way to split a borrowed slice into contiguous parts, hand each
// part to a worker thread, and reassemble the slice once every part is
// joined. A Scope tracks in-flight parts as a FIFO queue of proxies so that
// force-closing the scope (on exit, or because the caller's closure panicked)
// can join everything still outstanding without knowing the concrete type
// any individual Scatter call was working with — the queue entries are
// closures over the typed TaskHandle, rather than the original's raw
// (pointer, length, proxy) triple, since Go has no use for type-erased
// pointers here that a closure doesn't already cover.
//
// Go has no borrow checker, so unlike the original's 'scope lifetime there
// is nothing stopping a ScatterHandle or the slice behind it from escaping
// past the end of Run's closure. That discipline is the caller's to keep,
// the same way a workerpool.TaskHandle's validity is a caller discipline
// rather than a compiler-enforced one.
package scatter

import (
	"sync/atomic"

	"nitrocore/internal/allocator"
	"nitrocore/internal/container"
	"nitrocore/internal/workerpool"
)

var nextScopeID atomic.Uint64

// proxy tracks one in-flight scattered part, in the order it was submitted.
// join blocks until the underlying task completes (and re-panics if it
// panicked), independent of what T the originating Scatter call used.
type proxy struct {
	scatterPosition uint64
	join            func()
}

// Scope is a single scatter/gather session bound to one Run call. It must
// not be used outside the closure Run passed it to, and must not be shared
// across goroutines.
type Scope struct {
	pool    *workerpool.ThreadPool
	proxies *container.Queue[proxy]

	scatterCount uint64
	scopeID      uint64
}

// ScatterHandle references a slice previously split across worker threads by
// Scatter. It must be passed to Gather exactly once, on the Scope that
// produced it, before the scope ends.
type ScatterHandle[T any] struct {
	scatterPosition uint64
	scopeID         uint64
	data            []T
	// empty marks a zero-length scatter: no parts were spawned, so Gather
	// has nothing to join and succeeds immediately.
	empty bool
}

// Run opens a scatter/gather scope over pool and invokes f with it, using a
// to back the scope's internal proxy queue. Reports ok=false without calling
// f if the pool already has a task outstanding from outside this scope —
// entering a scope requires starting from an otherwise-idle pool, since
// force-joining at scope exit only waits on proxies this scope itself
// tracked.
//
// Whatever proxies remain outstanding when f returns (or panics) are joined
// before Run returns, mirroring the original's force_join-on-drop; a panic
// from f is allowed to propagate only after that join completes.
func Run[T any](pool *workerpool.ThreadPool, a *allocator.Arena, f func(*Scope) T) (result T, ok bool) {
	if pool.HasPending() {
		return result, false
	}

	maxQueued := pool.ThreadCount() * pool.QueueCapacity()
	proxies, ok := container.NewQueue[proxy](a, maxQueued)
	if !ok {
		return result, false
	}

	scope := &Scope{
		pool:    pool,
		proxies: proxies,
		scopeID: nextScopeID.Add(1),
	}

	var panicVal any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicVal = r
			}
		}()
		result = f(scope)
	}()

	scope.forceJoin()

	if panicVal != nil {
		panic(panicVal)
	}
	return result, true
}

// Scatter splits data into contiguous parts of ceil(len(data) / threadCount)
// elements each (at most threadCount parts) and runs fn over each part on its
// own worker thread, sharing data's backing array so fn's writes are visible
// once the handle is gathered. Reports ok=false, touching nothing, if the
// pool has no threads or the scope's proxy queue lacks room for every part.
// Also reports ok=false if a worker's task queue is full; the parts spawned
// before that stay queued in the scope and are joined when the scope ends.
func Scatter[T any](s *Scope, data []T, fn func([]T)) (ScatterHandle[T], bool) {
	threadCount := s.pool.ThreadCount()
	if threadCount == 0 {
		return ScatterHandle[T]{}, false
	}

	if len(data) == 0 {
		// Nothing to split and nothing to run: the round trip is trivially
		// complete. No proxy is queued and no scatter position consumed,
		// so FIFO ordering against real scatter calls is unaffected.
		return ScatterHandle[T]{scopeID: s.scopeID, data: data, empty: true}, true
	}

	lenPerThread := (len(data) + threadCount - 1) / threadCount
	parts := (len(data) + lenPerThread - 1) / lenPerThread
	if s.proxies.SpareCapacity() < parts {
		return ScatterHandle[T]{}, false
	}

	scatterPosition := s.scatterCount
	s.scatterCount++

	remaining := data
	for len(remaining) > 0 {
		n := lenPerThread
		if n > len(remaining) {
			n = len(remaining)
		}
		part := remaining[:n]
		remaining = remaining[n:]

		handle, ok := workerpool.SpawnTask(s.pool, &part, func(p *[]T) { fn(*p) })
		if !ok {
			return ScatterHandle[T]{}, false
		}

		pool := s.pool
		pushed := s.proxies.PushBack(proxy{
			scatterPosition: scatterPosition,
			join: func() {
				if _, ok := workerpool.JoinTask(pool, handle); !ok {
					panic("scatter: proxy join order invariant violated")
				}
			},
		})
		if !pushed {
			return ScatterHandle[T]{}, false
		}
	}

	return ScatterHandle[T]{scatterPosition: scatterPosition, scopeID: s.scopeID, data: data}, true
}

// Gather joins every part scattered under handle, in FIFO order against any
// other scatter call still outstanding on the same scope, and returns the
// original slice once all of them have completed. Reports ok=false, joining
// nothing, if handle's parts aren't at the front of the scope's proxy queue
// yet — gather must be called in the same order the matching Scatter calls
// were made. Panics if handle did not come from this scope.
func Gather[T any](s *Scope, handle ScatterHandle[T]) ([]T, bool) {
	if handle.scopeID != s.scopeID {
		panic("scatter: gather handle was not returned by this scope")
	}
	if handle.empty {
		return handle.data, true
	}

	joinedAny := false
	for {
		front, ok := s.proxies.PeekFront()
		if !ok || front.scatterPosition != handle.scatterPosition {
			break
		}
		front, _ = s.proxies.PopFront()
		front.join()
		joinedAny = true
	}

	if !joinedAny {
		return nil, false
	}
	return handle.data, true
}

// forceJoin joins every proxy still queued, in submission order, regardless
// of which Scatter call produced it.
func (s *Scope) forceJoin() {
	for {
		p, ok := s.proxies.PopFront()
		if !ok {
			return
		}
		p.join()
	}
}
