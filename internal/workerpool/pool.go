// Package workerpool implements the engine's fixed worker thread pool:
// round-robin task assignment over a fixed set of worker goroutines, FIFO
// per-thread task and result channels, and typed task handles backed by a
// type-erased task envelope (the Go analogue of the original's raw
// function-pointer-plus-data-pointer proxy, expressed as a closure instead
// of unsafe pointers since Go's closures already erase the concrete type
// for the channel that carries them).
package workerpool

import (
	"math"
	"runtime"
	"sync"

	"nitrocore/internal/allocator"
	"nitrocore/internal/enginelog"
	"nitrocore/internal/platform"
	"nitrocore/internal/spsc"
)

// envelope is the in-flight task payload carried over each per-thread
// channel pair. It plays the role of the original's type-erased
// (data pointer, function pointer, proxy thunk) triple.
type envelope struct {
	run      func()
	finished bool
	panicVal any
}

type thread struct {
	taskSender     *spsc.Sender[*envelope]
	resultReceiver *spsc.Receiver[*envelope]
	sentCount      uint64
	recvCount      uint64
}

// ThreadPool is a fixed set of worker goroutines, each with its own FIFO
// task queue and FIFO result queue. Tasks submitted to the same thread are
// guaranteed to be joined in submission order; JoinTask requires no
// searching because of that restriction.
type ThreadPool struct {
	mu              sync.Mutex
	nextThreadIndex int
	threads         []*thread
	queueCapacity   int
	logger          *enginelog.Logger
	wg              sync.WaitGroup
}

// TaskHandle references an in-flight task spawned with SpawnTask. It is
// only valid for Join on the ThreadPool that produced it; handing it to a
// different pool is a bug and panics.
type TaskHandle[T any] struct {
	pool         *ThreadPool
	threadIndex  int
	taskPosition uint64
	data         *T
	valid        bool
}

// New constructs a ThreadPool of workerCount workers, each backed by an
// arena-allocated channel pair of the given per-thread queue capacity. The
// platform owns the thread backing: every worker loop is handed to
// p.SpawnPoolThread rather than started by the pool itself. workerCount
// may be zero, in which case SpawnTask always fails — matching a platform
// that reports zero available parallelism.
func New(a *allocator.Arena, p platform.Platform, workerCount, queueCapacity int, logger *enginelog.Logger) (*ThreadPool, bool) {
	pool := &ThreadPool{logger: logger, queueCapacity: queueCapacity}
	pool.threads = make([]*thread, 0, workerCount)

	for i := 0; i < workerCount; i++ {
		taskSender, taskReceiver, ok := spsc.New[*envelope](a, queueCapacity, platform.NewCountingSemaphore())
		if !ok {
			return nil, false
		}
		resultSender, resultReceiver, ok := spsc.New[*envelope](a, queueCapacity, platform.NewCountingSemaphore())
		if !ok {
			return nil, false
		}

		t := &thread{taskSender: taskSender, resultReceiver: resultReceiver}
		pool.threads = append(pool.threads, t)

		pool.wg.Add(1)
		p.SpawnPoolThread(func() {
			pool.workerLoop(taskReceiver, resultSender)
		})
	}

	return pool, true
}

// ThreadCount returns the number of worker goroutines in the pool.
func (p *ThreadPool) ThreadCount() int {
	return len(p.threads)
}

// QueueCapacity returns the per-thread task queue capacity the pool was
// constructed with.
func (p *ThreadPool) QueueCapacity() int {
	return p.queueCapacity
}

// HasPending reports whether any thread has a task that has been sent but
// not yet joined. A scoped scatter/gather session may only begin when this
// is false, so that force-joining at scope exit can't be left waiting on
// work some other caller is still tracking the handle for.
func (p *ThreadPool) HasPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.threads {
		if t.sentCount != t.recvCount {
			return true
		}
	}
	return false
}

func (p *ThreadPool) workerLoop(taskReceiver *spsc.Receiver[*envelope], resultSender *spsc.Sender[*envelope]) {
	defer p.wg.Done()
	for {
		env := taskReceiver.Recv()
		if env == nil {
			return // shutdown sentinel
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					env.panicVal = r
				}
			}()
			env.run()
		}()
		env.finished = true
		for !resultSender.Send(env) {
			// Result queue capacity matches task queue capacity, so this
			// should never spin for long; it exists purely as a backstop.
			runtime.Gosched()
		}
	}
}

// SpawnTask assigns data and fn to the next worker thread in round-robin
// order. Reports ok=false without touching data if the pool has no threads
// or the assigned thread's task queue is full.
func SpawnTask[T any](p *ThreadPool, data *T, fn func(*T)) (TaskHandle[T], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.threads) == 0 {
		return TaskHandle[T]{}, false
	}

	threadIndex := p.nextThreadIndex
	p.nextThreadIndex = (threadIndex + 1) % len(p.threads)

	t := p.threads[threadIndex]
	if t.sentCount == math.MaxUint64 {
		panic("workerpool: sent task count overflowed a uint64")
	}
	taskPosition := t.sentCount

	env := &envelope{run: func() { fn(data) }}
	if !t.taskSender.Send(env) {
		return TaskHandle[T]{}, false
	}
	t.sentCount++

	p.logger.Logf(enginelog.ComponentPool, enginelog.LevelTrace,
		"task %d assigned to thread %d", taskPosition, threadIndex)

	return TaskHandle[T]{pool: p, threadIndex: threadIndex, taskPosition: taskPosition, data: data, valid: true}, true
}

// JoinTask blocks until handle's task completes and returns its data
// pointer, if handle is the next unjoined task on its thread. If another
// task spawned on the same thread is still outstanding ahead of it, returns
// nil and ok=false without joining anything, and the handle stays valid for
// a later JoinTask — tasks must be joined in submission order per thread.
//
// Re-panics with the worker's panic value if the task function panicked,
// so a worker panic surfaces at the joining call site instead of silently
// vanishing on the worker goroutine.
func JoinTask[T any](p *ThreadPool, handle TaskHandle[T]) (*T, bool) {
	if !handle.valid {
		return nil, false
	}
	if handle.pool != p {
		panic("workerpool: task handle was not produced by this pool")
	}

	p.mu.Lock()
	t := p.threads[handle.threadIndex]
	currentRecvCount := t.recvCount
	p.mu.Unlock()

	if handle.taskPosition != currentRecvCount {
		return nil, false
	}

	for {
		env, ok := t.resultReceiver.TryRecv()
		if !ok {
			// Spin: the task is running on another goroutine. Yield so the
			// worker actually gets scheduled even with GOMAXPROCS=1.
			runtime.Gosched()
			continue
		}
		p.mu.Lock()
		t.recvCount++
		p.mu.Unlock()

		if env.panicVal != nil {
			panic(env.panicVal)
		}
		return handle.data, true
	}
}

// Shutdown signals every worker goroutine to stop and waits for them to
// exit. The pool must not be used after Shutdown returns.
func (p *ThreadPool) Shutdown() {
	for _, t := range p.threads {
		for !t.taskSender.Send(nil) {
			// Full task queue: the worker is still draining it, so the
			// shutdown sentinel gets a slot soon.
			runtime.Gosched()
		}
	}
	p.wg.Wait()
}
