package resources

import (
	"fmt"

	"nitrocore/internal/allocator"
	"nitrocore/internal/container"
	"nitrocore/internal/enginelog"
	"nitrocore/internal/platform"
)

// pendingRequest is a queued chunk load that hasn't been dispatched to the
// platform's file-read state machine yet.
type pendingRequest struct {
	index   uint32
	class   ChunkClass
	staging container.RingSlice[byte]
}

// inFlightRead is a dispatched read, waiting at the front of the FIFO for
// Finalize to poll and collect it.
type inFlightRead struct {
	index  uint32
	class  ChunkClass
	handle container.RingHandle
	task   platform.FileReadTask
}

// Loader streams individual resident chunks into a Database's sparse arrays
// from the database file, through a staging ring buffer sized to hold
// several in-flight chunks at once. QueueChunk, Dispatch, and Finalize are
// the loader's only mutating operations. The frame driver calls Dispatch and
// then Finalize once per frame; QueueChunk is called by game logic and the
// mixer, any number of times per frame.
type Loader struct {
	db       *Database
	staging  *container.RingBuffer[byte]
	pending  *container.Queue[pendingRequest]
	inFlight *container.Queue[inFlightRead]
	logger   *enginelog.Logger
}

// NewLoader carves a Loader's staging ring (stagingCapacity bytes), its
// pending FIFO (maxQueued entries), and its in-flight FIFO (maxInFlight
// entries) out of arena. logger may be nil.
func NewLoader(arena *allocator.Arena, db *Database, stagingCapacity, maxQueued, maxInFlight int, logger *enginelog.Logger) (*Loader, bool) {
	staging, ok := container.NewRingBuffer[byte](arena, stagingCapacity)
	if !ok {
		return nil, false
	}
	pending, ok := container.NewQueue[pendingRequest](arena, maxQueued)
	if !ok {
		return nil, false
	}
	inFlight, ok := container.NewQueue[inFlightRead](arena, maxInFlight)
	if !ok {
		return nil, false
	}
	return &Loader{db: db, staging: staging, pending: pending, inFlight: inFlight, logger: logger}, true
}

func (l *Loader) chunkByteSize(class ChunkClass, index uint32) (uint32, bool) {
	switch class {
	case ChunkClassAudio:
		if int(index) >= len(l.db.chunks) {
			return 0, false
		}
		return l.db.chunks[index].Size, true
	case ChunkClassSprite:
		if int(index) >= len(l.db.textureChunks) {
			return 0, false
		}
		return l.db.textureChunks[index].Size, true
	default:
		return 0, false
	}
}

func (l *Loader) chunkFirstByte(class ChunkClass, index uint32) uint64 {
	switch class {
	case ChunkClassAudio:
		return l.db.chunkDataStart + l.db.chunks[index].FirstByte
	case ChunkClassSprite:
		return l.db.chunkDataStart + l.db.textureChunks[index].FirstByte
	default:
		panic("resources: unknown chunk class")
	}
}

func (l *Loader) isResident(index uint32, class ChunkClass) bool {
	switch class {
	case ChunkClassAudio:
		_, ok := l.db.residentAudio.Get(index)
		return ok
	case ChunkClassSprite:
		_, ok := l.db.residentSprites.Get(index)
		return ok
	default:
		return false
	}
}

// QueueChunk requests that chunk index of the given class become resident.
// Rejects (ok=false) a chunk that already is, a duplicate of an
// already-pending request for the same (index, class), or a request that
// can't fit the staging ring or the pending queue right now. A rejected
// request is expected to be re-queued by the caller on a later frame if the
// chunk is still wanted — this is load shedding by design, not an error.
func (l *Loader) QueueChunk(index uint32, class ChunkClass) bool {
	size, ok := l.chunkByteSize(class, index)
	if !ok {
		return false
	}
	if l.isResident(index, class) {
		return false
	}

	head, tail := l.pending.Parts()
	for _, r := range head {
		if r.index == index && r.class == class {
			return false
		}
	}
	for _, r := range tail {
		if r.index == index && r.class == class {
			return false
		}
	}

	if l.pending.IsFull() || !l.staging.WouldFit(int(size)) {
		return false
	}
	handle, ok := l.staging.Allocate(int(size))
	if !ok {
		return false
	}

	return l.pending.PushBack(pendingRequest{
		index:   index,
		class:   class,
		staging: l.staging.Split(handle),
	})
}

// Dispatch pops up to maxCount pending requests and hands each one's
// staging slice to the platform as an asynchronous file read, pushing the
// resulting in-flight task onto the in-flight FIFO. Stops early if the
// in-flight FIFO fills up.
func (l *Loader) Dispatch(p platform.Platform, maxCount int) {
	for i := 0; i < maxCount; i++ {
		if l.inFlight.IsFull() {
			return
		}
		req, ok := l.pending.PopFront()
		if !ok {
			return
		}

		firstByte := l.chunkFirstByte(req.class, req.index)
		task := p.BeginFileRead(l.db.file, firstByte, req.staging.Data)

		l.inFlight.PushBack(inFlightRead{
			index:  req.index,
			class:  req.class,
			handle: req.staging.Rejoin(),
			task:   task,
		})
	}
}

// Finalize polls the front of the in-flight FIFO. If blocking is false, it
// stops as soon as the front task isn't finished yet; if true, it blocks
// until every in-flight read has completed. Every successful read is
// inserted into the database's resident-chunk sparse array for its class; a
// failed read logs a diagnostic and leaves the chunk unloaded. Either way,
// the read's staging slice is freed.
func (l *Loader) Finalize(p platform.Platform, blocking bool) {
	for {
		front, ok := l.inFlight.PeekFront()
		if !ok {
			return
		}
		if !blocking && !p.IsFileReadFinished(front.task) {
			return
		}

		read, _ := l.inFlight.PopFront()
		buffer, readOK := p.FinishFileRead(read.task)

		if readOK {
			l.insertResident(p, read.class, read.index, buffer)
		} else {
			p.Println(fmt.Sprintf("resources: chunk load failed (index=%d class=%d)", read.index, read.class))
			l.logger.Logf(enginelog.ComponentResources, enginelog.LevelError,
				"chunk load failed, dropping request (index=%d class=%d)", read.index, read.class)
		}

		l.staging.Free(read.handle)
	}
}

func (l *Loader) insertResident(p platform.Platform, class ChunkClass, index uint32, buffer []byte) {
	// A second insert for an index that's already mapped would leak its
	// resident slot, so an already-resident chunk is overwritten in place
	// instead.
	switch class {
	case ChunkClassAudio:
		slot, ok := l.db.residentAudio.Get(index)
		if !ok {
			slot, ok = l.db.residentAudio.Insert(index, func() ([]byte, bool) {
				return make([]byte, l.db.chunkSize), true
			})
			if !ok {
				return
			}
		}
		copy(*slot, buffer)
	case ChunkClassSprite:
		desc := l.db.textureChunks[index]
		slot, ok := l.db.residentSprites.Get(index)
		if !ok {
			slot, ok = l.db.residentSprites.Insert(index, func() (platform.SpriteRef, bool) {
				return p.CreateSprite(l.db.spriteWidth, l.db.spriteHeight, l.db.pixelFormat)
			})
			if !ok {
				return
			}
		}
		p.UpdateSprite(*slot, 0, 0, desc.RegionWidth, desc.RegionHeight, buffer)
	}
}
