// Package testplatform is an in-memory Platform double for tests: files are
// byte slices registered ahead of time, file reads complete after a
// configurable number of polls (default: immediately), sprites are plain
// byte buffers, and the clock is whatever the test sets it to. Grounded on
// the original prototype's TestPlatform, widened to support the
// scatter/loader-relevant paths its todo!()'d stubs never did.
package testplatform

import (
	"fmt"
	"sync"
	"time"

	"nitrocore/internal/platform"
)

type pendingRead struct {
	dst       []byte
	data      []byte
	ok        bool
	pollsLeft int
}

// Platform is a deterministic, single-process Platform implementation
// intended for tests.
type Platform struct {
	mu sync.Mutex

	now time.Time

	files      map[platform.FileHandle][]byte
	nextFileID uint64

	reads      map[uint64]*pendingRead
	nextTaskID uint64
	readDelay  int

	sprites      map[platform.SpriteRef][]byte
	spriteDims   map[platform.SpriteRef][2]uint16
	nextSpriteID uint64

	audioPos     int64
	audioInstant time.Time
	audioBuf     []int16

	parallelism int
	printed     []string
	exited      bool
	exitClean   bool
}

// New returns a Platform with no registered files, parallelism of 2, and the
// clock at the zero time.
func New() *Platform {
	return &Platform{
		files:       make(map[platform.FileHandle][]byte),
		reads:       make(map[uint64]*pendingRead),
		sprites:     make(map[platform.SpriteRef][]byte),
		spriteDims:  make(map[platform.SpriteRef][2]uint16),
		parallelism: 2,
	}
}

// AddFile registers path as readable with the given content, returning its
// handle.
func (p *Platform) AddFile(path string, content []byte) platform.FileHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextFileID++
	h := platform.FileHandle(p.nextFileID)
	p.files[h] = content
	return h
}

// SetReadDelay sets how many IsFileReadFinished polls a read takes before it
// reports finished. Zero (the default) means every read is finished as soon
// as it's begun.
func (p *Platform) SetReadDelay(polls int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readDelay = polls
}

// SetParallelism controls what AvailableParallelism reports.
func (p *Platform) SetParallelism(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parallelism = n
}

// SetNow sets the platform clock.
func (p *Platform) SetNow(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = t
}

// Advance moves the platform clock forward by d.
func (p *Platform) Advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
}

// SetAudioPlaybackPosition sets what AudioPlaybackPosition reports.
func (p *Platform) SetAudioPlaybackPosition(position int64, instant time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.audioPos = position
	p.audioInstant = instant
}

// Printed returns every message passed to Println so far, for assertions.
func (p *Platform) Printed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.printed))
	copy(out, p.printed)
	return out
}

func (p *Platform) DrawArea() (float32, float32) { return 320, 240 }
func (p *Platform) DrawScaleFactor() float32     { return 1 }

func (p *Platform) Draw2D(vertices []platform.Vertex, indices []uint32, settings platform.DrawSettings) {
}

func (p *Platform) CreateSprite(width, height uint16, format platform.PixelFormat) (platform.SpriteRef, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSpriteID++
	ref := platform.SpriteRef(p.nextSpriteID)
	p.sprites[ref] = make([]byte, int(width)*int(height)*4)
	p.spriteDims[ref] = [2]uint16{width, height}
	return ref, true
}

func (p *Platform) UpdateSprite(sprite platform.SpriteRef, xOffset, yOffset, width, height uint16, pixels []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dims, ok := p.spriteDims[sprite]
	if !ok {
		panic("testplatform: UpdateSprite on an unknown sprite")
	}
	buf := p.sprites[sprite]
	stride := int(dims[0]) * 4
	rowBytes := int(width) * 4
	for row := 0; row < int(height); row++ {
		dstOff := (int(yOffset)+row)*stride + int(xOffset)*4
		srcOff := row * rowBytes
		copy(buf[dstOff:dstOff+rowBytes], pixels[srcOff:srcOff+rowBytes])
	}
}

// OpenFile is not exercised by this double: tests register file content
// directly via AddFile and pass the returned handle around instead of a
// path.
func (p *Platform) OpenFile(path string) (platform.FileHandle, bool) {
	return 0, false
}

func (p *Platform) BeginFileRead(file platform.FileHandle, firstByte uint64, buffer []byte) platform.FileReadTask {
	p.mu.Lock()
	defer p.mu.Unlock()

	content, ok := p.files[file]
	var data []byte
	readOK := ok
	if ok {
		end := firstByte + uint64(len(buffer))
		if end > uint64(len(content)) {
			readOK = false
		} else {
			data = make([]byte, len(buffer))
			copy(data, content[firstByte:end])
		}
	}

	p.nextTaskID++
	taskID := p.nextTaskID
	p.reads[taskID] = &pendingRead{dst: buffer, data: data, ok: readOK, pollsLeft: p.readDelay}
	return platform.FileReadTask{File: file, TaskID: taskID}
}

func (p *Platform) IsFileReadFinished(task platform.FileReadTask) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.reads[task.TaskID]
	if !ok {
		return true
	}
	if r.pollsLeft > 0 {
		r.pollsLeft--
		return false
	}
	return true
}

func (p *Platform) FinishFileRead(task platform.FileReadTask) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.reads[task.TaskID]
	if !ok {
		panic("testplatform: FinishFileRead on an unknown task")
	}
	delete(p.reads, task.TaskID)
	if !r.ok {
		return r.dst, false
	}
	copy(r.dst, r.data)
	return r.dst, true
}

func (p *Platform) AvailableParallelism() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parallelism
}

func (p *Platform) SpawnPoolThread(worker func()) {
	go worker()
}

func (p *Platform) UpdateAudioBuffer(firstPosition int64, samples []int16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.audioBuf = append(p.audioBuf[:0], samples...)
}

// LastAudioBuffer returns a copy of the samples most recently passed to
// UpdateAudioBuffer, for assertions on the mixer's output.
func (p *Platform) LastAudioBuffer() []int16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int16, len(p.audioBuf))
	copy(out, p.audioBuf)
	return out
}

func (p *Platform) AudioPlaybackPosition() (int64, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audioPos, p.audioInstant
}

func (p *Platform) InputDevices() []platform.InputDevice {
	return []platform.InputDevice{1234}
}

func (p *Platform) DefaultButtonForAction(action platform.ActionCategory, device platform.InputDevice) (platform.Button, bool) {
	if action == platform.ActionPrimary && device == 1234 {
		return 4321, true
	}
	return 0, false
}

func (p *Platform) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

func (p *Platform) Println(args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printed = append(p.printed, fmt.Sprintln(args...))
}

func (p *Platform) Exit(clean bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exited = true
	p.exitClean = clean
	if !clean {
		panic("testplatform: Exit(false) was called")
	}
}
