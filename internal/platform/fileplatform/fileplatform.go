// Package fileplatform is a minimal Platform implementation backing
// read-only devkit tooling (cmd/assetinspector) that only ever needs to
// open a resource database file and read its header and tables — no
// window, no audio device, no input. File reads complete synchronously on
// the calling goroutine via os.File.ReadAt, so IsFileReadFinished is always
// true and FinishFileRead never blocks; this still satisfies the engine's
// three-step begin/poll/finish contract (§6), it just never has a reason to
// return false from the poll.
//
// Grounded on the teacher's devkit file handling (internal/devkit opened
// ROM files directly with os.ReadFile before handing the bytes to the
// compiler) adapted to the engine's explicit FileHandle/FileReadTask state
// machine instead of a one-shot byte slice.
package fileplatform

import (
	"fmt"
	"os"
	"time"

	"nitrocore/internal/platform"
)

// Platform is a synchronous, read-only Platform double for tooling. Outside
// the file-read surface, Draw2D panics, the sprite, audio and input methods
// do nothing or return zero values, DrawScaleFactor and AvailableParallelism
// return 1, SpawnPoolThread runs the worker on a goroutine, and Now and
// Println use the real clock and standard output. This platform is never
// handed to the frame driver.
type Platform struct {
	files      map[platform.FileHandle]*os.File
	nextFileID uint64

	reads      map[uint64]readResult
	nextTaskID uint64
}

type readResult struct {
	buf []byte
	ok  bool
}

// New returns an empty Platform ready to have files opened on it.
func New() *Platform {
	return &Platform{
		files: make(map[platform.FileHandle]*os.File),
		reads: make(map[uint64]readResult),
	}
}

// OpenFile opens path for reading. The returned handle is valid for the
// lifetime of this Platform; there is no Close — the process exits shortly
// after the inspector is done with it.
func (p *Platform) OpenFile(path string) (platform.FileHandle, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	p.nextFileID++
	handle := platform.FileHandle(p.nextFileID)
	p.files[handle] = f
	return handle, true
}

// BeginFileRead performs the read immediately and stashes the result for
// FinishFileRead; IsFileReadFinished on the returned task is always true.
func (p *Platform) BeginFileRead(file platform.FileHandle, firstByte uint64, buffer []byte) platform.FileReadTask {
	p.nextTaskID++
	taskID := p.nextTaskID

	f, ok := p.files[file]
	if !ok {
		p.reads[taskID] = readResult{buf: buffer, ok: false}
		return platform.FileReadTask{File: file, TaskID: taskID}
	}
	n, err := f.ReadAt(buffer, int64(firstByte))
	p.reads[taskID] = readResult{buf: buffer, ok: err == nil && n == len(buffer)}
	return platform.FileReadTask{File: file, TaskID: taskID}
}

func (p *Platform) IsFileReadFinished(task platform.FileReadTask) bool {
	_, ok := p.reads[task.TaskID]
	return ok
}

func (p *Platform) FinishFileRead(task platform.FileReadTask) ([]byte, bool) {
	r, ok := p.reads[task.TaskID]
	if !ok {
		return nil, false
	}
	delete(p.reads, task.TaskID)
	return r.buf, r.ok
}

func (p *Platform) DrawArea() (float32, float32) { return 0, 0 }
func (p *Platform) DrawScaleFactor() float32     { return 1 }
func (p *Platform) Draw2D([]platform.Vertex, []uint32, platform.DrawSettings) {
	panic("fileplatform: Draw2D is not implemented; this platform is for read-only asset introspection")
}
func (p *Platform) CreateSprite(uint16, uint16, platform.PixelFormat) (platform.SpriteRef, bool) {
	return 0, false
}
func (p *Platform) UpdateSprite(platform.SpriteRef, uint16, uint16, uint16, uint16, []byte) {}

func (p *Platform) AvailableParallelism() int { return 1 }
func (p *Platform) SpawnPoolThread(worker func()) {
	go worker()
}

func (p *Platform) UpdateAudioBuffer(int64, []int16) {}
func (p *Platform) AudioPlaybackPosition() (int64, time.Time) {
	return 0, time.Time{}
}

func (p *Platform) InputDevices() []platform.InputDevice { return nil }
func (p *Platform) DefaultButtonForAction(platform.ActionCategory, platform.InputDevice) (platform.Button, bool) {
	return 0, false
}

func (p *Platform) Now() time.Time { return time.Now() }
func (p *Platform) Println(args ...any) {
	fmt.Println(args...)
}
func (p *Platform) Exit(clean bool) {}
