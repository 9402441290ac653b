// Package sdl2 implements platform.Platform on top of SDL2 via go-sdl2:
// a window and accelerated renderer for Draw2D/sprites, SDL's audio queue
// for UpdateAudioBuffer, SDL_scancode-based keyboard input, and a
// goroutine-backed three-step read for the file I/O state machine.
package sdl2

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"nitrocore/internal/enginelog"
	"nitrocore/internal/platform"
)

// pendingRead tracks one in-flight asynchronous read, resolved on its own
// goroutine so BeginFileRead never blocks the caller.
type pendingRead struct {
	done   atomic.Bool
	buffer []byte
	ok     bool
}

// Platform is the SDL2-backed platform.Platform implementation. It owns the
// window, renderer, every created texture, the audio device, and the set
// of in-flight file reads.
type Platform struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	audioDev sdl.AudioDeviceID
	logger   *enginelog.Logger

	scale float32

	mu       sync.Mutex
	files    map[platform.FileHandle]string
	nextFile platform.FileHandle

	textures   map[platform.SpriteRef]*sdl.Texture
	textureDim map[platform.SpriteRef][2]uint16
	nextSprite platform.SpriteRef

	reads    map[uint64]*pendingRead
	nextTask uint64

	playbackPos  int64
	playbackTime time.Time

	devices []platform.InputDevice
	running bool
}

// New opens an SDL2 window of the given size at the given title and wires
// up an audio device. Mirrors the teacher's NewUI: video+audio init, a
// nearest-neighbor render hint for pixel-perfect scaling, an accelerated
// vsync'd renderer, and a best-effort audio device that degrades to
// silence (rather than failing startup) if none is available.
func New(title string, width, height int32, scale float32, logger *enginelog.Logger) (*Platform, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("sdl2: init: %w", err)
	}
	sdl.SetHint(sdl.HINT_RENDER_SCALE_QUALITY, "0")

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		width, height, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl2: create renderer: %w", err)
	}

	audioSpec := sdl.AudioSpec{
		Freq:     platform.AudioSampleRate,
		Format:   sdl.AUDIO_S16LSB,
		Channels: platform.AudioChannels,
		Samples:  735,
	}
	audioDev, err := sdl.OpenAudioDevice("", false, &audioSpec, nil, 0)
	if err != nil {
		logger.Logf(enginelog.ComponentFrame, enginelog.LevelWarn,
			"sdl2: audio device unavailable, continuing silent: %v", err)
		audioDev = 0
	} else {
		sdl.PauseAudioDevice(audioDev, false)
	}

	return &Platform{
		window:     window,
		renderer:   renderer,
		audioDev:   audioDev,
		logger:     logger,
		scale:      scale,
		files:      make(map[platform.FileHandle]string),
		textures:   make(map[platform.SpriteRef]*sdl.Texture),
		textureDim: make(map[platform.SpriteRef][2]uint16),
		reads:      make(map[uint64]*pendingRead),
		devices:    []platform.InputDevice{0},
		running:    true,
	}, nil
}

// Close tears down the audio device, renderer, window, and SDL itself.
func (p *Platform) Close() {
	if p.audioDev != 0 {
		sdl.CloseAudioDevice(p.audioDev)
	}
	for _, t := range p.textures {
		t.Destroy()
	}
	p.renderer.Destroy()
	p.window.Destroy()
	sdl.Quit()
}

// PumpEvents drains SDL's event queue, reporting false once a quit event
// (window close or Escape) has been observed. Platform-specific input
// translation to platform.Event belongs to the caller driving the main
// loop, which has the frame.EventQueue to push into.
func (p *Platform) PumpEvents(onEvent func(sdl.Event)) bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			p.running = false
		}
		if k, ok := event.(*sdl.KeyboardEvent); ok && k.Type == sdl.KEYDOWN && k.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
			p.running = false
		}
		if onEvent != nil {
			onEvent(event)
		}
	}
	return p.running
}

func (p *Platform) DrawArea() (width, height float32) {
	w, h := p.window.GetSize()
	return float32(w), float32(h)
}

func (p *Platform) DrawScaleFactor() float32 { return p.scale }

// Draw2D renders one triangle batch. The teacher's fixed-function renderer
// draws a single full-screen texture; this translates that into a
// textured/untextured triangle list via SDL_RenderGeometry, the closest
// SDL2 primitive to the engine's vertex/index draw call shape.
func (p *Platform) Draw2D(vertices []platform.Vertex, indices []uint32, settings platform.DrawSettings) {
	if len(vertices) == 0 || len(indices) == 0 {
		return
	}
	verts := make([]sdl.Vertex, len(vertices))
	for i, v := range vertices {
		verts[i] = sdl.Vertex{
			Position: sdl.FPoint{X: v.X, Y: v.Y},
			Color:    sdl.Color{R: toByte(v.R), G: toByte(v.G), B: toByte(v.B), A: toByte(v.A)},
			TexCoord: sdl.FPoint{X: v.U, Y: v.V},
		}
	}
	idx := make([]int32, len(indices))
	for i, v := range indices {
		idx[i] = int32(v)
	}
	var texture *sdl.Texture
	if settings.HasSprite {
		p.mu.Lock()
		texture = p.textures[settings.Sprite]
		p.mu.Unlock()
		if texture != nil {
			if settings.Transparent {
				texture.SetBlendMode(sdl.BLENDMODE_BLEND)
			} else {
				texture.SetBlendMode(sdl.BLENDMODE_NONE)
			}
		}
	}
	if err := p.renderer.RenderGeometry(texture, verts, idx); err != nil {
		p.logger.Logf(enginelog.ComponentFrame, enginelog.LevelWarn, "sdl2: RenderGeometry: %v", err)
	}
}

// Present flips the back buffer. Not part of platform.Platform — the
// driver never presents on its own, since a platform may batch several
// Draw2D calls across one DrawQueue.Flush before showing a frame.
func (p *Platform) Present() { p.renderer.Present() }

func toByte(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f * 255)
}

func (p *Platform) CreateSprite(width, height uint16, format platform.PixelFormat) (platform.SpriteRef, bool) {
	// The engine's RGBA8 is r,g,b,a in byte order, which on a little-endian
	// machine is SDL's ABGR8888.
	pixelFormat := uint32(sdl.PIXELFORMAT_ABGR8888)
	_ = format
	texture, err := p.renderer.CreateTexture(pixelFormat, sdl.TEXTUREACCESS_STREAMING, int32(width), int32(height))
	if err != nil {
		p.logger.Logf(enginelog.ComponentFrame, enginelog.LevelError, "sdl2: CreateTexture: %v", err)
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSprite++
	ref := p.nextSprite
	p.textures[ref] = texture
	p.textureDim[ref] = [2]uint16{width, height}
	return ref, true
}

func (p *Platform) UpdateSprite(sprite platform.SpriteRef, xOffset, yOffset, width, height uint16, pixels []byte) {
	p.mu.Lock()
	texture := p.textures[sprite]
	p.mu.Unlock()
	if texture == nil || len(pixels) == 0 {
		return
	}
	rect := &sdl.Rect{X: int32(xOffset), Y: int32(yOffset), W: int32(width), H: int32(height)}
	if err := texture.Update(rect, unsafe.Pointer(&pixels[0]), int(width)*4); err != nil {
		p.logger.Logf(enginelog.ComponentFrame, enginelog.LevelWarn, "sdl2: texture.Update: %v", err)
	}
}

func (p *Platform) OpenFile(path string) (platform.FileHandle, bool) {
	if _, err := os.Stat(path); err != nil {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextFile++
	handle := p.nextFile
	p.files[handle] = path
	return handle, true
}

// BeginFileRead launches the read on its own goroutine and returns
// immediately with a task the caller polls via IsFileReadFinished — the
// same explicit state machine contract platform.Platform documents,
// implemented here with a goroutine standing in for the OS's native async
// I/O (SDL2 itself has none).
func (p *Platform) BeginFileRead(file platform.FileHandle, firstByte uint64, buffer []byte) platform.FileReadTask {
	p.mu.Lock()
	path, ok := p.files[file]
	p.nextTask++
	taskID := p.nextTask
	read := &pendingRead{}
	p.reads[taskID] = read
	p.mu.Unlock()

	if !ok {
		read.done.Store(true)
		return platform.FileReadTask{File: file, TaskID: taskID}
	}

	go func() {
		f, err := os.Open(path)
		if err != nil {
			read.done.Store(true)
			return
		}
		defer f.Close()
		n, err := f.ReadAt(buffer, int64(firstByte))
		if err != nil && n == 0 {
			read.done.Store(true)
			return
		}
		read.buffer = buffer[:n]
		read.ok = true
		read.done.Store(true)
	}()

	return platform.FileReadTask{File: file, TaskID: taskID}
}

func (p *Platform) IsFileReadFinished(task platform.FileReadTask) bool {
	p.mu.Lock()
	read := p.reads[task.TaskID]
	p.mu.Unlock()
	if read == nil {
		return true
	}
	return read.done.Load()
}

func (p *Platform) FinishFileRead(task platform.FileReadTask) (buffer []byte, ok bool) {
	for !p.IsFileReadFinished(task) {
		sdl.Delay(1)
	}
	p.mu.Lock()
	read := p.reads[task.TaskID]
	delete(p.reads, task.TaskID)
	p.mu.Unlock()
	if read == nil {
		return nil, false
	}
	return read.buffer, read.ok
}

func (p *Platform) AvailableParallelism() int {
	n := sdl.GetCPUCount()
	if n < 1 {
		return 1
	}
	return int(n)
}

// SpawnPoolThread backs a pool worker with a goroutine; the Go runtime
// multiplexes those onto OS threads, which is the closest this platform
// has to dedicated pool threads.
func (p *Platform) SpawnPoolThread(worker func()) {
	go worker()
}

// UpdateAudioBuffer interleaves and queues samples with sdl.QueueAudio,
// the same call the teacher's UI uses, translated from its float32 format
// to the mixer's native int16 scratch buffer.
func (p *Platform) UpdateAudioBuffer(firstPosition int64, samples []int16) {
	if p.audioDev == 0 {
		return
	}
	queued := sdl.GetQueuedAudioSize(p.audioDev)
	maxQueued := uint32(len(samples)*2) * 4
	if queued >= maxQueued {
		return
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(uint16(s))
		buf[i*2+1] = byte(uint16(s) >> 8)
	}
	if err := sdl.QueueAudio(p.audioDev, buf); err != nil {
		p.logger.Logf(enginelog.ComponentFrame, enginelog.LevelWarn, "sdl2: QueueAudio: %v", err)
	}
}

// AudioPlaybackPosition reports the position and instant last recorded with
// SetPlaybackAnchor (zero values until then); UpdateAudioBuffer does not
// change them. SDL2 doesn't expose a hardware playback cursor, so the
// mixer's own clock-reconciliation logic (UpdateAudioSync) does the rest.
func (p *Platform) AudioPlaybackPosition() (int64, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playbackPos, p.playbackTime
}

// SetPlaybackAnchor lets the main loop record where/when the most recent
// audio buffer started, ahead of the next UpdateAudioSync call.
func (p *Platform) SetPlaybackAnchor(position int64, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playbackPos = position
	p.playbackTime = at
}

func (p *Platform) InputDevices() []platform.InputDevice { return p.devices }

// DefaultButtonForAction maps generic actions to SDL scancodes for the
// sole keyboard device, mirroring the teacher's arrow-key/Z/X layout
// in handleKeyDown/updateInput.
func (p *Platform) DefaultButtonForAction(action platform.ActionCategory, device platform.InputDevice) (platform.Button, bool) {
	if device != 0 {
		return 0, false
	}
	switch action {
	case platform.ActionDirectionUp:
		return platform.Button(sdl.SCANCODE_UP), true
	case platform.ActionDirectionDown:
		return platform.Button(sdl.SCANCODE_DOWN), true
	case platform.ActionDirectionLeft:
		return platform.Button(sdl.SCANCODE_LEFT), true
	case platform.ActionDirectionRight:
		return platform.Button(sdl.SCANCODE_RIGHT), true
	case platform.ActionPrimary:
		return platform.Button(sdl.SCANCODE_Z), true
	case platform.ActionSecondary:
		return platform.Button(sdl.SCANCODE_X), true
	case platform.ActionMenu:
		return platform.Button(sdl.SCANCODE_ESCAPE), true
	}
	return 0, false
}

func (p *Platform) Now() time.Time { return time.Now() }

func (p *Platform) Println(args ...any) { fmt.Println(args...) }

func (p *Platform) Exit(clean bool) {
	p.running = false
	if !clean {
		os.Exit(1)
	}
}
