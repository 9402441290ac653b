package main

import (
	"nitrocore/internal/allocator"
	"nitrocore/internal/frame"
	"nitrocore/internal/mixer"
	"nitrocore/internal/platform"
	"nitrocore/internal/resources"
	"nitrocore/internal/scatter"
	"nitrocore/internal/workerpool"
)

// demoPool is the worker pool main constructs from the platform's thread
// backing; the frame function fans the starfield update out over it. A
// real game would carry this in its own state struct threaded through
// closures; a demo keeps it as package state for brevity, same as the
// sprite position below.
var demoPool *workerpool.ThreadPool

var (
	spriteX, spriteY float32 = 32, 32
	spriteRef        platform.SpriteRef
	spriteLoaded     bool
)

const moveSpeed = 2

type star struct {
	x, y  float32
	speed float32
}

const starCount = 96

var stars [starCount]star
var starsSeeded bool

func seedStars() {
	for i := range stars {
		stars[i] = star{
			x:     float32((i * 97) % 320),
			y:     float32((i * 53) % 200),
			speed: 0.5 + float32(i%5)*0.4,
		}
	}
	starsSeeded = true
}

// advanceStars scrolls one contiguous part of the starfield left, wrapping
// at the screen edge. Each part is touched by exactly one worker, so no
// two workers ever write the same star.
func advanceStars(part []star) {
	for i := range part {
		part[i].x -= part[i].speed
		if part[i].x < 0 {
			part[i].x += 320
		}
	}
}

// demoGameFrame is the engine's GameFunc: it walks queued input events,
// moves a sprite, scatters the starfield update across the worker pool,
// and queues draw calls for both.
func demoGameFrame(
	frameArena *allocator.Arena,
	events *frame.EventQueue,
	db *resources.Database,
	loader *resources.Loader,
	mx *mixer.Mixer,
	draws *frame.DrawQueue,
) {
	for {
		e, ok := events.Pop()
		if !ok {
			break
		}
		if e.Event.Kind != platform.EventButtonDown {
			continue
		}
		moved := true
		switch e.Event.Button {
		case 82: // SCANCODE_UP
			spriteY -= moveSpeed
		case 81: // SCANCODE_DOWN
			spriteY += moveSpeed
		case 80: // SCANCODE_LEFT
			spriteX -= moveSpeed
		case 79: // SCANCODE_RIGHT
			spriteX += moveSpeed
		default:
			moved = false
		}
		if moved {
			if clip, ok := db.FindAudioClip("step"); ok {
				mx.PlayClip(0, clip, false, db)
			}
		}
	}

	if !starsSeeded {
		seedStars()
	}
	if demoPool != nil && demoPool.ThreadCount() > 0 {
		scatter.Run(demoPool, frameArena, func(s *scatter.Scope) struct{} {
			if handle, ok := scatter.Scatter(s, stars[:], advanceStars); ok {
				scatter.Gather(s, handle)
			}
			return struct{}{}
		})
	} else {
		advanceStars(stars[:])
	}
	queueStarDraw(frameArena, draws)

	if !spriteLoaded {
		if handle, ok := db.FindSprite("player"); ok {
			asset := db.GetSprite(handle)
			if asset.MipCount > 0 {
				chunk := asset.Mips[0].FirstChunk
				loader.QueueChunk(chunk, resources.ChunkClassSprite)
				if ref, ok := db.ResidentSprite(chunk); ok {
					spriteRef = ref
					spriteLoaded = true
				}
			}
		}
	}

	const size = 16
	vertices := []platform.Vertex{
		{X: spriteX, Y: spriteY, U: 0, V: 0, R: 1, G: 1, B: 1, A: 1},
		{X: spriteX + size, Y: spriteY, U: 1, V: 0, R: 1, G: 1, B: 1, A: 1},
		{X: spriteX + size, Y: spriteY + size, U: 1, V: 1, R: 1, G: 1, B: 1, A: 1},
		{X: spriteX, Y: spriteY + size, U: 0, V: 1, R: 1, G: 1, B: 1, A: 1},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	draws.Push(frame.DrawCall{
		Vertices: vertices,
		Indices:  indices,
		Settings: platform.DrawSettings{Sprite: spriteRef, HasSprite: spriteLoaded},
	})
}

// queueStarDraw builds one untextured quad per star into the frame arena
// and queues them as a single draw call. The vertex and index slices live
// only until the next frame's arena reset, which is exactly as long as the
// draw queue needs them.
func queueStarDraw(frameArena *allocator.Arena, draws *frame.DrawQueue) {
	vertices, ok := allocator.Alloc[platform.Vertex](frameArena, starCount*4)
	if !ok {
		return
	}
	indices, ok := allocator.Alloc[uint32](frameArena, starCount*6)
	if !ok {
		return
	}

	for i, s := range stars {
		brightness := 0.4 + s.speed/4
		for corner := 0; corner < 4; corner++ {
			dx := float32(corner & 1)
			dy := float32(corner >> 1)
			vertices[i*4+corner] = platform.Vertex{
				X: s.x + dx, Y: s.y + dy,
				R: brightness, G: brightness, B: brightness, A: 1,
			}
		}
		base := uint32(i * 4)
		copy(indices[i*6:i*6+6], []uint32{base, base + 1, base + 2, base + 1, base + 3, base + 2})
	}

	draws.Push(frame.DrawCall{
		Vertices: vertices,
		Indices:  indices,
		Settings: platform.DrawSettings{},
	})
}
