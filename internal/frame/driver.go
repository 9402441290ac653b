package frame

import (
	"time"

	"nitrocore/internal/allocator"
	"nitrocore/internal/mixer"
	"nitrocore/internal/platform"
	"nitrocore/internal/resources"
)

// GameFunc is the game's per-frame logic: it consumes queued events, reads
// the resource database, may queue chunk loads and clip playback, and
// queues draw calls. It must not retain frameArena-allocated values past
// the call — the driver resets that arena at the start of the very next
// iteration.
type GameFunc func(frameArena *allocator.Arena, events *EventQueue, db *resources.Database, loader *resources.Loader, mx *mixer.Mixer, draws *DrawQueue)

// MaxChunkDispatchPerFrame bounds how many pending chunk loads Driver.Iterate
// dispatches to the platform in a single frame.
const MaxChunkDispatchPerFrame = 8

// Driver orchestrates one engine frame: arena reset, event expiry, game
// logic, mixer sync, loader dispatch/finalize, audio render, and draw queue
// flush, in that fixed order. It is the single entry point a platform's
// main loop calls once per iteration.
type Driver struct {
	frameArena     *allocator.Arena
	events         *EventQueue
	draws          *DrawQueue
	db             *resources.Database
	loader         *resources.Loader
	mixer          *mixer.Mixer
	game           GameFunc
	dispatchBudget int
}

// New builds a Driver. frameArena is reset at the start of every iteration,
// so nothing outside this package should hold onto allocations from it
// across frames.
func New(
	frameArena *allocator.Arena,
	events *EventQueue,
	draws *DrawQueue,
	db *resources.Database,
	loader *resources.Loader,
	mx *mixer.Mixer,
	game GameFunc,
) *Driver {
	return &Driver{
		frameArena:     frameArena,
		events:         events,
		draws:          draws,
		db:             db,
		loader:         loader,
		mixer:          mx,
		game:           game,
		dispatchBudget: MaxChunkDispatchPerFrame,
	}
}

// SetChunkDispatchBudget overrides how many pending chunk loads each
// Iterate hands to the platform, for callers whose configuration tunes it
// away from MaxChunkDispatchPerFrame. Values below one are ignored.
func (d *Driver) SetChunkDispatchBudget(n int) {
	if n >= 1 {
		d.dispatchBudget = n
	}
}

// Events returns the driver's event queue, so a platform's input callback
// can push events into it between iterations.
func (d *Driver) Events() *EventQueue { return d.events }

// Iterate runs exactly one frame: reset, expire, game logic, mixer sync,
// loader dispatch/finalize, audio render, draw flush. frameTime is the
// instant this iteration began, used both for event expiry and for
// synchronizing the mixer clock.
func (d *Driver) Iterate(p platform.Platform, frameTime time.Time) {
	d.frameArena.Reset()
	d.events.DropExpired(frameTime)

	d.game(d.frameArena, d.events, d.db, d.loader, d.mixer, d.draws)

	d.mixer.UpdateAudioSync(frameTime, p)
	d.loader.Dispatch(p, d.dispatchBudget)
	d.loader.Finalize(p, false)
	d.mixer.Render(p, d.db, d.loader)

	d.draws.Flush(p)
}
