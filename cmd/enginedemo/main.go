// Command enginedemo is a minimal playable wiring of the engine core: it
// loads a resource database, drives the frame loop over a real SDL2
// window, and bounces a single sprite around the screen in response to
// directional input, to prove out every module end to end.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"nitrocore/config"
	"nitrocore/internal/allocator"
	"nitrocore/internal/enginelog"
	"nitrocore/internal/frame"
	"nitrocore/internal/mixer"
	"nitrocore/internal/platform"
	sdl2platform "nitrocore/internal/platform/sdl2"
	"nitrocore/internal/resources"
	"nitrocore/internal/workerpool"
)

func main() {
	romPath := flag.String("assets", "", "Path to a .rdb resource database")
	configPath := flag.String("config", "", "Path to an engine.toml manifest (optional)")
	scale := flag.Int("scale", 3, "Display scale (1-6)")
	flag.Parse()

	if *romPath == "" {
		fmt.Println("Usage: enginedemo -assets <path-to.rdb>")
		fmt.Println("  -assets <path>   Path to a resource database (.rdb)")
		fmt.Println("  -config <path>   Path to an engine.toml manifest (optional)")
		fmt.Println("  -scale <1-6>     Display scale (default: 3)")
		os.Exit(1)
	}
	if *scale < 1 || *scale > 6 {
		fmt.Fprintln(os.Stderr, "Error: scale must be between 1 and 6")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := enginelog.New(512)

	p, err := sdl2platform.New("Engine Demo", int32(320**scale), int32(200**scale), float32(*scale), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating platform: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()
	// Warnings and errors (arena saturation, chunk load failures) surface
	// on the platform's console even when nothing polls the log ring.
	logger.SetSink(func(line string) { p.Println(line) })

	file, ok := p.OpenFile(*romPath)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error opening %s\n", *romPath)
		os.Exit(1)
	}

	dbArena := allocator.New(cfg.Arenas.DatabaseBytes, logger, "database")
	tmpArena := allocator.New(cfg.Arenas.ScratchBytes, logger, "database-scratch")
	db, ok := resources.OpenDatabase(p, dbArena, tmpArena, file, resources.ResidentBudget{
		AudioChunks:  cfg.Resources.ResidentAudioChunks,
		SpriteChunks: cfg.Resources.ResidentSpriteChunks,
	})
	if !ok {
		fmt.Fprintf(os.Stderr, "Error reading resource database %s\n", *romPath)
		os.Exit(1)
	}

	loaderArena := allocator.New(cfg.Arenas.LoaderBytes, logger, "loader")
	loader, ok := resources.NewLoader(loaderArena, db, cfg.Loader.StagingBytes, cfg.Loader.MaxQueued, cfg.Loader.MaxInFlight, logger)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error constructing resource loader")
		os.Exit(1)
	}

	mixerArena := allocator.New(cfg.Arenas.MixerBytes, logger, "mixer")
	mx, ok := mixer.New(mixerArena, cfg.Mixer.ChannelCount, cfg.Mixer.MaxPlayingClips, cfg.Mixer.ScratchSamples)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error constructing audio mixer")
		os.Exit(1)
	}

	// The event and draw queues outlive individual frames (the platform
	// pushes input events between iterations), so they come from their own
	// persistent arena; the frame arena is reset by the driver every
	// iteration and backs only per-frame scratch.
	engineArena := allocator.New(cfg.Arenas.EngineBytes, logger, "engine")
	events, ok := frame.NewEventQueue(engineArena, cfg.Frame.MaxEvents)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error constructing event queue")
		os.Exit(1)
	}
	draws, ok := frame.NewDrawQueue(engineArena, cfg.Frame.MaxDrawCalls)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error constructing draw queue")
		os.Exit(1)
	}

	// The worker pool's thread backing belongs to the platform: the pool
	// builds its channels here, but every worker loop runs on a thread the
	// platform spawned. A zero thread_count in the manifest defers to
	// whatever parallelism the platform reports.
	threadCount := cfg.Pool.ThreadCount
	if threadCount <= 0 {
		threadCount = p.AvailableParallelism()
	}
	pool, ok := workerpool.New(engineArena, p, threadCount, cfg.Pool.QueueCapacity, logger)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error constructing worker pool")
		os.Exit(1)
	}
	defer pool.Shutdown()
	demoPool = pool

	frameArena := allocator.New(cfg.Arenas.FrameBytes, logger, "frame")

	driver := frame.New(frameArena, events, draws, db, loader, mx, demoGameFrame)
	driver.SetChunkDispatchBudget(cfg.Loader.MaxPerDispatch)

	fmt.Println("Engine Demo")
	fmt.Println("===========")
	fmt.Printf("Assets loaded: %s\n", *romPath)
	fmt.Printf("Display scale: %dx\n", *scale)
	fmt.Println("Arrow keys to move, Escape to quit.")

	device := p.InputDevices()[0]
	for {
		keepRunning := p.PumpEvents(func(e sdl.Event) {
			key, ok := e.(*sdl.KeyboardEvent)
			if !ok {
				return
			}
			button := platform.Button(key.Keysym.Scancode)
			kind := platform.EventButtonDown
			if key.Type == sdl.KEYUP {
				kind = platform.EventButtonUp
			}
			driver.Events().Push(platform.Event{Kind: kind, Device: device, Button: button}, p.Now())
		})
		if !keepRunning {
			break
		}

		now := time.Now()
		driver.Iterate(p, now)
		p.Present()
		sdl.Delay(16)
	}
}
