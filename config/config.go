// Package config loads the engine's construction-time budgets — arena
// sizes, queue lengths, the resource staging buffer, and mixer channel
// count — from a TOML manifest, mirroring how the teacher's devkit tooling
// loads build manifests rather than hardcoding these numbers into main.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Arenas describes the byte size of each top-level arena the engine carves
// its long-lived and per-frame allocations from.
type Arenas struct {
	DatabaseBytes int `toml:"database_bytes"`
	LoaderBytes   int `toml:"loader_bytes"`
	MixerBytes    int `toml:"mixer_bytes"`
	EngineBytes   int `toml:"engine_bytes"`
	FrameBytes    int `toml:"frame_bytes"`
	ScratchBytes  int `toml:"scratch_bytes"`
}

// Pool describes the fixed worker thread pool's shape. A zero ThreadCount
// means "size to the platform": the engine asks the platform for its
// available parallelism at construction instead of pinning a number here.
type Pool struct {
	ThreadCount   int `toml:"thread_count"`
	QueueCapacity int `toml:"queue_capacity"`
}

// Loader describes the resource loader's staging ring and request queues.
type Loader struct {
	StagingBytes   int `toml:"staging_bytes"`
	MaxQueued      int `toml:"max_queued"`
	MaxInFlight    int `toml:"max_in_flight"`
	MaxPerDispatch int `toml:"max_per_dispatch"`
}

// Resources describes the resident-chunk budgets of the two chunk classes.
// Zero for either field means every chunk of that class may be resident at
// once.
type Resources struct {
	ResidentAudioChunks  int `toml:"resident_audio_chunks"`
	ResidentSpriteChunks int `toml:"resident_sprite_chunks"`
}

// Mixer describes the audio mixer's channel and clip budgets.
type Mixer struct {
	ChannelCount    int `toml:"channel_count"`
	MaxPlayingClips int `toml:"max_playing_clips"`
	ScratchSamples  int `toml:"scratch_samples"`
}

// Frame describes the per-frame event and draw queue capacities.
type Frame struct {
	MaxEvents    int `toml:"max_events"`
	MaxDrawCalls int `toml:"max_draw_calls"`
}

// Config is the engine's full construction-time configuration.
type Config struct {
	Arenas    Arenas    `toml:"arenas"`
	Pool      Pool      `toml:"pool"`
	Loader    Loader    `toml:"loader"`
	Resources Resources `toml:"resources"`
	Mixer     Mixer     `toml:"mixer"`
	Frame     Frame     `toml:"frame"`
}

// Default returns the budgets used when no manifest is supplied, sized for
// a small demo game rather than any particular title.
func Default() Config {
	return Config{
		Arenas: Arenas{
			DatabaseBytes: 1 << 20,
			LoaderBytes:   1 << 19,
			MixerBytes:    1 << 16,
			EngineBytes:   1 << 17,
			FrameBytes:    1 << 18,
			ScratchBytes:  1 << 16,
		},
		Pool: Pool{
			ThreadCount:   0,
			QueueCapacity: 16,
		},
		Loader: Loader{
			StagingBytes:   1 << 18,
			MaxQueued:      32,
			MaxInFlight:    8,
			MaxPerDispatch: 8,
		},
		Resources: Resources{
			ResidentAudioChunks:  0,
			ResidentSpriteChunks: 0,
		},
		Mixer: Mixer{
			ChannelCount:    8,
			MaxPlayingClips: 16,
			ScratchSamples:  4096,
		},
		Frame: Frame{
			MaxEvents:    1000,
			MaxDrawCalls: 256,
		},
	}
}

// Load reads and parses a TOML manifest at path, starting from Default and
// overwriting only the fields the manifest sets.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return cfg, nil
}
