// Package mixer implements the engine's audio mixer: it schedules clip
// playback against the platform's audio clock, mixes resident chunks into
// an output buffer every frame, and prefetches the chunks playback is about
// to need. State is bounded (a fixed-capacity playing-clip vector, a fixed
// per-channel settings vector, a fixed scratch buffer) so render never
// allocates.
//
// Design Philosophy, matching the teacher's own APU:
//   - Deterministic: the same sequence of play_clip/render calls against the
//     same resident chunks always mixes the same samples.
//   - Bounded: a full playing-clip vector degrades by replacing the soonest-
//     to-end clip rather than growing.
//   - Single-threaded: render owns the mixer and the database's resident
//     chunk table exclusively for its duration; no locking inside the mix
//     loop.
package mixer

import (
	"sort"
	"time"

	"nitrocore/internal/allocator"
	"nitrocore/internal/container"
	"nitrocore/internal/platform"
	"nitrocore/internal/resources"
)

const bytesPerSample = 2 // int16

type playingClip struct {
	channel int
	clip    resources.AudioClipHandle
	start   int64
}

type channelSettings struct {
	volume uint8
}

// Mixer holds the currently playing clips and renders mixed audio on
// demand.
type Mixer struct {
	playing  *container.BoundedVector[playingClip]
	channels *container.BoundedVector[channelSettings]
	scratch  []int16 // interleaved, platform.AudioChannels per sample
	position int64
}

// New allocates a Mixer with channelCount channels (each defaulting to full
// volume), room for maxPlayingClips concurrent clips, and a scratch buffer
// of scratchSamples frames (each frame holding platform.AudioChannels
// samples).
func New(arena *allocator.Arena, channelCount, maxPlayingClips, scratchSamples int) (*Mixer, bool) {
	playing, ok := container.NewBoundedVector[playingClip](arena, maxPlayingClips)
	if !ok {
		return nil, false
	}
	channels, ok := container.NewBoundedVector[channelSettings](arena, channelCount)
	if !ok {
		return nil, false
	}
	for i := 0; i < channelCount; i++ {
		channels.Push(channelSettings{volume: 0xFF})
	}
	scratch, ok := allocator.AllocZeroed[int16](arena, scratchSamples*platform.AudioChannels)
	if !ok {
		return nil, false
	}
	return &Mixer{playing: playing, channels: channels, scratch: scratch}, true
}

func clipEnd(db *resources.Database, c playingClip) int64 {
	asset := db.GetAudioClip(c.clip)
	return c.start + int64(asset.SampleCount)
}

// PlayClip starts clip playing on channel from the mixer's current
// position. Reports false if channel is out of range, or the playing-clip
// vector is full and either important is false or there's nothing to evict
// (can't happen with a non-empty vector, but guards an empty one anyway).
// When the vector is full and important is true, the clip nearest to
// finishing is replaced — this may produce an audible pop, accepted in
// exchange for bounded memory.
func (m *Mixer) PlayClip(channel int, clip resources.AudioClipHandle, important bool, db *resources.Database) bool {
	if channel < 0 || channel >= m.channels.Len() {
		return false
	}

	candidate := playingClip{channel: channel, clip: clip, start: m.position}

	if m.playing.Push(candidate) {
		return true
	}
	if !important {
		return false
	}
	if m.playing.IsEmpty() {
		return false
	}

	lowestEnd := clipEnd(db, m.playing.At(0))
	lowestIndex := 0
	for i := 1; i < m.playing.Len(); i++ {
		end := clipEnd(db, m.playing.At(i))
		if end < lowestEnd {
			lowestEnd = end
			lowestIndex = i
		}
	}
	m.playing.SetAt(lowestIndex, candidate)
	return true
}

// SetChannelVolume sets channel's volume, where 0 is silent and 255 is
// unattenuated. Reports false if channel is out of range.
func (m *Mixer) SetChannelVolume(channel int, volume uint8) bool {
	if channel < 0 || channel >= m.channels.Len() {
		return false
	}
	m.channels.SetAt(channel, channelSettings{volume: volume})
	return true
}

// UpdateAudioSync synchronizes the mixer's notion of "where new sounds
// start" with the platform's audio clock. Should be called once at the
// start of each frame.
func (m *Mixer) UpdateAudioSync(frameTime time.Time, p platform.Platform) {
	nextSamplePos, instant := p.AudioPlaybackPosition()
	if frameTime.Before(instant) {
		m.position = nextSamplePos
		return
	}
	delta := frameTime.Sub(instant)
	deltaSamples := delta.Microseconds() * platform.AudioSampleRate / 1_000_000
	m.position = nextSamplePos + deltaSamples
}

// Render mixes every playing clip into the scratch buffer, hands it to the
// platform, and queues the chunks playback is about to need next. Should be
// called once per frame, after game logic has had a chance to call
// PlayClip.
func (m *Mixer) Render(p platform.Platform, db *resources.Database, loader *resources.Loader) {
	playbackStart, _ := p.AudioPlaybackPosition()

	m.dropFinishedClips(db, playbackStart)

	for i := range m.scratch {
		m.scratch[i] = 0
	}

	frameLen := int64(len(m.scratch) / platform.AudioChannels)
	samplesPerChunk := int64(db.ChunkSize()) / (platform.AudioChannels * bytesPerSample)
	if samplesPerChunk <= 0 {
		// A database whose chunks can't hold even one stereo frame has no
		// audio to mix.
		p.UpdateAudioBuffer(playbackStart, m.scratch)
		return
	}

	for i := 0; i < m.playing.Len(); i++ {
		clip := m.playing.At(i)
		if playbackStart < clip.start {
			continue
		}
		volume := int64(m.channels.At(clip.channel).volume)
		asset := db.GetAudioClip(clip.clip)

		offset := playbackStart - clip.start
		end := offset + frameLen
		if end > int64(asset.SampleCount) {
			end = int64(asset.SampleCount)
		}
		if offset >= end {
			continue
		}

		firstChunk := int64(asset.FirstChunk) + offset/samplesPerChunk
		lastChunk := int64(asset.FirstChunk) + (end-1)/samplesPerChunk
		if lastChunk > int64(asset.LastChunk) {
			lastChunk = int64(asset.LastChunk)
		}

		for chunkIndex := firstChunk; chunkIndex <= lastChunk; chunkIndex++ {
			chunkStartSample := (chunkIndex - int64(asset.FirstChunk)) * samplesPerChunk
			chunkEndSample := chunkStartSample + samplesPerChunk

			bytes, resident := db.ResidentAudioChunk(uint32(chunkIndex))
			if !resident {
				continue
			}

			lo := offset
			if chunkStartSample > lo {
				lo = chunkStartSample
			}
			hi := end
			if chunkEndSample < hi {
				hi = chunkEndSample
			}

			for s := lo; s < hi; s++ {
				chunkSampleIndex := s - chunkStartSample
				destIndex := s - offset
				for ch := 0; ch < platform.AudioChannels; ch++ {
					byteOff := (int(chunkSampleIndex)*platform.AudioChannels + ch) * bytesPerSample
					if byteOff+bytesPerSample > len(bytes) {
						continue
					}
					sample := int16(bytes[byteOff]) | int16(bytes[byteOff+1])<<8
					mixed := int64(m.scratch[int(destIndex)*platform.AudioChannels+ch]) + (int64(sample)*volume)/255
					m.scratch[int(destIndex)*platform.AudioChannels+ch] = saturateInt16(mixed)
				}
			}
		}
	}

	p.UpdateAudioBuffer(playbackStart, m.scratch)

	for i := 0; i < m.playing.Len(); i++ {
		clip := m.playing.At(i)
		asset := db.GetAudioClip(clip.clip)
		currentPos := playbackStart - clip.start
		if currentPos < 0 {
			currentPos = 0
		}
		currentChunk := asset.FirstChunk + uint32(currentPos/samplesPerChunk)
		if currentChunk > asset.LastChunk {
			continue
		}
		nextChunk := currentChunk + 1

		loader.QueueChunk(currentChunk, resources.ChunkClassAudio)
		if nextChunk <= asset.LastChunk {
			loader.QueueChunk(nextChunk, resources.ChunkClassAudio)
		}
	}
}

// dropFinishedClips sorts the playing-clip vector by descending end sample
// and truncates it at the first clip whose end sample is before
// playbackStart, dropping the trailing run of finished clips — an
// O(n log n) removal that never reallocates.
func (m *Mixer) dropFinishedClips(db *resources.Database, playbackStart int64) {
	slice := m.playing.Slice()
	sort.Slice(slice, func(i, j int) bool {
		return clipEnd(db, slice[i]) > clipEnd(db, slice[j])
	})

	cut := len(slice)
	for i, c := range slice {
		if clipEnd(db, c) < playbackStart {
			cut = i
			break
		}
	}
	m.playing.Truncate(cut)
}

func saturateInt16(v int64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
