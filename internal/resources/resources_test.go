package resources_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nitrocore/internal/allocator"
	"nitrocore/internal/platform/testplatform"
	"nitrocore/internal/resources"
)

func buildTestDatabase(t *testing.T, chunkPayloads [][]byte) []byte {
	t.Helper()

	header := resources.Header{
		Magic:      resources.MagicNumber,
		ChunkSize:  uint32(len(chunkPayloads[0])),
		Chunks:     uint32(len(chunkPayloads)),
	}
	buf := resources.SerializeHeader(header)

	firstByte := uint64(0)
	for _, payload := range chunkPayloads {
		buf = append(buf, resources.SerializeChunkDescriptor(resources.ChunkDescriptor{
			FirstByte: firstByte,
			Size:      uint32(len(payload)),
		})...)
		firstByte += uint64(len(payload))
	}

	for _, payload := range chunkPayloads {
		buf = append(buf, payload...)
	}
	return buf
}

func openTestDatabase(t *testing.T, p *testplatform.Platform, fileBytes []byte) *resources.Database {
	t.Helper()
	file := p.AddFile("test.rdb", fileBytes)
	a := allocator.New(1<<16, nil, "db")
	tmp := allocator.New(1<<16, nil, "tmp")
	db, ok := resources.OpenDatabase(p, a, tmp, file, resources.ResidentBudget{})
	require.True(t, ok)
	return db
}

// TestLoaderScenarioS6 loads three 100-byte audio chunks through a 250-byte
// staging ring: the first two fit and dispatch/finalize immediately; the
// third is rejected at queue time (won't fit) until a staging slice frees
// up, at which point re-queueing, dispatching, and finalizing it succeeds.
func TestLoaderScenarioS6(t *testing.T) {
	p := testplatform.New()

	chunk0 := make([]byte, 100)
	chunk1 := make([]byte, 100)
	chunk2 := make([]byte, 100)
	for i := range chunk0 {
		chunk0[i] = 0xAA
		chunk1[i] = 0xBB
		chunk2[i] = 0xCC
	}

	db := openTestDatabase(t, p, buildTestDatabase(t, [][]byte{chunk0, chunk1, chunk2}))

	loaderArena := allocator.New(1<<16, nil, "loader")
	loader, ok := resources.NewLoader(loaderArena, db, 250, 8, 8, nil)
	require.True(t, ok)

	require.True(t, loader.QueueChunk(0, resources.ChunkClassAudio))
	require.True(t, loader.QueueChunk(1, resources.ChunkClassAudio))
	require.False(t, loader.QueueChunk(2, resources.ChunkClassAudio), "third chunk should be rejected: only 50 bytes left in the staging ring")

	loader.Dispatch(p, 8)
	loader.Finalize(p, false)

	_, resident := db.ResidentAudioChunk(2)
	require.False(t, resident, "chunk 2 was never queued successfully yet")

	buf0, ok := db.ResidentAudioChunk(0)
	require.True(t, ok)
	require.Equal(t, chunk0, buf0)
	buf1, ok := db.ResidentAudioChunk(1)
	require.True(t, ok)
	require.Equal(t, chunk1, buf1)

	require.True(t, loader.QueueChunk(2, resources.ChunkClassAudio), "staging ring should have room again now that chunk 0 and 1 freed")
	loader.Dispatch(p, 8)
	loader.Finalize(p, false)

	buf2, ok := db.ResidentAudioChunk(2)
	require.True(t, ok)
	require.Equal(t, chunk2, buf2)
}

func TestQueueChunkRejectsDuplicate(t *testing.T) {
	p := testplatform.New()
	chunk := make([]byte, 10)
	db := openTestDatabase(t, p, buildTestDatabase(t, [][]byte{chunk}))

	a := allocator.New(4096, nil, "loader")
	loader, ok := resources.NewLoader(a, db, 100, 8, 8, nil)
	require.True(t, ok)

	require.True(t, loader.QueueChunk(0, resources.ChunkClassAudio))
	require.False(t, loader.QueueChunk(0, resources.ChunkClassAudio))
}

func TestChunkReadFailureIsDroppedAndSlotStaysUnloaded(t *testing.T) {
	p := testplatform.New()
	chunk := make([]byte, 10)
	fileBytes := buildTestDatabase(t, [][]byte{chunk})

	// Register a file whose content is shorter than the chunk data region
	// the header/descriptors describe, so the chunk's own read fails even
	// though the header read (which only needs the first bytes) succeeds.
	shortFile := p.AddFile("short.rdb", fileBytes[:len(fileBytes)-3])
	a := allocator.New(4096, nil, "db")
	tmp := allocator.New(4096, nil, "tmp")
	db, ok := resources.OpenDatabase(p, a, tmp, shortFile, resources.ResidentBudget{})
	require.True(t, ok)

	loaderArena := allocator.New(4096, nil, "loader")
	loader, ok := resources.NewLoader(loaderArena, db, 100, 8, 8, nil)
	require.True(t, ok)

	require.True(t, loader.QueueChunk(0, resources.ChunkClassAudio))
	loader.Dispatch(p, 8)
	loader.Finalize(p, false)

	_, resident := db.ResidentAudioChunk(0)
	require.False(t, resident)
	require.NotEmpty(t, p.Printed(), "a failed chunk read should emit a diagnostic line")
}

func TestSpriteChunkBecomesResidentSprite(t *testing.T) {
	p := testplatform.New()

	const w, h = 4, 4
	pixels := make([]byte, w*h*4)
	for i := range pixels {
		pixels[i] = byte(i)
	}

	header := resources.Header{
		Magic:             resources.MagicNumber,
		ChunkSize:         64,
		SpriteChunkWidth:  w,
		SpriteChunkHeight: h,
		TextureChunks:     1,
		Sprites:           1,
	}
	buf := resources.SerializeHeader(header)
	buf = append(buf, resources.SerializeTextureChunkDescriptor(resources.TextureChunkDescriptor{
		ChunkDescriptor: resources.ChunkDescriptor{FirstByte: 0, Size: uint32(len(pixels))},
		RegionWidth:     w,
		RegionHeight:    h,
	})...)
	buf = append(buf, resources.SerializeSpriteAsset(resources.SpriteAsset{
		Name:        "player",
		Transparent: true,
		MipCount:    1,
		Mips:        [resources.MaxMips]resources.SpriteMip{{FirstChunk: 0, LastChunk: 0}},
	})...)
	buf = append(buf, pixels...)

	db := openTestDatabase(t, p, buf)

	handle, ok := db.FindSprite("player")
	require.True(t, ok)
	asset := db.GetSprite(handle)
	require.True(t, asset.Transparent)
	require.Equal(t, uint8(1), asset.MipCount)

	loaderArena := allocator.New(1<<16, nil, "loader")
	loader, ok := resources.NewLoader(loaderArena, db, 256, 8, 8, nil)
	require.True(t, ok)

	require.True(t, loader.QueueChunk(0, resources.ChunkClassSprite))
	loader.Dispatch(p, 8)
	loader.Finalize(p, false)

	ref, resident := db.ResidentSprite(0)
	require.True(t, resident)
	require.NotZero(t, ref)

	// Re-queueing a resident chunk is load-shedded rather than re-read.
	require.False(t, loader.QueueChunk(0, resources.ChunkClassSprite))
}

func TestFindAndGetAudioClip(t *testing.T) {
	p := testplatform.New()
	chunk := make([]byte, 10)

	header := resources.Header{Magic: resources.MagicNumber, ChunkSize: 10, Chunks: 1, AudioClips: 2}
	buf := resources.SerializeHeader(header)
	buf = append(buf, resources.SerializeChunkDescriptor(resources.ChunkDescriptor{FirstByte: 0, Size: 10})...)
	buf = append(buf, resources.SerializeAudioClipAsset(resources.AudioClipAsset{Name: "explosion", SampleRate: 44100, SampleCount: 4410, FirstChunk: 0, LastChunk: 0})...)
	buf = append(buf, resources.SerializeAudioClipAsset(resources.AudioClipAsset{Name: "jump", SampleRate: 44100, SampleCount: 2205, FirstChunk: 0, LastChunk: 0})...)
	buf = append(buf, chunk...)

	db := openTestDatabase(t, p, buf)

	handle, ok := db.FindAudioClip("jump")
	require.True(t, ok)
	require.Equal(t, "jump", db.GetAudioClip(handle).Name)

	_, ok = db.FindAudioClip("missing")
	require.False(t, ok)
}
