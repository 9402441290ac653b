package resources

import (
	"sort"

	"nitrocore/internal/allocator"
	"nitrocore/internal/container"
	"nitrocore/internal/platform"
)

// AudioClipHandle and SpriteHandle index into a Database's asset tables.
// They're stable for the database's lifetime but, like every handle in this
// engine, not meaningful across a different database.
type AudioClipHandle uint32
type SpriteHandle uint32

// Database is the immutable, arena-backed asset index for one resource
// database file: descriptor tables for every chunk, the named asset tables
// (sorted by name for binary-search lookup), and the two sparse arrays of
// resident chunks the Loader populates.
type Database struct {
	file           platform.FileHandle
	chunkDataStart uint64
	chunkSize      uint32
	spriteWidth    uint16
	spriteHeight   uint16
	pixelFormat    platform.PixelFormat

	chunks        []ChunkDescriptor
	textureChunks []TextureChunkDescriptor
	audioClips    []AudioClipAsset
	sprites       []SpriteAsset

	residentAudio   *container.SparseArray[[]byte]
	residentSprites *container.SparseArray[platform.SpriteRef]
}

// ChunkSize is the fixed byte size of a regular (audio) chunk.
func (db *Database) ChunkSize() uint32 { return db.chunkSize }

// SpriteChunkDims returns the fixed pixel dimensions of a sprite chunk.
func (db *Database) SpriteChunkDims() (width, height uint16) {
	return db.spriteWidth, db.spriteHeight
}

// ResidentBudget bounds how many chunks of each class may be resident at
// once. Zero for either field means "as many as the database has" — full
// residency, the right default for small databases that fit in memory
// whole.
type ResidentBudget struct {
	AudioChunks  int
	SpriteChunks int
}

func (b ResidentBudget) clamp(audioTotal, spriteTotal int) (int, int) {
	audio, sprite := b.AudioChunks, b.SpriteChunks
	if audio <= 0 || audio > audioTotal {
		audio = audioTotal
	}
	if sprite <= 0 || sprite > spriteTotal {
		sprite = spriteTotal
	}
	return audio, sprite
}

// OpenDatabase reads file's header and the four descriptor/asset tables,
// allocating them from arena, using tempArena as scratch space for the raw
// file bytes before they're decoded into typed records. Blocks on the
// platform's file-read state machine for each of the five reads (header
// plus four tables). The budget bounds the resident-chunk pools backing
// both sparse arrays. Fails (ok=false) on a bad magic number or any read
// error.
func OpenDatabase(p platform.Platform, arena, tempArena *allocator.Arena, file platform.FileHandle, budget ResidentBudget) (*Database, bool) {
	headerBytes, ok := blockingReadAlloc(p, tempArena, file, 0, headerSize)
	if !ok {
		return nil, false
	}
	header := deserializeHeader(headerBytes)
	if header.Magic != MagicNumber {
		return nil, false
	}

	cursor := uint64(headerSize)

	chunks, ok := readTable(p, arena, tempArena, file, &cursor, int(header.Chunks), chunkDescriptorSize, deserializeChunkDescriptor)
	if !ok {
		return nil, false
	}
	textureChunks, ok := readTable(p, arena, tempArena, file, &cursor, int(header.TextureChunks), textureChunkDescriptorSize, deserializeTextureChunkDescriptor)
	if !ok {
		return nil, false
	}
	sprites, ok := readTable(p, arena, tempArena, file, &cursor, int(header.Sprites), spriteAssetSize, deserializeSpriteAsset)
	if !ok {
		return nil, false
	}
	audioClips, ok := readTable(p, arena, tempArena, file, &cursor, int(header.AudioClips), audioClipAssetSize, deserializeAudioClipAsset)
	if !ok {
		return nil, false
	}

	// Validate every asset's chunk references against the table sizes now,
	// so lookups during mixing and loading never have to bounds-check.
	for i := range audioClips {
		clip := &audioClips[i]
		if clip.FirstChunk > clip.LastChunk || clip.LastChunk >= header.Chunks {
			return nil, false
		}
	}
	for i := range sprites {
		sprite := &sprites[i]
		if int(sprite.MipCount) > MaxMips {
			return nil, false
		}
		for m := 0; m < int(sprite.MipCount); m++ {
			mip := sprite.Mips[m]
			if mip.FirstChunk > mip.LastChunk || mip.LastChunk >= header.TextureChunks {
				return nil, false
			}
		}
	}

	sort.Slice(audioClips, func(i, j int) bool { return audioClips[i].Name < audioClips[j].Name })
	sort.Slice(sprites, func(i, j int) bool { return sprites[i].Name < sprites[j].Name })

	audioBudget, spriteBudget := budget.clamp(int(header.Chunks), int(header.TextureChunks))
	residentAudio, ok := container.NewSparseArray[[]byte](arena, int(header.Chunks), audioBudget)
	if !ok {
		return nil, false
	}
	residentSprites, ok := container.NewSparseArray[platform.SpriteRef](arena, int(header.TextureChunks), spriteBudget)
	if !ok {
		return nil, false
	}

	return &Database{
		file:            file,
		chunkDataStart:  cursor,
		chunkSize:       header.ChunkSize,
		spriteWidth:     header.SpriteChunkWidth,
		spriteHeight:    header.SpriteChunkHeight,
		pixelFormat:     platform.PixelFormat(header.PixelFormat),
		chunks:          chunks,
		textureChunks:   textureChunks,
		audioClips:      audioClips,
		sprites:         sprites,
		residentAudio:   residentAudio,
		residentSprites: residentSprites,
	}, true
}

func readTable[R any](p platform.Platform, arena, tempArena *allocator.Arena, file platform.FileHandle, cursor *uint64, count, recordSize int, decode func([]byte) R) ([]R, bool) {
	raw, ok := blockingReadAlloc(p, tempArena, file, *cursor, count*recordSize)
	if !ok {
		return nil, false
	}
	*cursor += uint64(count * recordSize)

	out, ok := allocator.Alloc[R](arena, count)
	if !ok {
		return nil, false
	}
	for i := 0; i < count; i++ {
		out[i] = decode(raw[i*recordSize : (i+1)*recordSize])
	}
	return out, true
}

func blockingReadAlloc(p platform.Platform, tempArena *allocator.Arena, file platform.FileHandle, firstByte uint64, size int) ([]byte, bool) {
	if size == 0 {
		return nil, true
	}
	buf, ok := allocator.AllocZeroed[byte](tempArena, size)
	if !ok {
		return nil, false
	}
	task := p.BeginFileRead(file, firstByte, buf)
	for !p.IsFileReadFinished(task) {
	}
	return p.FinishFileRead(task)
}

// FindAudioClip looks up an audio clip by name via binary search over the
// sorted name column.
func (db *Database) FindAudioClip(name string) (AudioClipHandle, bool) {
	i := sort.Search(len(db.audioClips), func(i int) bool { return db.audioClips[i].Name >= name })
	if i < len(db.audioClips) && db.audioClips[i].Name == name {
		return AudioClipHandle(i), true
	}
	return 0, false
}

// GetAudioClip returns the asset record for handle.
func (db *Database) GetAudioClip(handle AudioClipHandle) *AudioClipAsset {
	return &db.audioClips[handle]
}

// FindSprite looks up a sprite by name via binary search over the sorted
// name column.
func (db *Database) FindSprite(name string) (SpriteHandle, bool) {
	i := sort.Search(len(db.sprites), func(i int) bool { return db.sprites[i].Name >= name })
	if i < len(db.sprites) && db.sprites[i].Name == name {
		return SpriteHandle(i), true
	}
	return 0, false
}

// GetSprite returns the asset record for handle.
func (db *Database) GetSprite(handle SpriteHandle) *SpriteAsset {
	return &db.sprites[handle]
}

// ResidentAudioChunk returns the loaded byte buffer for a regular chunk
// index, if resident.
func (db *Database) ResidentAudioChunk(index uint32) ([]byte, bool) {
	buf, ok := db.residentAudio.Get(index)
	if !ok {
		return nil, false
	}
	return *buf, true
}

// ResidentSprite returns the loaded platform sprite for a sprite chunk
// index, if resident.
func (db *Database) ResidentSprite(index uint32) (platform.SpriteRef, bool) {
	ref, ok := db.residentSprites.Get(index)
	if !ok {
		return 0, false
	}
	return *ref, true
}

// NumChunks, NumTextureChunks, NumAudioClips and NumSprites report the
// static table sizes read from the header, independent of how many chunks
// are currently resident. Read-only introspection tooling (cmd/assetinspector)
// uses these instead of reaching into the arena-backed tables directly.
func (db *Database) NumChunks() int        { return len(db.chunks) }
func (db *Database) NumTextureChunks() int { return len(db.textureChunks) }
func (db *Database) NumAudioClips() int    { return len(db.audioClips) }
func (db *Database) NumSprites() int       { return len(db.sprites) }

// AudioClipNames and SpriteNames return the sorted name columns of the
// respective asset tables, in the same order FindAudioClip/FindSprite
// binary-search over.
func (db *Database) AudioClipNames() []string {
	names := make([]string, len(db.audioClips))
	for i := range db.audioClips {
		names[i] = db.audioClips[i].Name
	}
	return names
}

func (db *Database) SpriteNames() []string {
	names := make([]string, len(db.sprites))
	for i := range db.sprites {
		names[i] = db.sprites[i].Name
	}
	return names
}

// ResidentAudioCount and ResidentSpriteCount report how many chunks of each
// class are currently loaded, for display in the inspector.
func (db *Database) ResidentAudioCount() int {
	n := 0
	for i := 0; i < db.residentAudio.ArrayLen(); i++ {
		if _, ok := db.residentAudio.Get(uint32(i)); ok {
			n++
		}
	}
	return n
}

func (db *Database) ResidentSpriteCount() int {
	n := 0
	for i := 0; i < db.residentSprites.ArrayLen(); i++ {
		if _, ok := db.residentSprites.Get(uint32(i)); ok {
			n++
		}
	}
	return n
}
