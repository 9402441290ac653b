// Package resources implements the on-disk asset database and the
// asynchronous chunk loader that streams resident chunks from it. The
// database is read once at startup into arena-backed tables; the loader
// streams individual chunks in afterward through a staging ring buffer and
// two FIFOs, matching the platform's explicit begin/poll/finish file-read
// state machine.
package resources

import (
	"encoding/binary"
)

// MagicNumber identifies a resource database file. Construction fails if a
// file doesn't start with it.
const MagicNumber uint32 = 0x52445332 // "RDS2"

// MaxNameLength is the longest asset name the on-disk format can store.
const MaxNameLength = 27

const nameRecordSize = MaxNameLength + 1 // length-prefix byte + bytes

// MaxMips is the largest mip chain a sprite asset may reference.
const MaxMips = 4

// ChunkClass distinguishes the two kinds of resident chunk.
type ChunkClass int

const (
	ChunkClassAudio ChunkClass = iota
	ChunkClassSprite
)

// Header is the fixed-size prefix of a resource database file.
type Header struct {
	Magic             uint32
	ChunkSize         uint32
	SpriteChunkWidth  uint16
	SpriteChunkHeight uint16
	PixelFormat       byte
	Chunks            uint32
	TextureChunks     uint32
	Sprites           uint32
	AudioClips        uint32
}

const headerSize = 4 + 4 + 2 + 2 + 1 + 4 + 4 + 4 + 4

func deserializeHeader(b []byte) Header {
	return Header{
		Magic:             binary.LittleEndian.Uint32(b[0:4]),
		ChunkSize:         binary.LittleEndian.Uint32(b[4:8]),
		SpriteChunkWidth:  binary.LittleEndian.Uint16(b[8:10]),
		SpriteChunkHeight: binary.LittleEndian.Uint16(b[10:12]),
		PixelFormat:       b[12],
		Chunks:            binary.LittleEndian.Uint32(b[13:17]),
		TextureChunks:     binary.LittleEndian.Uint32(b[17:21]),
		Sprites:           binary.LittleEndian.Uint32(b[21:25]),
		AudioClips:        binary.LittleEndian.Uint32(b[25:29]),
	}
}

// SerializeHeader writes h in the on-disk layout, for use by an asset
// importer (out of scope here, but the format is public so one can be
// written against it).
func SerializeHeader(h Header) []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.ChunkSize)
	binary.LittleEndian.PutUint16(b[8:10], h.SpriteChunkWidth)
	binary.LittleEndian.PutUint16(b[10:12], h.SpriteChunkHeight)
	b[12] = h.PixelFormat
	binary.LittleEndian.PutUint32(b[13:17], h.Chunks)
	binary.LittleEndian.PutUint32(b[17:21], h.TextureChunks)
	binary.LittleEndian.PutUint32(b[21:25], h.Sprites)
	binary.LittleEndian.PutUint32(b[25:29], h.AudioClips)
	return b
}

// ChunkDescriptor locates one regular (audio) chunk's payload in the file.
type ChunkDescriptor struct {
	FirstByte uint64
	Size      uint32
}

const chunkDescriptorSize = 8 + 4

func deserializeChunkDescriptor(b []byte) ChunkDescriptor {
	return ChunkDescriptor{
		FirstByte: binary.LittleEndian.Uint64(b[0:8]),
		Size:      binary.LittleEndian.Uint32(b[8:12]),
	}
}

// SerializeChunkDescriptor writes d in the on-disk layout.
func SerializeChunkDescriptor(d ChunkDescriptor) []byte {
	b := make([]byte, chunkDescriptorSize)
	binary.LittleEndian.PutUint64(b[0:8], d.FirstByte)
	binary.LittleEndian.PutUint32(b[8:12], d.Size)
	return b
}

// TextureChunkDescriptor locates a sprite chunk's payload and the pixel
// region within it that's actually populated (the last chunk in a sprite's
// chain is often only partially filled).
type TextureChunkDescriptor struct {
	ChunkDescriptor
	RegionWidth  uint16
	RegionHeight uint16
}

const textureChunkDescriptorSize = chunkDescriptorSize + 2 + 2

func deserializeTextureChunkDescriptor(b []byte) TextureChunkDescriptor {
	return TextureChunkDescriptor{
		ChunkDescriptor: deserializeChunkDescriptor(b[0:chunkDescriptorSize]),
		RegionWidth:     binary.LittleEndian.Uint16(b[chunkDescriptorSize : chunkDescriptorSize+2]),
		RegionHeight:    binary.LittleEndian.Uint16(b[chunkDescriptorSize+2 : chunkDescriptorSize+4]),
	}
}

// SerializeTextureChunkDescriptor writes d in the on-disk layout.
func SerializeTextureChunkDescriptor(d TextureChunkDescriptor) []byte {
	b := make([]byte, textureChunkDescriptorSize)
	copy(b[0:chunkDescriptorSize], SerializeChunkDescriptor(d.ChunkDescriptor))
	binary.LittleEndian.PutUint16(b[chunkDescriptorSize:chunkDescriptorSize+2], d.RegionWidth)
	binary.LittleEndian.PutUint16(b[chunkDescriptorSize+2:chunkDescriptorSize+4], d.RegionHeight)
	return b
}

// AudioClipAsset is a named, fixed-sample-rate audio clip referencing an
// inclusive range of regular chunks.
type AudioClipAsset struct {
	Name        string
	SampleRate  uint32
	SampleCount uint32
	FirstChunk  uint32
	LastChunk   uint32
}

const audioClipAssetSize = nameRecordSize + 4 + 4 + 4 + 4

func deserializeAudioClipAsset(b []byte) AudioClipAsset {
	name, rest := deserializeName(b)
	return AudioClipAsset{
		Name:        name,
		SampleRate:  binary.LittleEndian.Uint32(rest[0:4]),
		SampleCount: binary.LittleEndian.Uint32(rest[4:8]),
		FirstChunk:  binary.LittleEndian.Uint32(rest[8:12]),
		LastChunk:   binary.LittleEndian.Uint32(rest[12:16]),
	}
}

// SerializeAudioClipAsset writes a in the on-disk layout.
func SerializeAudioClipAsset(a AudioClipAsset) []byte {
	b := make([]byte, audioClipAssetSize)
	serializeName(b, a.Name)
	rest := b[nameRecordSize:]
	binary.LittleEndian.PutUint32(rest[0:4], a.SampleRate)
	binary.LittleEndian.PutUint32(rest[4:8], a.SampleCount)
	binary.LittleEndian.PutUint32(rest[8:12], a.FirstChunk)
	binary.LittleEndian.PutUint32(rest[12:16], a.LastChunk)
	return b
}

// SpriteMip is one level of a sprite's mip chain: either a single chunk
// (FirstChunk == LastChunk) with a byte Offset into it, or a multi-chunk
// range starting at Offset 0 of FirstChunk.
type SpriteMip struct {
	FirstChunk uint32
	LastChunk  uint32
	Offset     uint32
}

// SpriteAsset is a named sprite with up to MaxMips mip levels and a
// transparency flag used by the renderer's blend settings.
type SpriteAsset struct {
	Name        string
	Transparent bool
	MipCount    uint8
	Mips        [MaxMips]SpriteMip
}

const spriteMipSize = 4 + 4 + 4
const spriteAssetSize = nameRecordSize + 1 + 1 + 2 + MaxMips*spriteMipSize

func deserializeSpriteAsset(b []byte) SpriteAsset {
	name, rest := deserializeName(b)
	a := SpriteAsset{
		Name:        name,
		Transparent: rest[0] != 0,
		MipCount:    rest[1],
	}
	mips := rest[4:]
	for i := 0; i < MaxMips; i++ {
		off := i * spriteMipSize
		a.Mips[i] = SpriteMip{
			FirstChunk: binary.LittleEndian.Uint32(mips[off : off+4]),
			LastChunk:  binary.LittleEndian.Uint32(mips[off+4 : off+8]),
			Offset:     binary.LittleEndian.Uint32(mips[off+8 : off+12]),
		}
	}
	return a
}

// SerializeSpriteAsset writes a in the on-disk layout.
func SerializeSpriteAsset(a SpriteAsset) []byte {
	b := make([]byte, spriteAssetSize)
	serializeName(b, a.Name)
	rest := b[nameRecordSize:]
	if a.Transparent {
		rest[0] = 1
	}
	rest[1] = a.MipCount
	mips := rest[4:]
	for i := 0; i < MaxMips; i++ {
		off := i * spriteMipSize
		m := a.Mips[i]
		binary.LittleEndian.PutUint32(mips[off:off+4], m.FirstChunk)
		binary.LittleEndian.PutUint32(mips[off+4:off+8], m.LastChunk)
		binary.LittleEndian.PutUint32(mips[off+8:off+12], m.Offset)
	}
	return b
}

func deserializeName(b []byte) (name string, rest []byte) {
	n := int(b[0])
	if n > MaxNameLength {
		n = MaxNameLength
	}
	return string(b[1 : 1+n]), b[nameRecordSize:]
}

func serializeName(b []byte, name string) {
	n := len(name)
	if n > MaxNameLength {
		n = MaxNameLength
	}
	b[0] = byte(n)
	copy(b[1:1+n], name[:n])
}
