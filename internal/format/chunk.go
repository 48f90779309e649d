package format

import (
	"encoding/binary"
)

// Sizes of the fixed chunk fields in bytes.
const (
	LengthSize = 4
	TagSize    = 4
	CRCSize    = 4

	// ChunkOverhead is the number of bytes a chunk occupies besides its payload.
	ChunkOverhead = LengthSize + TagSize + CRCSize
)

// DefaultMaxChunkSize bounds the payload length accepted from the stream (64 MB).
const DefaultMaxChunkSize uint32 = 64 * 1024 * 1024

// Tag is the 4-byte opaque identifier naming a chunk's kind.
type Tag [TagSize]byte

// String returns the raw tag bytes as a string.
func (t Tag) String() string {
	return string(t[:])
}

// FileSafe returns the tag with path separators and NUL bytes replaced by '_'.
// Other bytes are kept as they are.
func (t Tag) FileSafe() string {
	out := t
	for i, b := range out {
		switch b {
		case '/', '\\', 0:
			out[i] = '_'
		}
	}
	return out.String()
}

// The property bit of each tag byte is bit 5 (lowercase letter).
const propertyBit = 0x20

// IsCritical reports whether the first byte is uppercase.
func (t Tag) IsCritical() bool {
	return t[0]&propertyBit == 0
}

// IsPublic reports whether the second byte is uppercase.
func (t Tag) IsPublic() bool {
	return t[1]&propertyBit == 0
}

// IsSafeToCopy reports whether the fourth byte is lowercase.
func (t Tag) IsSafeToCopy() bool {
	return t[3]&propertyBit != 0
}

// Chunk represents a single record read from the stream.
//
// Binary format (big-endian):
//
//	[Length:4][Tag:4][Payload:Length][CRC32:4]
//
// The CRC covers Tag and Payload only.
type Chunk struct {
	// Index is the zero-based position of the chunk in the stream
	Index int

	// Offset is the stream offset of the chunk's length field
	Offset int64

	// Length is the declared payload length
	Length uint32

	// Tag identifies the chunk kind
	Tag Tag

	// Payload is the raw chunk data
	Payload []byte

	// StoredCRC is the checksum read from the stream
	StoredCRC uint32

	// ComputedCRC is the checksum computed over Tag and Payload
	ComputedCRC uint32
}

// Valid reports whether the stored checksum matches the computed one.
func (c *Chunk) Valid() bool {
	return c.StoredCRC == c.ComputedCRC
}

// TotalSize returns the size of the chunk in the stream, including all fields.
func (c *Chunk) TotalSize() int64 {
	return ChunkOverhead + int64(c.Length)
}

// DecodeUint32 decodes a big-endian field.
func DecodeUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}
