// Package format provides binary decoding for the chunked image container.
//
// This package implements:
//   - Checksum utilities: CRC-32 (IEEE, reflected polynomial 0xEDB88320)
//   - Chunk records: [Length:4][Tag:4][Payload:N][CRC:4], big-endian
//   - Magic header: the fixed 8-byte signature at stream start
//   - Manifest format: JSON description of an extraction run
package format

import (
	"hash/crc32"
	"sync"
)

// CRC32Polynomial is the reflected form of the IEEE CRC-32 generator.
const CRC32Polynomial = crc32.IEEE // 0xEDB88320

// crc32Table is built on first use and shared read-only for the process lifetime.
var crc32Table = sync.OnceValue(func() *crc32.Table {
	return crc32.MakeTable(CRC32Polynomial)
})

// UpdateCRC32 continues a running checksum with more data.
// UpdateCRC32(UpdateCRC32(0, a), b) equals the checksum of a followed by b.
func UpdateCRC32(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, crc32Table(), data)
}

// ChunkCRC computes the checksum of a chunk: tag bytes followed by payload.
func ChunkCRC(tag Tag, payload []byte) uint32 {
	return UpdateCRC32(UpdateCRC32(0, tag[:]), payload)
}
