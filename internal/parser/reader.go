// Package parser walks a chunk stream record by record.
//
// A stream is the 8-byte magic header followed by zero or more chunks:
//
//	[Length:4][Tag:4][Payload:Length][CRC32:4]
//
// There is no chunk count and no terminating chunk; the stream ends when no
// further length field can be read. A short read anywhere after the length
// field is a truncated stream.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vnykmshr/chunkdump/internal/format"
)

// state is the position of the reader within the record grammar.
type state uint8

const (
	stateMagic state = iota
	stateLength
	stateTag
	statePayload
	stateChecksum
	stateEnd
)

func (s state) String() string {
	switch s {
	case stateMagic:
		return "magic"
	case stateLength:
		return "length"
	case stateTag:
		return "tag"
	case statePayload:
		return "payload"
	case stateChecksum:
		return "crc"
	case stateEnd:
		return "end"
	default:
		return "unknown"
	}
}

// payloadGrowStep caps the up-front allocation for a payload. Larger
// payloads grow as bytes actually arrive.
const payloadGrowStep = 64 * 1024

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// MaxChunkSize is the largest declared payload length accepted.
	// Zero means format.DefaultMaxChunkSize.
	MaxChunkSize uint32
}

// DefaultReaderOptions returns the default reader configuration.
func DefaultReaderOptions() *ReaderOptions {
	return &ReaderOptions{
		MaxChunkSize: format.DefaultMaxChunkSize,
	}
}

// Reader provides sequential reads of chunks from a stream.
type Reader struct {
	r       *bufio.Reader
	maxSize uint32

	state  state
	offset int64
	index  int

	// trailing counts bytes after the last chunk too short to form a length field
	trailing int

	// err is sticky once the reader reaches stateEnd
	err error
}

// NewReader creates a reader over r. The magic header is validated on the
// first call to Next or ReadHeader.
func NewReader(r io.Reader, opts *ReaderOptions) *Reader {
	if opts == nil {
		opts = DefaultReaderOptions()
	}

	maxSize := opts.MaxChunkSize
	if maxSize == 0 {
		maxSize = format.DefaultMaxChunkSize
	}

	return &Reader{
		r:       bufio.NewReader(r),
		maxSize: maxSize,
		state:   stateMagic,
	}
}

// ReadHeader validates the magic header. It is a no-op once the header
// has been read.
func (r *Reader) ReadHeader() error {
	if r.state != stateMagic {
		return r.err
	}

	if err := format.ReadMagic(r.r); err != nil {
		return r.fail(err)
	}

	r.offset = format.MagicSize
	r.state = stateLength
	return nil
}

// Next reads the next chunk from the stream.
// Returns io.EOF when the stream ends cleanly between chunks.
func (r *Reader) Next() (*format.Chunk, error) {
	if err := r.ReadHeader(); err != nil {
		return nil, err
	}
	if r.state == stateEnd {
		return nil, r.err
	}

	chunk := &format.Chunk{Index: r.index, Offset: r.offset}
	var field [4]byte

	for {
		switch r.state {
		case stateLength:
			n, err := io.ReadFull(r.r, field[:])
			if err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					r.trailing = n
					return nil, r.fail(io.EOF)
				}
				return nil, r.fail(r.streamError(chunk, err))
			}
			chunk.Length = format.DecodeUint32(field[:])
			if chunk.Length > r.maxSize {
				return nil, r.fail(r.streamError(chunk, fmt.Errorf("%w: %d > %d",
					format.ErrOversizedChunk, chunk.Length, r.maxSize)))
			}
			r.advance(format.LengthSize, stateTag)

		case stateTag:
			if _, err := io.ReadFull(r.r, chunk.Tag[:]); err != nil {
				return nil, r.fail(r.streamError(chunk, err))
			}
			r.advance(format.TagSize, statePayload)

		case statePayload:
			payload, err := r.readPayload(chunk.Length)
			if err != nil {
				return nil, r.fail(r.streamError(chunk, err))
			}
			chunk.Payload = payload
			r.advance(int64(chunk.Length), stateChecksum)

		case stateChecksum:
			if _, err := io.ReadFull(r.r, field[:]); err != nil {
				return nil, r.fail(r.streamError(chunk, err))
			}
			chunk.StoredCRC = format.DecodeUint32(field[:])

			chunk.ComputedCRC = format.ChunkCRC(chunk.Tag, chunk.Payload)

			r.advance(format.CRCSize, stateLength)
			r.index++
			return chunk, nil

		default:
			return nil, r.fail(fmt.Errorf("reader in invalid state %s", r.state))
		}
	}
}

// readPayload reads exactly n bytes, growing the buffer as data arrives so a
// truncated stream never costs the full declared length in memory.
func (r *Reader) readPayload(n uint32) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(min(n, payloadGrowStep)))

	read, err := buf.ReadFrom(io.LimitReader(r.r, int64(n)))
	if err != nil {
		return nil, err
	}
	if read < int64(n) {
		return nil, io.ErrUnexpectedEOF
	}

	return buf.Bytes(), nil
}

// ScanAll reads all chunks sequentially, calling visitor for each.
// Returns the number of chunks visited. Stops if visitor returns an error.
func (r *Reader) ScanAll(visitor func(*format.Chunk) error) (int, error) {
	count := 0
	for {
		chunk, err := r.Next()
		if err != nil {
			if err == io.EOF {
				return count, nil
			}
			return count, err
		}

		if err := visitor(chunk); err != nil {
			return count, err
		}
		count++
	}
}

// Offset returns the number of stream bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Trailing returns the number of bytes left after the last chunk that were
// too few to form a length field.
func (r *Reader) Trailing() int {
	return r.trailing
}

func (r *Reader) advance(n int64, next state) {
	r.offset += n
	r.state = next
}

func (r *Reader) fail(err error) error {
	r.state = stateEnd
	r.err = err
	return err
}

// streamError wraps a read failure in the current state. Short reads become
// format.ErrIncompleteStream.
func (r *Reader) streamError(chunk *format.Chunk, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = fmt.Errorf("%w: %w", format.ErrIncompleteStream, io.ErrUnexpectedEOF)
	}
	return &format.StreamError{
		Field:  r.state.String(),
		Offset: r.offset,
		Tag:    chunk.Tag,
		Err:    err,
	}
}
