package format

import (
	"errors"
	"fmt"
)

// Errors returned while decoding a chunk stream.
var (
	// ErrInvalidMagic indicates the stream does not start with the magic header.
	ErrInvalidMagic = errors.New("not a valid PNG file")

	// ErrIncompleteStream indicates the stream ended in the middle of a chunk.
	ErrIncompleteStream = errors.New("incomplete chunk stream")

	// ErrOversizedChunk indicates a declared chunk length above the configured maximum.
	ErrOversizedChunk = errors.New("chunk length exceeds maximum")
)

// StreamError records where in the stream a chunk could not be read.
type StreamError struct {
	// Field is the chunk field being read: "length", "tag", "payload" or "crc".
	Field string

	// Offset is the stream offset of the start of the field.
	Offset int64

	// Tag is the chunk tag, if it had been read.
	Tag Tag

	// Err is the underlying cause.
	Err error
}

func (e *StreamError) Error() string {
	if e.Tag != (Tag{}) {
		return fmt.Sprintf("reading %s of %s chunk at offset %d: %v", e.Field, e.Tag, e.Offset, e.Err)
	}
	return fmt.Sprintf("reading %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// Is makes an oversized chunk also match ErrIncompleteStream.
func (e *StreamError) Is(target error) bool {
	return target == ErrIncompleteStream && errors.Is(e.Err, ErrOversizedChunk)
}
