package chunkdump

import (
	"errors"

	"github.com/vnykmshr/chunkdump/internal/format"
)

// Errors returned by chunkdump operations.
var (
	// ErrNoInput indicates no input paths were given.
	ErrNoInput = errors.New("chunkdump: no filenames provided")

	// ErrOpen indicates an input file could not be opened for reading.
	ErrOpen = errors.New("chunkdump: cannot open input")

	// ErrOutput indicates the output directory or a chunk file could not be written.
	ErrOutput = errors.New("chunkdump: cannot write output")

	// ErrFilesFailed indicates at least one input of a batch failed.
	ErrFilesFailed = errors.New("chunkdump: files failed")

	// ErrInvalidMagic indicates the input does not start with the PNG signature.
	ErrInvalidMagic = format.ErrInvalidMagic

	// ErrIncompleteStream indicates the input ended in the middle of a chunk.
	// Oversized chunks match this error as well.
	ErrIncompleteStream = format.ErrIncompleteStream

	// ErrOversizedChunk indicates a declared chunk length above Options.MaxChunkSize.
	ErrOversizedChunk = format.ErrOversizedChunk
)
