package parser

import (
	"fmt"
	"io"

	"github.com/vnykmshr/chunkdump/internal/format"
	"github.com/vnykmshr/chunkdump/internal/logging"
)

// Sink receives every parsed chunk, in stream order.
// The chunk's payload is only valid for the duration of the call.
type Sink interface {
	Write(chunk *format.Chunk) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(chunk *format.Chunk) error

// Write implements Sink.
func (f SinkFunc) Write(chunk *format.Chunk) error {
	return f(chunk)
}

// Options configures Parse.
type Options struct {
	// MaxChunkSize is the largest declared payload length accepted (0 = default)
	MaxChunkSize uint32

	// Source names the stream in log messages
	Source string

	// Logger receives checksum mismatch warnings (nil = no logging)
	Logger logging.Logger
}

// Parse validates the magic header of src and hands each chunk to sink.
// Checksum mismatches are logged and the chunk is still passed on.
// Returns the number of chunks written to sink; on error, chunks already
// written stay written.
func Parse(src io.Reader, sink Sink, opts *Options) (int, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoopLogger{}
	}

	r := NewReader(src, &ReaderOptions{MaxChunkSize: opts.MaxChunkSize})

	count, err := r.ScanAll(func(chunk *format.Chunk) error {
		if !chunk.Valid() {
			logger.Warn("chunk failed CRC",
				logging.F("source", opts.Source),
				logging.F("tag", chunk.Tag.String()),
				logging.F("index", chunk.Index),
				logging.F("stored", fmt.Sprintf("%08x", chunk.StoredCRC)),
				logging.F("computed", fmt.Sprintf("%08x", chunk.ComputedCRC)),
			)
		}

		if err := sink.Write(chunk); err != nil {
			return fmt.Errorf("failed to write %s chunk %d: %w", chunk.Tag, chunk.Index, err)
		}
		logger.Debug("chunk extracted",
			logging.F("tag", chunk.Tag.String()),
			logging.F("index", chunk.Index),
			logging.F("offset", chunk.Offset),
			logging.F("size", chunk.TotalSize()),
		)

		// Release the payload before the next chunk is read.
		chunk.Payload = nil
		return nil
	})
	if err != nil {
		return count, err
	}

	if n := r.Trailing(); n > 0 {
		logger.Debug("ignoring trailing bytes",
			logging.F("source", opts.Source),
			logging.F("bytes", n),
			logging.F("offset", r.Offset()),
		)
	}

	return count, nil
}
