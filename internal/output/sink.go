package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vnykmshr/chunkdump/internal/format"
	"github.com/vnykmshr/chunkdump/internal/metrics"
)

// SinkOptions configures a DirSink.
type SinkOptions struct {
	// Report receives one line per written chunk (nil = no report)
	Report io.Writer

	// Manifest, if set, gets an entry for every written chunk
	Manifest *format.Manifest

	// Metrics records every written chunk (nil = disabled)
	Metrics metrics.Recorder
}

// DirSink writes each chunk's payload to its own file inside a directory.
type DirSink struct {
	dir    string
	source string
	opts   SinkOptions

	paths []string
}

// NewDirSink creates a sink writing into dir. The directory must exist;
// see PrepareDir. source names the input in report lines.
func NewDirSink(dir, source string, opts *SinkOptions) *DirSink {
	s := &DirSink{dir: dir, source: source}
	if opts != nil {
		s.opts = *opts
	}
	if s.opts.Metrics == nil {
		s.opts.Metrics = metrics.NoopCollector{}
	}
	return s
}

// Write stores the chunk payload as {index}-{tag}.dat.
func (s *DirSink) Write(chunk *format.Chunk) error {
	name := FormatChunkName(chunk.Index, chunk.Tag)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, chunk.Payload, 0644); err != nil { //nolint:gosec // G306: Extracted chunks are user-readable
		return err
	}

	s.paths = append(s.paths, path)
	s.opts.Metrics.RecordChunk(len(chunk.Payload), chunk.Valid())
	if s.opts.Manifest != nil {
		s.opts.Manifest.Add(chunk, name)
	}
	if s.opts.Report != nil {
		fmt.Fprintf(s.opts.Report, "(%s).%s -> %s\n", s.source, chunk.Tag, path)
	}

	return nil
}

// Paths returns the files written so far, in stream order.
func (s *DirSink) Paths() []string {
	return s.paths
}
