// Package chunkdump extracts every chunk of a PNG file into its own file.
//
// The stream is walked record by record without interpreting any chunk.
// Each chunk's CRC-32 is checked against the stored value; a mismatch is
// reported but the chunk is still extracted.
//
// Example usage:
//
//	opts := chunkdump.DefaultOptions()
//	opts.Report = os.Stdout
//
//	res, err := chunkdump.ExtractFile("image.png", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d chunks in %s\n", res.Chunks, res.OutputDir)
package chunkdump

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vnykmshr/chunkdump/internal/format"
	"github.com/vnykmshr/chunkdump/internal/logging"
	"github.com/vnykmshr/chunkdump/internal/metrics"
	"github.com/vnykmshr/chunkdump/internal/output"
	"github.com/vnykmshr/chunkdump/internal/parser"
)

// Version is the current version of chunkdump.
const Version = "1.0.0"

// Chunk is a single record read from the stream.
type Chunk = format.Chunk

// Tag is the 4-byte chunk identifier.
type Tag = format.Tag

// StreamError describes where a truncated or invalid stream failed.
type StreamError = format.StreamError

// Sink receives parsed chunks in stream order.
type Sink = parser.Sink

// SinkFunc adapts a function to the Sink interface.
type SinkFunc = parser.SinkFunc

// NameMode selects how the output directory name is derived.
type NameMode = output.NameMode

const (
	// NameFirstDot strips the input base name from its first '.' onward.
	NameFirstDot = output.NameFirstDot

	// NameLastExt strips only the final extension.
	NameLastExt = output.NameLastExt
)

// ParseNameMode converts "first" or "last" into a NameMode.
func ParseNameMode(s string) (NameMode, error) {
	return output.ParseNameMode(s)
}

// Options configures extraction.
type Options struct {
	// OutputRoot is the directory in which per-input directories are created
	// Default: current working directory
	OutputRoot string

	// MaxChunkSize is the largest declared chunk length accepted
	// Default: 64 MB
	MaxChunkSize uint32

	// NameMode derives the output directory name from the input name
	// Default: NameFirstDot
	NameMode NameMode

	// WriteManifest writes manifest.json into each output directory
	// Default: false
	WriteManifest bool

	// Report receives one "(source).TAG -> path" line per extracted chunk
	// Default: nil (no report)
	Report io.Writer

	// OnChunk is called for every chunk after it has been written
	// Default: nil
	OnChunk func(*Chunk)

	// Logger for structured logging (nil = no logging)
	// Default: no logging
	Logger Logger

	// MetricsCollector for collecting extraction metrics (nil = no metrics)
	// Default: no metrics
	MetricsCollector MetricsCollector
}

// DefaultOptions returns sensible defaults for extraction.
func DefaultOptions() *Options {
	return &Options{
		MaxChunkSize: format.DefaultMaxChunkSize,
		NameMode:     NameFirstDot,
	}
}

// Validate checks if the options are usable.
func (o *Options) Validate() error {
	if o.MaxChunkSize == 0 {
		return fmt.Errorf("max chunk size must be greater than 0")
	}
	if o.NameMode != NameFirstDot && o.NameMode != NameLastExt {
		return fmt.Errorf("invalid name mode: %d", o.NameMode)
	}
	return nil
}

// Result describes the extraction of one input file.
type Result struct {
	// Source is the input path
	Source string

	// OutputDir is the directory chunks were written to (empty if never created)
	OutputDir string

	// RunID identifies this extraction in logs and in the manifest
	RunID uuid.UUID

	// Chunks is the number of chunks written
	Chunks int

	// Mismatches is the number of written chunks whose CRC did not match
	Mismatches int

	// Files lists the written chunk files in stream order
	Files []string

	// Duration is the wall time spent on this input
	Duration time.Duration

	// Err is the fatal error for this input, if any
	Err error
}

// ExtractFile extracts every chunk of the file at path.
//
// The output directory is created, or emptied if it exists, before the
// stream is parsed. On a parse error the chunks already written remain.
// Inputs that are not regular files, and inputs that live inside their own
// output directory, are refused before anything is created or removed.
func ExtractFile(path string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.New()
	logger := logging.With(adaptLogger(opts.Logger),
		logging.F("run_id", runID.String()),
		logging.F("source", path),
	)
	recorder := adaptMetrics(opts.MetricsCollector)

	res := &Result{Source: path, RunID: runID}
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		recorder.RecordFile(res.Duration)
		if res.Err != nil {
			recorder.RecordFileError(errorKind(res.Err))
		}
	}()

	res.Err = extract(path, opts, logger, recorder, res)
	return res, res.Err
}

func extract(path string, opts *Options, logger logging.Logger, recorder metrics.Recorder, res *Result) error {
	f, err := os.Open(path) //nolint:gosec // G304: Path is user-provided input
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrOpen, path)
	}

	name, err := output.DirName(path, opts.NameMode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}

	root := opts.OutputRoot
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return fmt.Errorf("%w: %w", ErrOutput, err)
		}
	}

	dir := filepath.Join(root, name)
	inside, err := output.Within(path, dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	if inside {
		return fmt.Errorf("%w: output directory %s contains the input file", ErrOutput, dir)
	}

	if err := output.PrepareDir(dir); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	res.OutputDir = dir
	logger.Debug("output directory ready", logging.F("dir", dir))

	var manifest *format.Manifest
	if opts.WriteManifest {
		manifest = format.NewManifest(res.RunID, path)
	}

	dirSink := output.NewDirSink(dir, path, &output.SinkOptions{
		Report:   opts.Report,
		Manifest: manifest,
		Metrics:  recorder,
	})

	sink := parser.SinkFunc(func(chunk *format.Chunk) error {
		if err := dirSink.Write(chunk); err != nil {
			return fmt.Errorf("%w: %w", ErrOutput, err)
		}
		if !chunk.Valid() {
			res.Mismatches++
		}
		if opts.OnChunk != nil {
			opts.OnChunk(chunk)
		}
		return nil
	})

	count, parseErr := parser.Parse(f, sink, &parser.Options{
		MaxChunkSize: opts.MaxChunkSize,
		Source:       path,
		Logger:       logger,
	})
	res.Chunks = count
	res.Files = dirSink.Paths()

	if manifest != nil {
		manifest.Finish(parseErr)
		if err := format.WriteManifest(filepath.Join(dir, format.ManifestFileName), manifest); err != nil {
			if parseErr == nil {
				return fmt.Errorf("%w: %w", ErrOutput, err)
			}
			logger.Error("failed to write manifest", logging.F("error", err))
		}
	}

	if parseErr != nil {
		return parseErr
	}

	logger.Debug("extraction complete",
		logging.F("chunks", count),
		logging.F("mismatches", res.Mismatches),
	)
	return nil
}

// ExtractAll extracts each path in turn. A failure on one file is logged
// and does not stop the others.
//
// Returns ErrNoInput if paths is empty, or an error wrapping ErrFilesFailed
// if any file failed. Results are returned in input order either way.
func ExtractAll(paths []string, opts *Options) ([]*Result, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}
	if opts == nil {
		opts = DefaultOptions()
	}

	logger := adaptLogger(opts.Logger)

	results := make([]*Result, 0, len(paths))
	failed := 0
	for _, path := range paths {
		res, err := ExtractFile(path, opts)
		if res == nil {
			return results, err
		}
		results = append(results, res)

		if err != nil {
			failed++
			logger.Error("extraction failed",
				logging.F("source", path),
				logging.F("chunks", res.Chunks),
				logging.F("error", err),
			)
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d", ErrFilesFailed, failed, len(paths))
	}
	return results, nil
}

// Parse reads a chunk stream from r and hands every chunk to sink, without
// touching the filesystem. Returns the number of chunks handed to sink.
func Parse(r io.Reader, sink Sink, opts *Options) (int, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	return parser.Parse(r, sink, &parser.Options{
		MaxChunkSize: opts.MaxChunkSize,
		Logger:       adaptLogger(opts.Logger),
	})
}

// errorKind classifies a per-file error for metrics.
func errorKind(err error) metrics.ErrorKind {
	switch {
	case errors.Is(err, ErrOpen):
		return metrics.ErrorOpen
	case errors.Is(err, ErrInvalidMagic):
		return metrics.ErrorFormat
	case errors.Is(err, ErrOutput):
		return metrics.ErrorOutput
	default:
		return metrics.ErrorIncomplete
	}
}
