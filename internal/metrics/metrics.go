// Package metrics collects extraction statistics for chunkdump.
//
// Counters are atomic so a single Collector can be shared by every file an
// invocation processes. A Snapshot gives a consistent point-in-time view.
//
// Usage:
//
//	collector := metrics.NewCollector("chunkdump")
//	collector.RecordChunk(len(payload), valid)
//	collector.RecordFile(duration)
//	fmt.Println(collector.GetSnapshot().ChunksTotal)
package metrics

import (
	"sync/atomic"
	"time"
)

// Recorder is the set of events an extraction reports.
type Recorder interface {
	RecordChunk(payloadSize int, valid bool)
	RecordFile(duration time.Duration)
	RecordFileError(kind ErrorKind)
}

// ErrorKind classifies a failed input file.
type ErrorKind uint8

const (
	// ErrorOpen means the input could not be opened
	ErrorOpen ErrorKind = iota
	// ErrorFormat means the magic header did not match
	ErrorFormat
	// ErrorIncomplete means the stream was truncated or a chunk was oversized
	ErrorIncomplete
	// ErrorOutput means the output directory or a chunk file could not be written
	ErrorOutput
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorOpen:
		return "open"
	case ErrorFormat:
		return "format"
	case ErrorIncomplete:
		return "incomplete"
	case ErrorOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Collector tracks extraction metrics.
type Collector struct {
	name string

	// File counters
	filesTotal     atomic.Uint64
	filesFailed    atomic.Uint64
	openErrors     atomic.Uint64
	formatErrors   atomic.Uint64
	incompleteErrs atomic.Uint64
	outputErrors   atomic.Uint64

	// Chunk counters
	chunksTotal    atomic.Uint64
	crcMismatches  atomic.Uint64
	payloadBytes   atomic.Uint64
	largestPayload atomic.Uint64

	// Per-file parse durations
	fileDurations *durationHistogram
}

// NewCollector creates a new metrics collector.
func NewCollector(name string) *Collector {
	return &Collector{
		name:          name,
		fileDurations: newDurationHistogram(),
	}
}

// RecordChunk records one extracted chunk.
func (c *Collector) RecordChunk(payloadSize int, valid bool) {
	c.chunksTotal.Add(1)
	c.payloadBytes.Add(uint64(payloadSize)) //nolint:gosec // G115: payload sizes are non-negative
	if !valid {
		c.crcMismatches.Add(1)
	}

	size := uint64(payloadSize) //nolint:gosec // G115: payload sizes are non-negative
	for {
		cur := c.largestPayload.Load()
		if size <= cur || c.largestPayload.CompareAndSwap(cur, size) {
			return
		}
	}
}

// RecordFile records a processed input file, successful or not.
func (c *Collector) RecordFile(duration time.Duration) {
	c.filesTotal.Add(1)
	c.fileDurations.observe(duration)
}

// RecordFileError records a failed input file.
func (c *Collector) RecordFileError(kind ErrorKind) {
	c.filesFailed.Add(1)
	switch kind {
	case ErrorOpen:
		c.openErrors.Add(1)
	case ErrorFormat:
		c.formatErrors.Add(1)
	case ErrorIncomplete:
		c.incompleteErrs.Add(1)
	case ErrorOutput:
		c.outputErrors.Add(1)
	}
}

// GetSnapshot returns a snapshot of current metrics.
func (c *Collector) GetSnapshot() *Snapshot {
	return &Snapshot{
		Name:             c.name,
		FilesTotal:       c.filesTotal.Load(),
		FilesFailed:      c.filesFailed.Load(),
		OpenErrors:       c.openErrors.Load(),
		FormatErrors:     c.formatErrors.Load(),
		IncompleteErrors: c.incompleteErrs.Load(),
		OutputErrors:     c.outputErrors.Load(),
		ChunksTotal:      c.chunksTotal.Load(),
		CRCMismatches:    c.crcMismatches.Load(),
		PayloadBytes:     c.payloadBytes.Load(),
		LargestPayload:   c.largestPayload.Load(),
		FileDurationP50:  c.fileDurations.percentile(0.50),
		FileDurationP95:  c.fileDurations.percentile(0.95),
		FileDurationP99:  c.fileDurations.percentile(0.99),
	}
}

// Snapshot is a point-in-time view of metrics.
type Snapshot struct {
	Name string

	// File counters
	FilesTotal       uint64
	FilesFailed      uint64
	OpenErrors       uint64
	FormatErrors     uint64
	IncompleteErrors uint64
	OutputErrors     uint64

	// Chunk counters
	ChunksTotal    uint64
	CRCMismatches  uint64
	PayloadBytes   uint64
	LargestPayload uint64

	// Duration percentiles
	FileDurationP50 time.Duration
	FileDurationP95 time.Duration
	FileDurationP99 time.Duration
}

// durationHistogram is a simple histogram for tracking durations.
// Buckets are fixed decades from 1µs to 100s.
type durationHistogram struct {
	buckets [10]atomic.Uint64 // 10 buckets for different duration ranges
}

func newDurationHistogram() *durationHistogram {
	return &durationHistogram{}
}

// observe records a duration in the appropriate bucket.
func (h *durationHistogram) observe(d time.Duration) {
	micros := d.Microseconds()
	var bucket int

	// Bucket boundaries (microseconds):
	// 0: < 1μs, 1: 1-10μs, 2: 10-100μs, 3: 100μs-1ms
	// 4: 1-10ms, 5: 10-100ms, 6: 100ms-1s, 7: 1-10s, 8: >10s
	switch {
	case micros < 1:
		bucket = 0
	case micros < 10:
		bucket = 1
	case micros < 100:
		bucket = 2
	case micros < 1000:
		bucket = 3
	case micros < 10000:
		bucket = 4
	case micros < 100000:
		bucket = 5
	case micros < 1000000:
		bucket = 6
	case micros < 10000000:
		bucket = 7
	case micros < 100000000:
		bucket = 8
	default:
		bucket = 9
	}

	h.buckets[bucket].Add(1)
}

// percentile approximates a percentile from histogram buckets.
func (h *durationHistogram) percentile(p float64) time.Duration {
	// Count total observations
	var total uint64
	for i := 0; i < 10; i++ {
		total += h.buckets[i].Load()
	}

	if total == 0 {
		return 0
	}

	// Find the bucket containing the percentile
	target := uint64(float64(total) * p)
	var count uint64
	for i := 0; i < 10; i++ {
		count += h.buckets[i].Load()
		if count >= target {
			// Return the upper bound of this bucket
			switch i {
			case 0:
				return 500 * time.Nanosecond
			case 1:
				return 5 * time.Microsecond
			case 2:
				return 50 * time.Microsecond
			case 3:
				return 500 * time.Microsecond
			case 4:
				return 5 * time.Millisecond
			case 5:
				return 50 * time.Millisecond
			case 6:
				return 500 * time.Millisecond
			case 7:
				return 5 * time.Second
			case 8:
				return 50 * time.Second
			default:
				return 100 * time.Second
			}
		}
	}

	return 0
}

// NoopCollector is a metrics recorder that does nothing.
// Useful when metrics are disabled.
type NoopCollector struct{}

func (NoopCollector) RecordChunk(int, bool)     {}
func (NoopCollector) RecordFile(time.Duration)  {}
func (NoopCollector) RecordFileError(ErrorKind) {}
