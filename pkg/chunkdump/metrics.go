package chunkdump

import (
	"time"

	"github.com/vnykmshr/chunkdump/internal/metrics"
)

// MetricsCollector defines the interface for recording extraction metrics.
type MetricsCollector interface {
	RecordChunk(payloadSize int, valid bool)
	RecordFile(duration time.Duration)
	RecordFileError(kind metrics.ErrorKind)
}

// MetricsSnapshot is a point-in-time view of extraction metrics.
type MetricsSnapshot = metrics.Snapshot

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector(name string) *metrics.Collector {
	return metrics.NewCollector(name)
}

// GetMetricsSnapshot returns a snapshot of current metrics from a collector.
func GetMetricsSnapshot(collector MetricsCollector) *MetricsSnapshot {
	if c, ok := collector.(*metrics.Collector); ok {
		return c.GetSnapshot()
	}
	return nil
}

func adaptMetrics(c MetricsCollector) metrics.Recorder {
	if c == nil {
		return metrics.NoopCollector{}
	}
	return c
}
