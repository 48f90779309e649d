package format

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ManifestFileName is the name of the manifest inside an output directory.
const ManifestFileName = "manifest.json"

// ManifestVersion is the current manifest format version.
const ManifestVersion uint16 = 1

// Manifest describes one extraction run over a single input file.
//
// This structure is serialized to JSON for debuggability.
// Writes go to a .tmp file first and are renamed into place.
type Manifest struct {
	// Version is the manifest format version
	Version uint16 `json:"version"`

	// RunID identifies the extraction run
	RunID uuid.UUID `json:"run_id"`

	// Source is the input file path
	Source string `json:"source"`

	// StartedAt is the Unix timestamp (nanoseconds) when parsing began
	StartedAt int64 `json:"started_at"`

	// FinishedAt is the Unix timestamp (nanoseconds) when parsing ended
	FinishedAt int64 `json:"finished_at"`

	// Chunks lists every chunk written, in stream order
	Chunks []ManifestChunk `json:"chunks"`

	// Error is the fatal parse error, if any
	Error string `json:"error,omitempty"`
}

// ManifestChunk is the manifest entry for one extracted chunk.
type ManifestChunk struct {
	Index       int    `json:"index"`
	Tag         string `json:"tag"`
	Offset      int64  `json:"offset"`
	Length      uint32 `json:"length"`
	StoredCRC   string `json:"stored_crc"`
	ComputedCRC string `json:"computed_crc"`
	Valid       bool   `json:"valid"`
	File        string `json:"file"`
}

// NewManifest creates a manifest for a run over source.
func NewManifest(runID uuid.UUID, source string) *Manifest {
	return &Manifest{
		Version:   ManifestVersion,
		RunID:     runID,
		Source:    source,
		StartedAt: time.Now().UnixNano(),
		Chunks:    []ManifestChunk{},
	}
}

// Add appends a chunk and the file it was written to.
func (m *Manifest) Add(c *Chunk, file string) {
	m.Chunks = append(m.Chunks, ManifestChunk{
		Index:       c.Index,
		Tag:         c.Tag.String(),
		Offset:      c.Offset,
		Length:      c.Length,
		StoredCRC:   fmt.Sprintf("%08x", c.StoredCRC),
		ComputedCRC: fmt.Sprintf("%08x", c.ComputedCRC),
		Valid:       c.Valid(),
		File:        file,
	})
}

// Finish records the end of the run and its fatal error, if any.
func (m *Manifest) Finish(err error) {
	m.FinishedAt = time.Now().UnixNano()
	if err != nil {
		m.Error = err.Error()
	}
}

// Validate checks if the manifest is consistent.
func (m *Manifest) Validate() error {
	if m.Version == 0 {
		return fmt.Errorf("invalid version: %d", m.Version)
	}
	if m.Version > ManifestVersion {
		return fmt.Errorf("unsupported version: %d (current=%d)", m.Version, ManifestVersion)
	}
	if m.RunID == uuid.Nil {
		return fmt.Errorf("missing run id")
	}
	for i, c := range m.Chunks {
		if c.Index != i {
			return fmt.Errorf("chunk %d has index %d", i, c.Index)
		}
	}
	return nil
}

// Marshal encodes the manifest to JSON with indentation for readability.
func (m *Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// WriteManifest atomically writes a manifest to a file.
// If the process dies mid-write, either the old file or the complete new one remains.
func WriteManifest(path string, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("invalid manifest: %w", err)
	}

	data, err := m.Marshal()
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644) //nolint:gosec // G304: Path is derived from user-provided output dir
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync manifest file: %w", err)
	}

	_ = f.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename manifest file: %w", err)
	}

	return syncDir(filepath.Dir(path))
}

// syncDir fsyncs a directory so the rename is durable.
func syncDir(path string) error {
	d, err := os.Open(path) //nolint:gosec // G304: Path is derived from user-provided output dir
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	return d.Sync()
}
