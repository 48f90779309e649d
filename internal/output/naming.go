// Package output writes extracted chunks to disk.
//
// Each input file gets its own directory, named after the input's base name
// with the extension stripped. Inside it, every chunk is written to:
//   - {index:04d}-{tag}.dat (e.g., 0000-IHDR.dat)
//
// The index makes names unique even when a tag repeats, and the zero-padding
// keeps lexicographic order equal to stream order for the first 10000 chunks.
package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vnykmshr/chunkdump/internal/format"
)

const (
	// ChunkFileExtension is the file extension for extracted chunks
	ChunkFileExtension = ".dat"

	// IndexWidth is the minimum number of digits in chunk filenames
	IndexWidth = 4
)

// NameMode selects how the output directory name is derived from the input.
type NameMode uint8

const (
	// NameFirstDot strips everything from the first '.' of the base name
	// ("a.b.png" -> "a").
	NameFirstDot NameMode = iota

	// NameLastExt strips only the final extension ("a.b.png" -> "a.b").
	NameLastExt
)

// String returns the flag value for the mode.
func (m NameMode) String() string {
	switch m {
	case NameFirstDot:
		return "first"
	case NameLastExt:
		return "last"
	default:
		return "unknown"
	}
}

// ParseNameMode converts a flag value into a NameMode.
func ParseNameMode(s string) (NameMode, error) {
	switch s {
	case "first", "":
		return NameFirstDot, nil
	case "last":
		return NameLastExt, nil
	default:
		return NameFirstDot, fmt.Errorf("invalid name mode %q (want first or last)", s)
	}
}

// DirName derives the output directory name from an input path.
// Leading dots of the base name are ignored.
func DirName(inputPath string, mode NameMode) (string, error) {
	base := strings.TrimLeft(filepath.Base(inputPath), ".")

	var name string
	switch mode {
	case NameLastExt:
		name = strings.TrimSuffix(base, filepath.Ext(base))
	default:
		name, _, _ = strings.Cut(base, ".")
	}

	if name == "" || name == string(filepath.Separator) {
		return "", fmt.Errorf("cannot derive output directory name from %q", inputPath)
	}

	return name, nil
}

// FormatChunkName creates a chunk filename from its index and tag.
// Returns e.g. "0003-tEXt.dat".
func FormatChunkName(index int, tag format.Tag) string {
	return fmt.Sprintf("%0*d-%s%s", IndexWidth, index, tag.FileSafe(), ChunkFileExtension)
}
