package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ClearDirectory removes everything inside path, depth-first, leaving path
// itself in place. Symlinks are removed, never followed.
// Every entry is attempted; failures are joined into the returned error.
func ClearDirectory(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	var errs []error
	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())

		if entry.IsDir() {
			if err := ClearDirectory(full); err != nil {
				errs = append(errs, err)
				continue
			}
		}

		if err := os.Remove(full); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", full, err))
		}
	}

	return errors.Join(errs...)
}

// PrepareDir makes sure path exists as an empty directory.
func PrepareDir(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(path, 0755); err != nil { //nolint:gosec // G301: Output dirs are user-readable
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to stat output directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("output path %s exists and is not a directory", path)
	}

	if err := ClearDirectory(path); err != nil {
		return fmt.Errorf("failed to clear output directory: %w", err)
	}

	return nil
}

// Within reports whether path is dir itself or lies anywhere below it.
// Both paths are made absolute and, where they exist, have symlinks resolved.
func Within(path, dir string) (bool, error) {
	p, err := resolve(path)
	if err != nil {
		return false, err
	}
	d, err := resolve(dir)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(d, p)
	if err != nil {
		return false, nil
	}
	if rel == "." {
		return true, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// resolve returns the absolute, symlink-free form of path. Components that
// do not exist yet are kept as given below their nearest existing parent.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return resolveExisting(abs), nil
}

func resolveExisting(abs string) string {
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}
	return filepath.Join(resolveExisting(parent), filepath.Base(abs))
}
