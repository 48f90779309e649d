package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// MagicSize is the length of the magic header in bytes.
const MagicSize = 8

// Magic is the signature every stream starts with.
var Magic = [MagicSize]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// ReadMagic reads the magic header from r and validates it.
// A stream shorter than the header is rejected the same way as a mismatch.
func ReadMagic(r io.Reader) error {
	var buf [MagicSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: stream shorter than magic header", ErrInvalidMagic)
		}
		return fmt.Errorf("failed to read magic header: %w", err)
	}

	if !bytes.Equal(buf[:], Magic[:]) {
		return fmt.Errorf("%w: magic=% x", ErrInvalidMagic, buf)
	}

	return nil
}
