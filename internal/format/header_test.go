package format

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestReadMagic(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantMagic bool
		wantErr   bool
	}{
		{"valid", Magic[:], false, false},
		{"valid with trailing data", append(Magic[:], 0, 0, 0, 13), false, false},
		{"empty", nil, true, true},
		{"short", Magic[:5], true, true},
		{"wrong first byte", append([]byte{0x88}, Magic[1:]...), true, true},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F'}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ReadMagic(bytes.NewReader(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadMagic() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrInvalidMagic) != tt.wantMagic {
				t.Errorf("errors.Is(err, ErrInvalidMagic) = %v, want %v", !tt.wantMagic, tt.wantMagic)
			}
		})
	}
}

func TestReadMagic_ReadError(t *testing.T) {
	readErr := errors.New("disk on fire")

	err := ReadMagic(failingReader{err: readErr})
	if !errors.Is(err, readErr) {
		t.Fatalf("ReadMagic() error = %v, want wrapped %v", err, readErr)
	}
	if errors.Is(err, ErrInvalidMagic) {
		t.Error("read error reported as invalid magic")
	}
}

func TestReadMagic_ConsumesExactlyHeader(t *testing.T) {
	r := bytes.NewReader(append(Magic[:], 'x'))
	if err := ReadMagic(r); err != nil {
		t.Fatalf("ReadMagic() error = %v", err)
	}

	rest, _ := io.ReadAll(r)
	if string(rest) != "x" {
		t.Errorf("remaining = %q, want %q", rest, "x")
	}
}
