package parser

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/vnykmshr/chunkdump/internal/format"
	"github.com/vnykmshr/chunkdump/internal/logging"
)

type logEntry struct {
	level  logging.Level
	msg    string
	fields map[string]interface{}
}

// captureLogger records every message for inspection.
type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level logging.Level, msg string, fields []logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: m})
}

func (l *captureLogger) Debug(msg string, fields ...logging.Field) { l.add(logging.LevelDebug, msg, fields) }
func (l *captureLogger) Info(msg string, fields ...logging.Field)  { l.add(logging.LevelInfo, msg, fields) }
func (l *captureLogger) Warn(msg string, fields ...logging.Field)  { l.add(logging.LevelWarn, msg, fields) }
func (l *captureLogger) Error(msg string, fields ...logging.Field) { l.add(logging.LevelError, msg, fields) }

func (l *captureLogger) at(level logging.Level) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

// collectSink keeps a copy of every chunk it receives.
type collectSink struct {
	chunks   []format.Chunk
	payloads [][]byte
}

func (s *collectSink) Write(c *format.Chunk) error {
	s.chunks = append(s.chunks, *c)
	s.payloads = append(s.payloads, append([]byte(nil), c.Payload...))
	return nil
}

func TestParse_ValidStream(t *testing.T) {
	data := buildStream(t, testChunk{tag: "TEST", payload: []byte{0xDE, 0xAD, 0xBE, 0xEF}})
	logger := &captureLogger{}
	sink := &collectSink{}

	count, err := Parse(bytes.NewReader(data), sink, &Options{Source: "t.png", Logger: logger})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if count != 1 {
		t.Fatalf("Parse() count = %d, want 1", count)
	}

	if !bytes.Equal(sink.payloads[0], []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("payload = % x", sink.payloads[0])
	}
	if warns := logger.at(logging.LevelWarn); len(warns) != 0 {
		t.Errorf("got %d warnings for a valid stream: %+v", len(warns), warns)
	}
}

func TestParse_MismatchWarns(t *testing.T) {
	data := buildStream(t,
		testChunk{tag: "IHDR", payload: []byte("ok")},
		testChunk{tag: "zTXt", payload: []byte("broken"), badCRC: true},
	)
	logger := &captureLogger{}
	sink := &collectSink{}

	count, err := Parse(bytes.NewReader(data), sink, &Options{Source: "bad.png", Logger: logger})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if count != 2 || len(sink.chunks) != 2 {
		t.Fatalf("count = %d, sink got %d, want 2", count, len(sink.chunks))
	}

	warns := logger.at(logging.LevelWarn)
	if len(warns) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warns))
	}

	w := warns[0]
	if w.fields["source"] != "bad.png" {
		t.Errorf("source = %v, want bad.png", w.fields["source"])
	}
	if w.fields["tag"] != "zTXt" {
		t.Errorf("tag = %v, want zTXt", w.fields["tag"])
	}
	if w.fields["index"] != 1 {
		t.Errorf("index = %v, want 1", w.fields["index"])
	}
	if w.fields["stored"] == w.fields["computed"] {
		t.Errorf("stored and computed both %v", w.fields["stored"])
	}
}

func TestParse_SinkErrorStops(t *testing.T) {
	data := buildStream(t,
		testChunk{tag: "IHDR"},
		testChunk{tag: "IDAT"},
		testChunk{tag: "IEND"},
	)

	diskFull := errors.New("no space left on device")
	calls := 0
	sink := SinkFunc(func(c *format.Chunk) error {
		calls++
		if c.Tag.String() == "IDAT" {
			return diskFull
		}
		return nil
	})

	count, err := Parse(bytes.NewReader(data), sink, nil)
	if !errors.Is(err, diskFull) {
		t.Fatalf("Parse() error = %v, want %v", err, diskFull)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if calls != 2 {
		t.Errorf("sink called %d times, want 2", calls)
	}
}

func TestParse_PartialOutputOnTruncation(t *testing.T) {
	data := buildStream(t,
		testChunk{tag: "IHDR", payload: []byte("a")},
		testChunk{tag: "IDAT", payload: []byte("bbbbbbbb")},
	)
	data = data[:len(data)-3]

	sink := &collectSink{}
	count, err := Parse(bytes.NewReader(data), sink, nil)

	if !errors.Is(err, format.ErrIncompleteStream) {
		t.Fatalf("Parse() error = %v, want ErrIncompleteStream", err)
	}
	if count != 1 || len(sink.chunks) != 1 {
		t.Errorf("count = %d, sink got %d, want 1", count, len(sink.chunks))
	}
}

func TestParse_InvalidMagicWritesNothing(t *testing.T) {
	sink := &collectSink{}

	count, err := Parse(bytes.NewReader([]byte("GIF89a..")), sink, nil)
	if !errors.Is(err, format.ErrInvalidMagic) {
		t.Fatalf("Parse() error = %v, want ErrInvalidMagic", err)
	}
	if count != 0 || len(sink.chunks) != 0 {
		t.Errorf("count = %d, sink got %d, want 0", count, len(sink.chunks))
	}
}

func TestParse_TrailingBytesLogged(t *testing.T) {
	data := buildStream(t, testChunk{tag: "IEND"})
	data = append(data, 0x00, 0x01)
	logger := &captureLogger{}

	if _, err := Parse(bytes.NewReader(data), &collectSink{}, &Options{Logger: logger}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var trailing []logEntry
	for _, e := range logger.at(logging.LevelDebug) {
		if e.msg == "ignoring trailing bytes" {
			trailing = append(trailing, e)
		}
	}
	if len(trailing) != 1 || trailing[0].fields["bytes"] != 2 {
		t.Errorf("trailing entries = %+v, want one with bytes=2", trailing)
	}
}

func TestParse_ChunkDebugLog(t *testing.T) {
	data := buildStream(t,
		testChunk{tag: "IHDR", payload: make([]byte, 13)},
		testChunk{tag: "IEND"},
	)
	logger := &captureLogger{}

	if _, err := Parse(bytes.NewReader(data), &collectSink{}, &Options{Logger: logger}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	debug := logger.at(logging.LevelDebug)
	if len(debug) != 2 {
		t.Fatalf("got %d debug entries, want 2", len(debug))
	}
	if debug[0].fields["size"] != int64(25) || debug[1].fields["offset"] != int64(33) {
		t.Errorf("debug entries = %+v", debug)
	}
}

func TestParse_PayloadReleasedAfterWrite(t *testing.T) {
	data := buildStream(t, testChunk{tag: "IDAT", payload: []byte("data")})

	var seen *format.Chunk
	_, err := Parse(bytes.NewReader(data), SinkFunc(func(c *format.Chunk) error {
		seen = c
		return nil
	}), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if seen.Payload != nil {
		t.Error("payload still referenced after Parse returned")
	}
}
