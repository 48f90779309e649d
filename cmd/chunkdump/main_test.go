package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/vnykmshr/chunkdump/pkg/chunkdump"
)

func parseArgs(t *testing.T, args ...string) {
	t.Helper()
	*outDir, *manifest, *dump, *verbose = "", false, false, false
	*files = nil
	if _, err := app.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
}

func TestBuildOptions_Defaults(t *testing.T) {
	parseArgs(t, "a.png")

	opts, collector, err := buildOptions()
	if err != nil {
		t.Fatalf("buildOptions() error = %v", err)
	}

	if opts.MaxChunkSize != 64*1024*1024 {
		t.Errorf("MaxChunkSize = %d, want 64MiB", opts.MaxChunkSize)
	}
	if opts.NameMode != chunkdump.NameFirstDot {
		t.Errorf("NameMode = %v, want first", opts.NameMode)
	}
	if opts.OutputRoot != "" || opts.WriteManifest || opts.OnChunk != nil {
		t.Errorf("unexpected options: %+v", opts)
	}
	if collector == nil || opts.MetricsCollector == nil {
		t.Error("metrics collector not set")
	}
	if len(*files) != 1 || (*files)[0] != "a.png" {
		t.Errorf("files = %v", *files)
	}
}

func TestBuildOptions_Flags(t *testing.T) {
	parseArgs(t, "--out-dir", "/tmp/out", "--strip", "last", "--max-chunk-size", "1KiB",
		"--manifest", "--dump", "-v", "a.png", "b.png")

	opts, _, err := buildOptions()
	if err != nil {
		t.Fatalf("buildOptions() error = %v", err)
	}

	if opts.OutputRoot != "/tmp/out" {
		t.Errorf("OutputRoot = %q", opts.OutputRoot)
	}
	if opts.MaxChunkSize != 1024 {
		t.Errorf("MaxChunkSize = %d, want 1024", opts.MaxChunkSize)
	}
	if opts.NameMode != chunkdump.NameLastExt {
		t.Errorf("NameMode = %v, want last", opts.NameMode)
	}
	if !opts.WriteManifest || opts.OnChunk == nil {
		t.Errorf("--manifest/--dump not applied: %+v", opts)
	}
	if len(*files) != 2 {
		t.Errorf("files = %v", *files)
	}
}

func TestParse_NoFiles(t *testing.T) {
	if _, err := app.Parse([]string{}); err == nil {
		t.Error("Parse() without files should fail")
	}
}

func TestParse_BadStrip(t *testing.T) {
	if _, err := app.Parse([]string{"--strip", "middle", "a.png"}); err == nil {
		t.Error("Parse() accepted an invalid --strip value")
	}
}

func TestDumpChunk(t *testing.T) {
	var buf bytes.Buffer
	dump := dumpChunk(&buf)

	dump(&chunkdump.Chunk{
		Index:       2,
		Offset:      33,
		Length:      7,
		Tag:         chunkdump.Tag{'t', 'E', 'X', 't'},
		StoredCRC:   0x01020304,
		ComputedCRC: 0x01020305,
	})

	out := buf.String()
	for _, want := range []string{
		"main.chunkHeader",
		`Tag: (string) (len=4) "tEXt"`,
		"Index: (int) 2",
		"Offset: (int64) 33",
		"Critical: (bool) false",
		"Public: (bool) true",
		"SafeToCopy: (bool) true",
		"Valid: (bool) false",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
