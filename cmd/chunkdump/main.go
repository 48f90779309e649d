// Command chunkdump extracts every chunk of one or more PNG files into
// separate files, checking each chunk's CRC on the way.
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/vnykmshr/chunkdump/pkg/chunkdump"
)

var (
	app = kingpin.New("chunkdump", "Extract every chunk of PNG files into <name>/<index>-<tag>.dat.")

	outDir       = app.Flag("out-dir", "Directory in which per-file output directories are created (default: current directory).").Short('o').String()
	maxChunkSize = app.Flag("max-chunk-size", "Largest chunk length accepted.").Default("64MB").Bytes()
	strip        = app.Flag("strip", "Strip the file name from the first dot or only the last extension.").Default("first").Enum("first", "last")
	manifest     = app.Flag("manifest", "Write manifest.json into each output directory.").Bool()
	dump         = app.Flag("dump", "Dump each chunk header to stdout.").Bool()
	stats        = app.Flag("stats", "Print extraction statistics when done.").Bool()
	verbose      = app.Flag("verbose", "Log debug messages.").Short('v').Bool()

	files = app.Arg("file", "PNG files to extract.").Required().Strings()
)

// chunkHeader is the part of a chunk shown by --dump.
type chunkHeader struct {
	Index       int
	Offset      int64
	Length      uint32
	Tag         string
	Critical    bool
	Public      bool
	SafeToCopy  bool
	StoredCRC   uint32
	ComputedCRC uint32
	Valid       bool
}

func main() {
	app.Version(chunkdump.Version)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	opts, collector, err := buildOptions()
	app.FatalIfError(err, "invalid options")

	_, err = chunkdump.ExtractAll(*files, opts)

	if *stats {
		printStats(chunkdump.GetMetricsSnapshot(collector))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: error: %v\n", app.Name, err)
		os.Exit(1)
	}
}

func buildOptions() (*chunkdump.Options, chunkdump.MetricsCollector, error) {
	opts := chunkdump.DefaultOptions()
	opts.OutputRoot = *outDir
	opts.WriteManifest = *manifest
	opts.Report = os.Stdout

	size := int64(*maxChunkSize)
	if size <= 0 || size > math.MaxUint32 {
		return nil, nil, fmt.Errorf("--max-chunk-size must be between 1 and %d bytes", uint32(math.MaxUint32))
	}
	opts.MaxChunkSize = uint32(size)

	mode, err := chunkdump.ParseNameMode(*strip)
	if err != nil {
		return nil, nil, err
	}
	opts.NameMode = mode

	level := chunkdump.LogLevelWarn
	if *verbose {
		level = chunkdump.LogLevelDebug
	}
	opts.Logger = chunkdump.NewLogger(os.Stderr, level)

	if *dump {
		opts.OnChunk = dumpChunk(os.Stdout)
	}

	collector := chunkdump.NewMetricsCollector(app.Name)
	opts.MetricsCollector = collector

	return opts, collector, opts.Validate()
}

// dumpChunk returns a callback writing each chunk header to w.
func dumpChunk(w io.Writer) func(*chunkdump.Chunk) {
	return func(c *chunkdump.Chunk) {
		spew.Fdump(w, chunkHeader{
			Index:       c.Index,
			Offset:      c.Offset,
			Length:      c.Length,
			Tag:         c.Tag.String(),
			Critical:    c.Tag.IsCritical(),
			Public:      c.Tag.IsPublic(),
			SafeToCopy:  c.Tag.IsSafeToCopy(),
			StoredCRC:   c.StoredCRC,
			ComputedCRC: c.ComputedCRC,
			Valid:       c.Valid(),
		})
	}
}

func printStats(s *chunkdump.MetricsSnapshot) {
	if s == nil {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Extraction Statistics")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "Files:\t%d\n", s.FilesTotal)
	fmt.Fprintf(w, "Files Failed:\t%d (open %d, format %d, incomplete %d, output %d)\n",
		s.FilesFailed, s.OpenErrors, s.FormatErrors, s.IncompleteErrors, s.OutputErrors)
	fmt.Fprintf(w, "Chunks:\t%s\n", humanize.Comma(int64(s.ChunksTotal))) //nolint:gosec // G115: counter fits in int64
	fmt.Fprintf(w, "CRC Mismatches:\t%d\n", s.CRCMismatches)
	fmt.Fprintf(w, "Payload Bytes:\t%s (%d)\n", humanize.IBytes(s.PayloadBytes), s.PayloadBytes)
	fmt.Fprintf(w, "Largest Chunk:\t%s\n", humanize.IBytes(s.LargestPayload))
	fmt.Fprintf(w, "File Time p50/p95/p99:\t%s / %s / %s\n", s.FileDurationP50, s.FileDurationP95, s.FileDurationP99)
	_ = w.Flush()
}
