// Command resolve runs a JSON-lines file of raw survey records through the
// same transformer the ETL service uses and writes the resolved events as
// JSON lines. It is used to regenerate fixtures and to inspect how a file's
// unit directives play out without a Kafka cluster.
//
// Usage:
//
//	go run ./cmd/resolve \
//	  -in data/mock/survey_records.jsonl \
//	  -out data/mock/resolved_events.jsonl
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/walls-survey-etl/internal/domain"
	"github.com/couchcryptid/walls-survey-etl/internal/observability"
	"github.com/couchcryptid/walls-survey-etl/internal/pipeline"
)

// processedAt is fixed so regenerated fixtures are byte-identical.
var processedAt = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "data/mock/survey_records.jsonl", "JSON-lines file of raw survey records")
	out := flag.String("out", "", "output path for resolved events (stdout when empty)")
	verbose := flag.Bool("v", false, "log each rejected record")
	flag.Parse()

	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	defer domain.SetClock(nil)

	lines, err := readLines(*in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	transformer := pipeline.NewTransformer(len(lines)+1, logger, observability.NewMetricsForTesting())

	var (
		resolved []json.RawMessage
		stats    = newStats()
	)
	for i, line := range lines {
		outEvent, err := transformer.Transform(context.Background(), domain.RawEvent{
			Value:  line,
			Offset: int64(i),
		})
		if err != nil {
			stats.rejected = append(stats.rejected, err.Error())
			continue
		}
		resolved = append(resolved, outEvent.Value)
		stats.add(outEvent)
	}

	if err := writeLines(*out, resolved); err != nil {
		return fmt.Errorf("writing resolved events: %w", err)
	}
	if *out != "" {
		log.Printf("wrote %d resolved events: %s", len(resolved), *out)
	}

	stats.print(os.Stderr, len(lines))
	return nil
}

func readLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), scanner.Bytes()...))
	}
	return lines, scanner.Err()
}

func writeLines(path string, lines []json.RawMessage) error {
	var w io.Writer = os.Stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// stats aggregates what happened to the input for a quick eyeball check.
type stats struct {
	kinds     map[string]int
	unitsKeys map[string]int
	perFile   map[string]float64
	warnings  int
	rejected  []string
}

func newStats() *stats {
	return &stats{
		kinds:     map[string]int{},
		unitsKeys: map[string]int{},
		perFile:   map[string]float64{},
	}
}

func (s *stats) add(e domain.OutputEvent) {
	kind := e.Headers[domain.HeaderRecordKind]
	s.kinds[kind]++
	if kind != string(domain.KindShot) {
		return
	}
	var shot domain.ShotEvent
	if err := json.Unmarshal(e.Value, &shot); err != nil {
		return
	}
	s.unitsKeys[shot.UnitsKey]++
	s.perFile[shot.File] += shot.DistanceMeters
	s.warnings += len(shot.Warnings)
}

func (s *stats) print(w io.Writer, total int) {
	fmt.Fprintln(w, "\n=== Resolution summary ===")
	fmt.Fprintf(w, "Records: %d (units=%d, shot=%d, rejected=%d)\n",
		total, s.kinds[string(domain.KindUnits)], s.kinds[string(domain.KindShot)], len(s.rejected))
	fmt.Fprintf(w, "Shot warnings: %d\n", s.warnings)
	fmt.Fprintf(w, "Distinct unit contexts used by shots: %d\n", len(s.unitsKeys))

	files := make([]string, 0, len(s.perFile))
	for f := range s.perFile {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		fmt.Fprintf(w, "  %-24s %10.2f m surveyed\n", f, s.perFile[f])
	}

	for i, r := range s.rejected {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, r)
	}
}
