// Command validate performs integrity checks on a raw survey record file and
// the resolved events produced from it by cmd/resolve. It verifies record
// shape, that every directive is understood, that resolution is deterministic
// and that resolved shots fall inside physical bounds.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -in data/mock/survey_records.jsonl \
//	  -resolved data/mock/resolved_events.jsonl
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/walls-survey-etl/internal/domain"
	"github.com/couchcryptid/walls-survey-etl/internal/observability"
	"github.com/couchcryptid/walls-survey-etl/internal/pipeline"
	"github.com/couchcryptid/walls-survey-etl/internal/walls"
)

// processedAt matches cmd/resolve so regenerated output compares byte for byte.
var processedAt = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	in := flag.String("in", "", "JSON-lines file of raw survey records")
	resolved := flag.String("resolved", "", "JSON-lines file of resolved events from cmd/resolve")
	flag.Parse()

	if *in == "" || *resolved == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*in, *resolved); code != 0 {
		os.Exit(code)
	}
}

func run(inPath, resolvedPath string) int {
	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	defer domain.SetClock(nil)

	fmt.Println("=== Survey Data Integrity Validation ===")
	fmt.Println()

	raw, err := loadLines(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw records: %v\n", err)
		return 1
	}
	resolved, err := loadLines(resolvedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load resolved events: %v\n", err)
		return 1
	}

	records, parsePhase := validateRecords(raw)
	phases := []*phase{
		parsePhase,
		validateDirectives(records),
		validateDeterminism(raw, resolved),
		validateShotBounds(resolved),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw, %d resolved\n", len(raw), len(resolved))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadLines(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		lines = append(lines, append([]byte(nil), scanner.Bytes()...))
	}
	return lines, scanner.Err()
}

// ── Phase 1: Record Shape ──

func validateRecords(raw [][]byte) ([]domain.SurveyRecord, *phase) {
	p := &phase{name: "Phase 1: Record Shape"}

	records := make([]domain.SurveyRecord, 0, len(raw))
	lastLine := map[string]int{}
	for i, line := range raw {
		rec, err := domain.ParseRawEvent(domain.RawEvent{Value: line})
		if err != nil {
			p.errorf("input line %d: %v", i+1, err)
			continue
		}
		if prev, ok := lastLine[rec.File]; ok && rec.Line <= prev {
			p.errorf("%s: line %d follows line %d, file context would restart", rec.Location(), rec.Line, prev)
		}
		lastLine[rec.File] = rec.Line
		records = append(records, rec)
	}
	return records, p
}

// ── Phase 2: Directives ──
// Every option must be known and apply cleanly in the context built so far.

func validateDirectives(records []domain.SurveyRecord) *phase {
	p := &phase{name: "Phase 2: Unit Directives"}

	contexts := map[string]*walls.MutableUnits{}
	for _, rec := range records {
		if rec.Kind != domain.KindUnits {
			continue
		}
		m, ok := contexts[rec.File]
		if !ok {
			m = walls.NewMutableUnits()
			contexts[rec.File] = m
		}
		for _, o := range rec.Options {
			if !walls.KnownOption(o.Name) {
				p.errorf("%s: unknown option %q", rec.Location(), o.Name)
				continue
			}
			if err := walls.ApplyOption(m, o); err != nil {
				p.errorf("%s: %v", rec.Location(), err)
			}
		}
	}
	return p
}

// ── Phase 3: Determinism ──
// Re-resolving the raw input must reproduce the resolved file exactly.

func validateDeterminism(raw, resolved [][]byte) *phase {
	p := &phase{name: "Phase 3: Deterministic Resolution"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transformer := pipeline.NewTransformer(len(raw)+1, logger, observability.NewMetricsForTesting())

	var regenerated [][]byte
	for _, line := range raw {
		out, err := transformer.Transform(context.Background(), domain.RawEvent{Value: line})
		if err != nil {
			continue
		}
		regenerated = append(regenerated, out.Value)
	}

	if len(regenerated) != len(resolved) {
		p.errorf("event count: resolved file has %d, re-resolution produced %d", len(resolved), len(regenerated))
	}
	for i := range min(len(regenerated), len(resolved)) {
		if !bytes.Equal(regenerated[i], resolved[i]) {
			p.errorf("event %d differs:\n      file: %s\n      want: %s", i+1, resolved[i], regenerated[i])
		}
	}
	return p
}

// ── Phase 4: Shot Bounds ──

func validateShotBounds(resolved [][]byte) *phase {
	p := &phase{name: "Phase 4: Shot Bounds"}

	ids := map[string]int{}
	for i, line := range resolved {
		var ev struct {
			ID       string   `json:"id"`
			Distance *float64 `json:"distance_m"`
		}
		if err := json.Unmarshal(line, &ev); err != nil {
			p.errorf("event %d: %v", i+1, err)
			continue
		}
		if prev, ok := ids[ev.ID]; ok {
			p.errorf("event %d: id %s already used by event %d", i+1, ev.ID, prev)
		}
		ids[ev.ID] = i + 1
		if ev.Distance == nil {
			continue
		}

		var shot domain.ShotEvent
		if err := json.Unmarshal(line, &shot); err != nil {
			p.errorf("event %d: %v", i+1, err)
			continue
		}
		loc := fmt.Sprintf("%s:%d", shot.File, shot.Line)
		if shot.DistanceMeters < 0 {
			p.errorf("%s: negative distance %g", loc, shot.DistanceMeters)
		}
		if az, ok := shot.AzimuthDegrees.Get(); ok && (az < 0 || az >= 360) {
			p.errorf("%s: azimuth %g outside [0, 360)", loc, az)
		}
		if shot.InclinationDegrees < -90 || shot.InclinationDegrees > 90 {
			p.errorf("%s: inclination %g outside [-90, 90]", loc, shot.InclinationDegrees)
		}
		if len(shot.LrudOrder) != 4 {
			p.errorf("%s: lrud order %q is not a permutation of LRUD", loc, shot.LrudOrder)
		}
		if !shot.From.IsPresent() && !shot.To.IsPresent() {
			p.errorf("%s: shot has no stations", loc)
		}
	}
	return p
}
