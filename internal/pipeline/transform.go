package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/couchcryptid/walls-survey-etl/internal/domain"
	"github.com/couchcryptid/walls-survey-etl/internal/observability"
	"github.com/couchcryptid/walls-survey-etl/internal/walls"
)

// fileState is the unit context of one survey file.
type fileState struct {
	units    *walls.MutableUnits
	snapshot *walls.Units // nil after a units record until the next shot
	lastLine int
}

// SurveyTransformer implements Transformer. It keeps one unit context per
// survey file: units records update it and shot records are resolved against
// a frozen snapshot of it.
type SurveyTransformer struct {
	mu        sync.Mutex
	files     map[string]*fileState
	snapshots *snapshotCache
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a SurveyTransformer that shares up to cacheSize
// distinct unit snapshots between files.
func NewTransformer(cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *SurveyTransformer {
	return &SurveyTransformer{
		files:     make(map[string]*fileState),
		snapshots: newSnapshotCache(cacheSize),
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *SurveyTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	rec, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	if rec.Kind == domain.KindUnits {
		return t.applyUnits(rec)
	}
	return t.resolveShot(rec)
}

// Units returns the current unit context of file, or nil when the file has
// not been seen.
func (t *SurveyTransformer) Units(file string) *walls.Units {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.files[file]
	if !ok {
		return nil
	}
	return t.snapshot(state)
}

func (t *SurveyTransformer) applyUnits(rec domain.SurveyRecord) (domain.OutputEvent, error) {
	t.mu.Lock()
	state := t.state(rec)
	state.snapshot = nil
	for _, o := range rec.Options {
		if err := walls.ApplyOption(state.units, o); err != nil {
			t.mu.Unlock()
			t.metrics.DirectiveErrors.WithLabelValues(optionLabel(o.Name)).Inc()
			return domain.OutputEvent{}, fmt.Errorf("%s: %w", rec.Location(), err)
		}
	}
	units := t.snapshot(state)
	t.mu.Unlock()

	t.metrics.RecordsResolved.WithLabelValues(string(domain.KindUnits)).Inc()
	return domain.SerializeUnitsEvent(domain.ResolveUnits(units, rec))
}

func (t *SurveyTransformer) resolveShot(rec domain.SurveyRecord) (domain.OutputEvent, error) {
	t.mu.Lock()
	units := t.snapshot(t.state(rec))
	t.mu.Unlock()

	event, err := domain.ResolveShot(units, rec)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	if len(event.Warnings) > 0 {
		t.metrics.ShotWarnings.Add(float64(len(event.Warnings)))
		t.logger.Debug("shot resolved with warnings",
			"file", rec.File, "line", rec.Line, "warnings", event.Warnings)
	}

	t.metrics.RecordsResolved.WithLabelValues(string(domain.KindShot)).Inc()
	return domain.SerializeShotEvent(event)
}

// state returns the context for rec's file. A record at or before the last
// line seen means the file is being read again from the top, so its context
// starts over. Callers hold t.mu.
func (t *SurveyTransformer) state(rec domain.SurveyRecord) *fileState {
	state, ok := t.files[rec.File]
	switch {
	case !ok:
		state = &fileState{units: walls.NewMutableUnits()}
		t.files[rec.File] = state
		t.metrics.ActiveFiles.Set(float64(len(t.files)))
		if rec.Line > 1 {
			// Earlier #units lines of this file went elsewhere or were never seen.
			t.logger.Warn("survey file first seen mid-file, resolving against default units",
				"file", rec.File, "line", rec.Line)
			t.metrics.PartialFiles.Inc()
		}
	case rec.Line <= state.lastLine:
		t.logger.Info("survey file restarted, resetting unit context",
			"file", rec.File, "line", rec.Line, "last_line", state.lastLine)
		state.units.Reset()
		state.snapshot = nil
	}
	state.lastLine = rec.Line
	return state
}

// snapshot freezes the file's context once per change and interns it.
// Callers hold t.mu.
func (t *SurveyTransformer) snapshot(state *fileState) *walls.Units {
	if state.snapshot != nil {
		return state.snapshot
	}
	shared, hit := t.snapshots.intern(state.units.Freeze())
	if hit {
		t.metrics.UnitsSnapshots.WithLabelValues("hit").Inc()
	} else {
		t.metrics.UnitsSnapshots.WithLabelValues("miss").Inc()
	}
	state.snapshot = shared
	return shared
}

// optionLabel bounds the directive_errors_total label set to known options.
func optionLabel(name string) string {
	if !walls.KnownOption(name) {
		return "unknown"
	}
	return strings.ToLower(strings.TrimSpace(name))
}
