package pipeline_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/walls-survey-etl/internal/domain"
	"github.com/couchcryptid/walls-survey-etl/internal/observability"
	"github.com/couchcryptid/walls-survey-etl/internal/pipeline"
	"github.com/couchcryptid/walls-survey-etl/internal/unit"
	"github.com/couchcryptid/walls-survey-etl/internal/walls"
)

func loadFixture(t *testing.T) []domain.RawEvent {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "..", "data", "mock", "survey_records.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var events []domain.RawEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		events = append(events, domain.RawEvent{Value: line})
	}
	require.NoError(t, scanner.Err())
	return events
}

func record(t *testing.T, v map[string]any) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return domain.RawEvent{Value: data}
}

func decodeShot(t *testing.T, out domain.OutputEvent) domain.ShotEvent {
	t.Helper()
	require.Equal(t, "shot", out.Headers[domain.HeaderRecordKind])
	var shot domain.ShotEvent
	require.NoError(t, json.Unmarshal(out.Value, &shot))
	return shot
}

func TestSurveyTransformer_Fixture(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer(16, slog.Default(), metrics)

	shots := make(map[string]domain.ShotEvent)
	var errs []error
	for _, raw := range loadFixture(t) {
		out, err := tfm.Transform(context.Background(), raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if out.Headers[domain.HeaderRecordKind] == "shot" {
			shot := decodeShot(t, out)
			shots[fmt.Sprintf("%s:%d", shot.File, shot.Line)] = shot
		}
	}

	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], walls.ErrInvalidDirective)
	assert.Contains(t, errs[0].Error(), `cave.srv:10: option "decl"`)
	assert.ErrorIs(t, errs[1], domain.ErrInvalidRecord)
	assert.Contains(t, errs[1].Error(), "entrance.srv:3")
	require.Len(t, shots, 8)

	first := shots["cave.srv:2"]
	assert.Equal(t, "MAIN:A1", first.From.OrElse(""))
	assert.Equal(t, "MAIN:A2", first.To.OrElse(""))
	assert.InDelta(t, 25.3*0.3048, first.DistanceMeters, 1e-9)
	assert.InDelta(t, 47.75, first.AzimuthDegrees.OrElse(-1), 1e-9)
	assert.InDelta(t, -3.25, first.InclinationDegrees, 1e-9)
	assert.InDelta(t, 3*0.3048, first.Lrud.Left.OrElse(-1), 1e-9)

	prefixed := shots["cave.srv:5"]
	assert.Equal(t, "CAVE:MAIN:A3", prefixed.From.OrElse(""))
	assert.Equal(t, "SURVEY", prefixed.Flag.OrElse(""))
	assert.InDelta(t, 202.5, prefixed.AzimuthDegrees.OrElse(-1), 1e-9)

	corrected := shots["cave.srv:7"]
	assert.InDelta(t, 315.5, corrected.AzimuthDegrees.OrElse(-1), 1e-9)
	assert.InDelta(t, 2.25, corrected.InclinationDegrees, 1e-9)
	assert.Len(t, corrected.Warnings, 1)

	rect := shots["cave.srv:9"]
	assert.InDelta(t, 5.0990195*0.3048, rect.DistanceMeters, 1e-6)
	assert.InDelta(t, 36.8698976, rect.AzimuthDegrees.OrElse(-1), 1e-6)

	afterReset := shots["cave.srv:12"]
	assert.Equal(t, "A6", afterReset.From.OrElse(""))
	assert.InDelta(t, 10.0, afterReset.DistanceMeters, 1e-9)
	assert.Equal(t, walls.DefaultUnits().Key(), tfm.Units("cave.srv").Key())

	vertical := shots["entrance.srv:2"]
	assert.InDelta(t, -90.0, vertical.InclinationDegrees, 1e-9)

	entrance := shots["entrance.srv:4"]
	assert.InDelta(t, 45.0, entrance.AzimuthDegrees.OrElse(-1), 1e-9)
	assert.Equal(t, "UDLR", entrance.LrudOrder)
	assert.Equal(t, walls.To, entrance.LrudType)
	assert.Empty(t, cmp.Diff([]float64{3, 4, 1, 2}, []float64{
		entrance.Lrud.Left.OrElse(-1), entrance.Lrud.Right.OrElse(-1),
		entrance.Lrud.Up.OrElse(-1), entrance.Lrud.Down.OrElse(-1),
	}))

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.DirectiveErrors.WithLabelValues("decl")), 0)
	assert.InDelta(t, 8.0, testutil.ToFloat64(metrics.RecordsResolved.WithLabelValues("shot")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ShotWarnings), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.ActiveFiles), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.PartialFiles), 0)
}

func TestSurveyTransformer_FileFirstSeenMidFile(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer(16, slog.Default(), metrics)

	out, err := tfm.Transform(context.Background(), record(t, map[string]any{
		"file": "late.srv", "line": 7, "kind": "shot",
		"from": "B1", "to": "B2", "distance": "10", "fs_azimuth": "90",
	}))
	require.NoError(t, err)

	shot := decodeShot(t, out)
	assert.InDelta(t, 10.0, shot.DistanceMeters, 1e-9)
	assert.Equal(t, unit.Meter, tfm.Units("late.srv").DUnit())
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PartialFiles), 0)

	_, err = tfm.Transform(context.Background(), record(t, map[string]any{
		"file": "late.srv", "line": 8, "kind": "units",
		"options": []map[string]string{{"name": "feet"}},
	}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PartialFiles), 0)
}

func TestSurveyTransformer_FilesAreIndependent(t *testing.T) {
	tfm := pipeline.NewTransformer(16, slog.Default(), observability.NewMetricsForTesting())

	_, err := tfm.Transform(context.Background(), record(t, map[string]any{
		"file": "a.srv", "line": 1, "kind": "units",
		"options": []map[string]string{{"name": "feet"}},
	}))
	require.NoError(t, err)

	assert.Equal(t, unit.Foot, tfm.Units("a.srv").DUnit())
	assert.Nil(t, tfm.Units("b.srv"))
}

func TestSurveyTransformer_SharesEqualSnapshots(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer(16, slog.Default(), metrics)

	for _, file := range []string{"a.srv", "b.srv"} {
		_, err := tfm.Transform(context.Background(), record(t, map[string]any{
			"file": file, "line": 1, "kind": "units",
			"options": []map[string]string{{"name": "feet"}, {"name": "decl", "value": "3"}},
		}))
		require.NoError(t, err)
	}

	assert.Same(t, tfm.Units("a.srv"), tfm.Units("b.srv"))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.UnitsSnapshots.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.UnitsSnapshots.WithLabelValues("hit")), 0)
}

func TestSurveyTransformer_RestartedFileResets(t *testing.T) {
	tfm := pipeline.NewTransformer(16, slog.Default(), observability.NewMetricsForTesting())
	units := func(line int, name string) domain.RawEvent {
		return record(t, map[string]any{
			"file": "a.srv", "line": line, "kind": "units",
			"options": []map[string]string{{"name": name}},
		})
	}

	_, err := tfm.Transform(context.Background(), units(1, "feet"))
	require.NoError(t, err)
	_, err = tfm.Transform(context.Background(), units(5, "rect"))
	require.NoError(t, err)
	assert.Equal(t, walls.Rectangular, tfm.Units("a.srv").VectorType())

	_, err = tfm.Transform(context.Background(), units(1, "feet"))
	require.NoError(t, err)
	assert.Equal(t, walls.CompassAndTape, tfm.Units("a.srv").VectorType())
	assert.Equal(t, unit.Foot, tfm.Units("a.srv").DUnit())
}

func TestSurveyTransformer_UnknownOptionLabel(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer(16, slog.Default(), metrics)

	_, err := tfm.Transform(context.Background(), record(t, map[string]any{
		"file": "a.srv", "line": 1, "kind": "units",
		"options": []map[string]string{{"name": "frobnicate"}},
	}))

	require.ErrorIs(t, err, walls.ErrInvalidDirective)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.DirectiveErrors.WithLabelValues("unknown")), 0)
}

func TestSurveyTransformer_InvalidJSON(t *testing.T) {
	tfm := pipeline.NewTransformer(16, slog.Default(), observability.NewMetricsForTesting())
	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("not json")})
	require.Error(t, err)
}
