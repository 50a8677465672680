package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
	"github.com/couchcryptid/walls-survey-etl/internal/unit"
	"github.com/couchcryptid/walls-survey-etl/internal/walls"
)

// ErrInvalidRecord is returned for records that cannot be parsed or resolved.
var ErrInvalidRecord = errors.New("invalid survey record")

// missingValue is the placeholder surveyors write for an unrecorded measurement.
const missingValue = "--"

// Header keys set on every output message.
const (
	HeaderRecordKind  = "record_kind"
	HeaderProcessedAt = "processed_at"
)

// ParseRawEvent deserializes a RawEvent's value into a SurveyRecord. Measurements
// are parsed as plain numbers; units are applied later by ResolveShot.
func ParseRawEvent(raw RawEvent) (SurveyRecord, error) {
	var rec RawSurveyRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return SurveyRecord{}, fmt.Errorf("parse raw event: %w", err)
	}

	loc := formatLocation(rec.File, rec.Line)
	if strings.TrimSpace(rec.File) == "" {
		return SurveyRecord{}, fmt.Errorf("%s: missing file: %w", loc, ErrInvalidRecord)
	}
	if rec.Line < 1 {
		return SurveyRecord{}, fmt.Errorf("%s: line numbers start at 1: %w", loc, ErrInvalidRecord)
	}
	kind := RecordKind(strings.ToLower(strings.TrimSpace(rec.Kind)))
	if kind != KindUnits && kind != KindShot {
		return SurveyRecord{}, fmt.Errorf("%s: unknown record kind %q: %w", loc, rec.Kind, ErrInvalidRecord)
	}

	out := SurveyRecord{
		File:       rec.File,
		Line:       rec.Line,
		Kind:       kind,
		Options:    rec.Options,
		From:       parseStation(rec.From),
		To:         parseStation(rec.To),
		RawPayload: raw.Value,
	}
	if kind == KindUnits {
		return out, nil
	}

	fields := []struct {
		name  string
		value string
		dst   *opt.Optional[float64]
	}{
		{"distance", rec.Distance, &out.Distance},
		{"fs_azimuth", rec.FsAzimuth, &out.FsAzimuth},
		{"bs_azimuth", rec.BsAzimuth, &out.BsAzimuth},
		{"fs_inclination", rec.FsInclination, &out.FsInclination},
		{"bs_inclination", rec.BsInclination, &out.BsInclination},
		{"east", rec.East, &out.East},
		{"north", rec.North, &out.North},
		{"up", rec.Up, &out.Up},
		{"instrument_height", rec.InstHeight, &out.InstHeight},
		{"target_height", rec.TargetHeight, &out.TargetHeight},
	}
	for _, f := range fields {
		v, err := parseNumber(f.value)
		if err != nil {
			return SurveyRecord{}, fmt.Errorf("%s: %s: %w", loc, f.name, err)
		}
		*f.dst = v
	}

	if len(rec.Lruds) > 0 {
		out.Lruds = make([]opt.Optional[float64], len(rec.Lruds))
		for i, s := range rec.Lruds {
			v, err := parseNumber(s)
			if err != nil {
				return SurveyRecord{}, fmt.Errorf("%s: lruds[%d]: %w", loc, i, err)
			}
			out.Lruds[i] = v
		}
	}
	return out, nil
}

func parseStation(s string) opt.Optional[string] {
	s = strings.TrimSpace(s)
	if s == "" {
		return opt.None[string]()
	}
	return opt.Some(s)
}

// parseNumber reads a decimal measurement. Blank and "--" mean not recorded.
func parseNumber(s string) (opt.Optional[float64], error) {
	s = strings.TrimSpace(s)
	if s == "" || s == missingValue {
		return opt.None[float64](), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return opt.None[float64](), fmt.Errorf("invalid number %q: %w", s, ErrInvalidRecord)
	}
	return opt.Some(v), nil
}

// ResolveShot applies the unit context to a shot record: station prefixes and
// case, instrument corrections, backsight conventions, declination and LRUD
// ordering. The result is in meters and degrees.
func ResolveShot(units *walls.Units, rec SurveyRecord) (ShotEvent, error) {
	loc := rec.Location()
	if rec.Kind != KindShot {
		return ShotEvent{}, fmt.Errorf("%s: expected a shot, got %q: %w", loc, rec.Kind, ErrInvalidRecord)
	}

	from := units.ProcessStationName(rec.From)
	to := units.ProcessStationName(rec.To)
	if !from.IsPresent() && !to.IsPresent() {
		return ShotEvent{}, fmt.Errorf("%s: shot has neither from nor to station: %w", loc, ErrInvalidRecord)
	}

	var (
		v   vector
		err error
	)
	if units.VectorType() == walls.Rectangular {
		v, err = resolveRectangular(units, rec)
	} else {
		v, err = resolveCompassAndTape(units, rec)
	}
	if err != nil {
		return ShotEvent{}, fmt.Errorf("%s: %w", loc, err)
	}

	lrud, err := resolveLrud(units, rec.Lruds)
	if err != nil {
		return ShotEvent{}, fmt.Errorf("%s: %w", loc, err)
	}

	return ShotEvent{
		ID:                 generateID("shot", rec.File, strconv.Itoa(rec.Line), from.OrElse(""), to.OrElse("")),
		File:               rec.File,
		Line:               rec.Line,
		From:               from,
		To:                 to,
		DistanceMeters:     v.distance,
		AzimuthDegrees:     v.azimuth,
		InclinationDegrees: v.inclination,
		Lrud:               lrud,
		LrudType:           units.Lrud(),
		LrudOrder:          units.LrudOrderString(),
		Flag:               units.Flag(),
		Warnings:           v.warnings,
		UnitsKey:           UnitsKey(units),
		ProcessedAt:        clock.Now(),
	}, nil
}

// ResolveUnits wraps the context produced by a units record.
func ResolveUnits(units *walls.Units, rec SurveyRecord) UnitsEvent {
	key := UnitsKey(units)
	return UnitsEvent{
		ID:          generateID("units", rec.File, strconv.Itoa(rec.Line), key),
		File:        rec.File,
		Line:        rec.Line,
		Units:       units,
		UnitsKey:    key,
		ProcessedAt: clock.Now(),
	}
}

// vector is a shot's corrected direction and length.
type vector struct {
	distance    float64
	azimuth     opt.Optional[float64]
	inclination float64
	warnings    []string
}

func resolveCompassAndTape(u *walls.Units, rec SurveyRecord) (vector, error) {
	d, ok := rec.Distance.Get()
	if !ok {
		return vector{}, fmt.Errorf("missing distance: %w", ErrInvalidRecord)
	}
	v := vector{distance: unit.New(d, u.DUnit()).Add(u.Incd()).Float64In(unit.Meter)}
	if v.distance < 0 {
		return vector{}, fmt.Errorf("corrected distance is negative: %w", ErrInvalidRecord)
	}

	inclination, measured := resolveInclination(u, rec, &v.warnings)
	v.inclination = inclination
	if err := applyHeightCorrections(u, rec, &v, measured); err != nil {
		return vector{}, err
	}

	azimuth := resolveAzimuth(u, rec, &v.warnings)
	if !azimuth.IsPresent() && !isVertical(v.inclination) && v.distance != 0 {
		return vector{}, fmt.Errorf("missing azimuth on a non-vertical shot: %w", ErrInvalidRecord)
	}
	declination := u.Decl().Float64In(unit.Degree) - u.Grid().Float64In(unit.Degree)
	v.azimuth = opt.Map(azimuth, func(a float64) float64 { return normalizeAzimuth(a + declination) })
	return v, nil
}

// resolveInclination returns the corrected inclination in degrees, and false
// with zero when neither sight was recorded.
func resolveInclination(u *walls.Units, rec SurveyRecord, warnings *[]string) (float64, bool) {
	fs := opt.Map(rec.FsInclination, func(f float64) unit.Value {
		return unit.New(f, u.VUnit()).Add(u.Incv())
	})
	bs := opt.Map(rec.BsInclination, func(f float64) unit.Value {
		return unit.New(f, u.VbUnit()).Add(u.Incvb())
	})

	f, hasFS := fs.Get()
	b, hasBS := bs.Get()
	if hasFS && hasBS {
		if !u.TypevbCorrected() {
			b = b.Negate()
		}
		diff := math.Abs(f.Float64In(unit.Degree) - b.Float64In(unit.Degree))
		if diff > u.TypevbTolerance().Float64In(unit.Degree) {
			*warnings = append(*warnings, fmt.Sprintf("frontsight and backsight inclinations differ by %.1f°", diff))
		}
		if u.TypevbNoAverage() {
			return f.Float64In(unit.Degree), true
		}
	}

	avg, ok := u.AverageInclination(fs, bs).Get()
	if !ok {
		return 0, false
	}
	return avg.Float64In(unit.Degree), true
}

// applyHeightCorrections turns a taped vector between instrument, target or
// stations into the station-to-station vector, using the instrument and
// target heights, the taping method and the inch correction. v holds the
// corrected tape distance and inclination on entry.
func applyHeightCorrections(u *walls.Units, rec SurveyRecord, v *vector, measured bool) error {
	inch := u.Inch().Float64In(unit.Meter)
	height := func(h opt.Optional[float64]) float64 {
		return opt.Map(h, func(f float64) float64 {
			return unit.New(f, u.SUnit()).Add(u.Incs()).Float64In(unit.Meter)
		}).OrElse(0)
	}
	ih, th := height(rec.InstHeight), height(rec.TargetHeight)

	if (measured && isVertical(v.inclination)) || (inch == 0 && ih == 0 && th == 0) {
		return nil
	}

	tape := u.Tape()
	fromStation := tape[0] == walls.Station
	toStation := tape[1] == walls.Station
	tapeDist := v.distance

	var (
		dist, inc float64
		solved    bool
	)
	if fromStation && toStation && (!measured || v.inclination == 0) {
		// Dive shot: the depth change alone fixes the inclination.
		offset := ih - th
		if math.Abs(offset) > tapeDist*(1+1e-6) {
			v.warnings = append(v.warnings, fmt.Sprintf(
				"change in depth %.3f m exceeds taped distance %.3f m, distance set to match", math.Abs(offset), tapeDist))
			tapeDist = math.Abs(offset)
		}
		switch {
		case tapeDist == 0:
			dist, inc = math.Abs(inch), 0
			if inch != 0 {
				inc = math.Copysign(90, inch)
			}
		case math.Abs(math.Abs(offset)-tapeDist) < tapeDist*1e-8:
			inc = -90
			if offset > 0 {
				inc = 90
			}
			dist = math.Abs(offset + inch)
		case inch != 0:
			horizontal := math.Sqrt(tapeDist*tapeDist - offset*offset)
			rise := offset + inch
			dist = math.Hypot(horizontal, rise)
			inc = degrees(math.Atan2(rise, horizontal))
		default:
			dist = tapeDist
			inc = degrees(math.Asin(offset / tapeDist))
		}
		solved = true
	}

	if !solved {
		theta := 0.0
		if measured {
			theta = v.inclination * math.Pi / 180
		}
		tapeFrom, tapeTo := ih, th
		if fromStation {
			tapeFrom = 0
		}
		if toStation {
			tapeTo = 0
		}
		delta := (ih - tapeFrom) - (th - tapeTo)
		if math.Abs(delta) > tapeDist {
			return fmt.Errorf("ambiguous vector: instrument and target heights above the tape differ by more than the distance, split the shot: %w", ErrInvalidRecord)
		}
		sin, cos := math.Sincos(theta)
		instToTarget := math.Sqrt(tapeDist*tapeDist-math.Pow(delta*cos, 2)) - delta*sin
		rise := instToTarget*sin + ih - th + inch
		run := instToTarget * cos
		dist = math.Hypot(rise, run)
		inc = degrees(math.Atan2(rise, run))
	}

	v.distance = dist
	v.inclination = inc
	return nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// resolveAzimuth returns the magnetic azimuth in degrees, before declination.
func resolveAzimuth(u *walls.Units, rec SurveyRecord, warnings *[]string) opt.Optional[float64] {
	fs := opt.Map(rec.FsAzimuth, func(f float64) float64 {
		return unit.New(f, u.AUnit()).Add(u.Inca()).Float64In(unit.Degree)
	})
	bs := opt.Map(rec.BsAzimuth, func(f float64) float64 {
		b := unit.New(f, u.AbUnit()).Add(u.Incab()).Float64In(unit.Degree)
		if !u.TypeabCorrected() {
			b += 180
		}
		return b
	})

	f, hasFS := fs.Get()
	b, hasBS := bs.Get()
	switch {
	case !hasFS:
		return bs
	case !hasBS:
		return fs
	}

	diff := math.Remainder(b-f, 360)
	if math.Abs(diff) > u.TypeabTolerance().Float64In(unit.Degree) {
		*warnings = append(*warnings, fmt.Sprintf("frontsight and backsight azimuths differ by %.1f°", math.Abs(diff)))
	}
	if u.TypeabNoAverage() {
		return fs
	}
	return opt.Some(f + diff/2)
}

// resolveRectangular derives distance, azimuth and inclination from east,
// north and up offsets. The rect correction rotates the azimuth.
func resolveRectangular(u *walls.Units, rec SurveyRecord) (vector, error) {
	e, hasE := rec.East.Get()
	n, hasN := rec.North.Get()
	if !hasE || !hasN {
		return vector{}, fmt.Errorf("rectangular shot needs east and north: %w", ErrInvalidRecord)
	}
	meters := func(f float64) float64 { return unit.New(f, u.DUnit()).Float64In(unit.Meter) }
	e, n = meters(e), meters(n)
	up := meters(rec.Up.OrElse(0))

	ne := math.Hypot(e, n)
	v := vector{
		distance:    math.Hypot(ne, up),
		inclination: degrees(math.Atan2(up, ne)),
	}
	if ne != 0 {
		az := degrees(math.Atan2(e, n)) + u.Rect().Float64In(unit.Degree)
		v.azimuth = opt.Some(normalizeAzimuth(az))
	}
	return v, nil
}

// resolveLrud assigns passage dimensions by the LRUD order and converts them
// to meters after the incs correction.
func resolveLrud(u *walls.Units, values []opt.Optional[float64]) (Lrud, error) {
	order := u.LrudOrder()
	if len(values) > len(order) {
		return Lrud{}, fmt.Errorf("%d lrud values for order %s: %w", len(values), u.LrudOrderString(), ErrInvalidRecord)
	}

	var l Lrud
	for i, value := range values {
		m := opt.Map(value, func(f float64) float64 {
			return unit.New(f, u.SUnit()).Add(u.Incs()).Float64In(unit.Meter)
		})
		switch order[i] {
		case walls.Left:
			l.Left = m
		case walls.Right:
			l.Right = m
		case walls.Up:
			l.Up = m
		case walls.Down:
			l.Down = m
		}
	}
	return l, nil
}

func isVertical(inclination float64) bool {
	return math.Abs(math.Abs(inclination)-90) < 1e-6
}

// normalizeAzimuth wraps an azimuth into [0, 360).
func normalizeAzimuth(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// UnitsKey is a short stable hash of a unit context. Structurally equal
// contexts hash the same.
func UnitsKey(units *walls.Units) string {
	hash := sha256.Sum256([]byte(units.Key()))
	return hex.EncodeToString(hash[:8])
}

// generateID produces a deterministic ID from a record's identifying fields so
// replaying the same input yields the same ID.
func generateID(kind string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return kind + "-" + hex.EncodeToString(hash[:8])
}

func formatLocation(file string, line int) string {
	return file + ":" + strconv.Itoa(line)
}

// SerializeShotEvent marshals a ShotEvent into an OutputEvent keyed by its ID.
func SerializeShotEvent(event ShotEvent) (OutputEvent, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize shot event: %w", err)
	}
	return OutputEvent{
		Key:     []byte(event.ID),
		Value:   data,
		Headers: outputHeaders(KindShot, event.ProcessedAt),
	}, nil
}

// SerializeUnitsEvent marshals a UnitsEvent into an OutputEvent keyed by its ID.
func SerializeUnitsEvent(event UnitsEvent) (OutputEvent, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize units event: %w", err)
	}
	return OutputEvent{
		Key:     []byte(event.ID),
		Value:   data,
		Headers: outputHeaders(KindUnits, event.ProcessedAt),
	}, nil
}

func outputHeaders(kind RecordKind, processedAt time.Time) map[string]string {
	return map[string]string{
		HeaderRecordKind:  string(kind),
		HeaderProcessedAt: processedAt.Format(time.RFC3339),
	}
}
