package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
)

// heightCase describes a shot by the elevations of the instrument, target and
// both stations and the horizontal distance between them, all in meters.
type heightCase struct {
	instY, targetY, fromY, toY, horizontal, inch float64
}

var tapeEnds = map[string][2]bool{ // tape method -> (from end at station, to end at station)
	"it": {false, false},
	"is": {false, true},
	"st": {true, false},
	"ss": {true, true},
}

// record builds the shot a surveyor would have taped for c using tape.
func (c heightCase) record(tape string) (rec SurveyRecord, ambiguous bool) {
	ends := tapeEnds[tape]
	tapeFromY, tapeToY := c.instY, c.targetY
	if ends[0] {
		tapeFromY = c.fromY
	}
	if ends[1] {
		tapeToY = c.toY
	}

	rec = shot("A1", "A2")
	rec.Distance = opt.Some(math.Hypot(c.horizontal, tapeToY-tapeFromY))
	rec.FsAzimuth = opt.Some(0.0)
	measured := c.horizontal != 0 && c.targetY != c.instY
	if measured {
		rec.FsInclination = opt.Some(degrees(math.Atan2(c.targetY-c.instY, math.Abs(c.horizontal))))
	}
	rec.InstHeight = opt.Some(c.instY - c.fromY)
	rec.TargetHeight = opt.Some(c.targetY - c.toY)

	dive := ends[0] && ends[1] && !measured
	delta := (c.instY - tapeFromY) - (c.targetY - tapeToY)
	return rec, !dive && math.Abs(delta) > rec.Distance.OrElse(0)
}

func (c heightCase) want() (dist, inc float64) {
	rise := c.toY + c.inch - c.fromY
	return math.Hypot(rise, c.horizontal), degrees(math.Atan2(rise, c.horizontal))
}

func TestResolveShot_HeightCorrections(t *testing.T) {
	cases := []heightCase{
		// vertical dive shots
		{0, 0, -8, -3, 0, 0},
		{0, 0, -3, -8, 0, 0},
		{0, 0, -8, -3, 0, 2},
		{0, 0, -3, -8, 0, 2},
		// near-vertical dive shots
		{0, 0, -3, -18, 0.5, 0},
		{0, 0, -18, -3, 0.5, 0},
		{0, 0, -3, -18, 0.5, 2},
		{0, 0, -18, -3, 0.5, 2},
		// instrument and target above the stations
		{3, 8, 2, 4, 7, 2},
		{3, 8, 2, 9, 7, 2},
		{3, 8, 4, 7, 7, 2},
		{3, 8, 0, 0, 7, 2},
		{3, 8, 4, 68, 7, 2},
		{3, 8, 68, 68, 7, 2},
	}

	for _, c := range cases {
		tapes := []string{"ss"}
		if c.horizontal != 0 {
			tapes = []string{"it", "is", "st", "ss"}
		}
		for _, tape := range tapes {
			t.Run(fmt.Sprintf("%s/%v", tape, c), func(t *testing.T) {
				units := unitsFrom(t, directive("tape", tape), directive("inch", fmt.Sprint(c.inch)))
				rec, ambiguous := c.record(tape)

				event, err := ResolveShot(units, rec)
				if ambiguous {
					require.Error(t, err)
					assert.True(t, errors.Is(err, ErrInvalidRecord))
					assert.Contains(t, err.Error(), "ambiguous")
					return
				}
				require.NoError(t, err)

				wantDist, wantInc := c.want()
				assert.InDelta(t, wantDist, event.DistanceMeters, 1e-9)
				assert.InDelta(t, wantInc, event.InclinationDegrees, 1e-9)
			})
		}
	}
}

func TestResolveShot_InchOnLevelShot(t *testing.T) {
	for _, tape := range []string{"ss", "it"} {
		t.Run(tape, func(t *testing.T) {
			units := unitsFrom(t, directive("inch", "5"), directive("tape", tape))
			rec := shot("A1", "A2")
			rec.Distance = opt.Some(10.0)
			rec.FsAzimuth = opt.Some(90.0)
			rec.FsInclination = opt.Some(0.0)

			event, err := ResolveShot(units, rec)
			require.NoError(t, err)
			assert.InDelta(t, math.Hypot(10, 5), event.DistanceMeters, 1e-9)
			assert.InDelta(t, degrees(math.Atan2(5, 10)), event.InclinationDegrees, 1e-9)
		})
	}
}

func TestResolveShot_HeightsInSUnit(t *testing.T) {
	units := unitsFrom(t, directive("s", "feet"), directive("tape", "ss"))
	rec := shot("A1", "A2")
	rec.Distance = opt.Some(10.0)
	rec.FsAzimuth = opt.Some(0.0)
	rec.InstHeight = opt.Some(10.0) // feet

	event, err := ResolveShot(units, rec)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, event.DistanceMeters, 1e-9)
	assert.InDelta(t, degrees(math.Asin(3.048/10)), event.InclinationDegrees, 1e-9)
}

func TestResolveShot_DepthExceedsTape(t *testing.T) {
	units := unitsFrom(t, directive("tape", "ss"))
	rec := shot("A1", "A2")
	rec.Distance = opt.Some(4.0)
	rec.InstHeight = opt.Some(0.0)
	rec.TargetHeight = opt.Some(5.0)

	event, err := ResolveShot(units, rec)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, event.DistanceMeters, 1e-9)
	assert.InDelta(t, -90.0, event.InclinationDegrees, 1e-9)
	assert.False(t, event.AzimuthDegrees.IsPresent())
	require.Len(t, event.Warnings, 1)
	assert.Contains(t, event.Warnings[0], "exceeds taped distance")
}

func TestResolveShot_NoHeightsLeavesShotAlone(t *testing.T) {
	rec := shot("A1", "A2")
	rec.Distance = opt.Some(10.0)
	rec.FsAzimuth = opt.Some(0.0)
	rec.FsInclination = opt.Some(12.0)

	event, err := ResolveShot(unitsFrom(t, directive("tape", "ss")), rec)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, event.DistanceMeters, 1e-9)
	assert.InDelta(t, 12.0, event.InclinationDegrees, 1e-9)
}
