package walls

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
	"github.com/couchcryptid/walls-survey-etl/internal/unit"
)

func names(values ...string) []opt.Optional[string] {
	out := make([]opt.Optional[string], len(values))
	for i, v := range values {
		if v == "<none>" {
			out[i] = opt.None[string]()
			continue
		}
		out[i] = opt.Some(v)
	}
	return out
}

func TestDefaultUnits(t *testing.T) {
	u := DefaultUnits()

	assert.Equal(t, CompassAndTape, u.VectorType())
	assert.Equal(t, []CtMeasurement{Distance, Azimuth, Inclination}, u.CtOrder())
	assert.Equal(t, []RectMeasurement{East, North, RectUp}, u.RectOrder())
	assert.Equal(t, unit.Meter, u.DUnit())
	assert.Equal(t, unit.Meter, u.SUnit())
	assert.Equal(t, unit.Degree, u.AUnit())
	assert.Equal(t, unit.Degree, u.VbUnit())
	assert.Equal(t, unit.Degrees(0), u.Decl())
	assert.Equal(t, unit.Meters(0), u.Incd())
	assert.Equal(t, unit.Degrees(2), u.TypeabTolerance())
	assert.Equal(t, unit.Degrees(2), u.TypevbTolerance())
	assert.False(t, u.TypeabCorrected())
	assert.False(t, u.TypevbNoAverage())
	assert.Equal(t, Mixed, u.Case())
	assert.Equal(t, From, u.Lrud())
	assert.Equal(t, "LRUD", u.LrudOrderString())
	assert.Equal(t, []TapingMethodMeasurement{InstrumentHeight, TargetHeight}, u.Tape())
	assert.False(t, u.Flag().IsPresent())
	assert.Empty(t, u.Prefix())
	assert.Zero(t, u.Uvh())
	assert.Zero(t, u.Uvv())
}

func TestUnits_WithSameValueReturnsReceiver(t *testing.T) {
	u := DefaultUnits()

	assert.Same(t, u, u.WithDUnit(unit.Meter))
	assert.Same(t, u, u.WithDecl(unit.Degrees(0)))
	assert.Same(t, u, u.WithCtOrder([]CtMeasurement{Distance, Azimuth, Inclination}))
	assert.Same(t, u, u.WithFlag(opt.None[string]()))
	assert.Same(t, u, u.WithPrefix(nil))
	assert.Same(t, u, u.WithPrefix(names("<none>", "<none>")))
}

func TestUnits_WithLeavesOriginalUntouched(t *testing.T) {
	u := DefaultUnits()
	next := u.WithDUnit(unit.Foot).WithDecl(unit.Degrees(2.5)).WithCase(Upper)

	assert.NotSame(t, u, next)
	assert.Equal(t, unit.Meter, u.DUnit())
	assert.Equal(t, unit.Foot, next.DUnit())
	assert.Equal(t, unit.Degrees(2.5), next.Decl())
	assert.Equal(t, Upper, next.Case())
	assert.False(t, u.Equal(next))
}

func TestUnits_SliceGettersReturnCopies(t *testing.T) {
	u := DefaultUnits().WithPrefix(names("a"))

	order := u.LrudOrder()
	order[0] = Down
	prefix := u.Prefix()
	prefix[0] = opt.Some("z")

	assert.Equal(t, "LRUD", u.LrudOrderString())
	assert.Equal(t, names("a"), u.Prefix())
}

func TestUnits_WithPrefixAt(t *testing.T) {
	u := DefaultUnits()

	t.Run("sets a level and pads inner levels", func(t *testing.T) {
		next, err := u.WithPrefixAt(2, opt.Some("c"))
		require.NoError(t, err)
		assert.Equal(t, names("<none>", "<none>", "c"), next.Prefix())
	})

	t.Run("clearing the outermost level trims", func(t *testing.T) {
		next, err := u.WithPrefix(names("a", "b")).WithPrefixAt(1, opt.None[string]())
		require.NoError(t, err)
		assert.Equal(t, names("a"), next.Prefix())
	})

	t.Run("clearing every level leaves an empty list", func(t *testing.T) {
		next, err := u.WithPrefix(names("<none>", "<none>", "c")).WithPrefixAt(2, opt.None[string]())
		require.NoError(t, err)
		assert.Empty(t, next.Prefix())
	})

	for _, index := range []int{-1, 3} {
		_, err := u.WithPrefixAt(index, opt.Some("x"))
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestUnits_ProcessStationName(t *testing.T) {
	base := DefaultUnits().WithPrefix(names("a", "c"))

	tests := []struct {
		name  string
		units *Units
		input string
		want  string
	}{
		{"both levels prepended", base, "b", "c:a:b"},
		{"explicit empty inner level", base, ":b", "c::b"},
		{"explicit inner level", base, "d:b", "c:d:b"},
		{"explicit empty levels vanish", base, "::b", "b"},
		{"extra colons stripped", base, ":::::b", "b"},
		{"absent inner level", DefaultUnits().WithPrefix(names("<none>", "c")), "b", "c::b"},
		{"outermost level leftmost", DefaultUnits().WithPrefix(names("A", "B", "C")), "X", "C:B:A:X"},
		{"no prefix", DefaultUnits(), "b", "b"},
		{"upper case applies to prefixes", base.WithCase(Upper), "b", "C:A:B"},
		{"upper case applies to explicit segments", DefaultUnits().WithPrefix(names("A", "B")).WithCase(Upper), "a:x", "B:A:X"},
		{"lower case", DefaultUnits().WithCase(Lower), "AbC", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.units.ProcessStationName(opt.Some(tt.input))
			assert.Equal(t, opt.Some(tt.want), got)
		})
	}

	t.Run("absent name stays absent", func(t *testing.T) {
		assert.False(t, base.ProcessStationName(opt.None[string]()).IsPresent())
	})
}

func TestUnits_AverageInclination(t *testing.T) {
	u := DefaultUnits()
	deg := func(f float64) opt.Optional[unit.Value] { return opt.Some(unit.Degrees(f)) }
	none := opt.None[unit.Value]()

	assert.Equal(t, deg(10), u.AverageInclination(deg(10), none))
	assert.Equal(t, deg(-6), u.AverageInclination(none, deg(6)))
	assert.Equal(t, deg(9), u.WithTypevbCorrected(true).AverageInclination(deg(10), deg(8)))
	assert.Equal(t, deg(10), u.AverageInclination(deg(10), deg(-10)))
	assert.False(t, u.AverageInclination(none, none).IsPresent())
}

func TestUnits_LrudOrderString(t *testing.T) {
	u := DefaultUnits().WithLrudOrder([]LrudMeasurement{Up, Down, Left, Right})
	assert.Equal(t, "UDLR", u.LrudOrderString())
}

func TestUnits_EqualAndKey(t *testing.T) {
	a := DefaultUnits().WithDUnit(unit.Foot).WithPrefix(names("a"))
	b := DefaultUnits().WithPrefix(names("a")).WithDUnit(unit.Foot)
	c := a.WithFlag(opt.Some("SPLAY"))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Key(), c.Key())

	set := map[string]*Units{a.Key(): a}
	_, ok := set[b.Key()]
	assert.True(t, ok)

	var nilUnits *Units
	assert.True(t, nilUnits.Equal(nil))
	assert.False(t, a.Equal(nil))
}

func TestUnits_KeyTreatsNegativeZeroAsZero(t *testing.T) {
	negZero := unit.Degrees(0).Negate()
	a := DefaultUnits().WithDecl(negZero)

	assert.True(t, a.Equal(DefaultUnits()))
	assert.Equal(t, DefaultUnits().Key(), a.Key())
}

func TestUnits_JSONRoundTrip(t *testing.T) {
	u := DefaultUnits().
		WithVectorType(Rectangular).
		WithDUnit(unit.Foot).
		WithVUnit(unit.Percent).
		WithDecl(unit.Degrees(-3.5)).
		WithLrud(ToAt).
		WithLrudOrder([]LrudMeasurement{Up, Down, Left, Right}).
		WithFlag(opt.Some("SURFACE")).
		WithPrefix(names("<none>", "cave"))

	data, err := json.Marshal(u)
	require.NoError(t, err)

	var decoded Units
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, u.Equal(&decoded), "diff: %s", cmp.Diff(u.Key(), decoded.Key()))
}

func TestUnits_UnmarshalJSONKeepsDefaults(t *testing.T) {
	var u Units
	require.NoError(t, json.Unmarshal([]byte(`{"d_unit":"feet","prefix":["a",null]}`), &u))

	assert.Equal(t, unit.Foot, u.DUnit())
	assert.Equal(t, unit.Meter, u.SUnit())
	assert.Equal(t, names("a"), u.Prefix())
	assert.Equal(t, "LRUD", u.LrudOrderString())
}
