package walls

import (
	"slices"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
	"github.com/couchcryptid/walls-survey-etl/internal/unit"
)

// Units is an immutable snapshot of the unit context. Every With method returns
// a new snapshot, or the receiver itself when the value is unchanged, so a
// *Units may be shared freely between goroutines.
type Units struct {
	data
}

// DefaultUnits returns a snapshot holding the Walls defaults.
func DefaultUnits() *Units {
	return &Units{data: defaultData()}
}

// ToMutable returns a builder seeded with this snapshot's fields.
func (u *Units) ToMutable() *MutableUnits {
	return &MutableUnits{data: u.data}
}

// Equal reports whether both snapshots hold structurally equal fields.
func (u *Units) Equal(o *Units) bool {
	if u == o {
		return true
	}
	if u == nil || o == nil {
		return false
	}
	return u.data.equal(&o.data)
}

// Key returns a canonical rendering of every field. Equal snapshots have equal
// keys, so the key can stand in for the snapshot in maps and sets.
func (u *Units) Key() string {
	return u.data.key()
}

// ProcessStationName re-cases the whole name, then prepends the prefix levels
// the name does not already carry. An absent name is returned unchanged.
func (u *Units) ProcessStationName(name opt.Optional[string]) opt.Optional[string] {
	return processStationName(name, u.caseType, u.prefix, caseWholeName)
}

// WithPrefixAt returns a snapshot with prefix level index (0..2) set to value.
// Trailing absent levels are dropped.
func (u *Units) WithPrefixAt(index int, value opt.Optional[string]) (*Units, error) {
	prefix, err := prefixAt(u.prefix, index, value)
	if err != nil {
		return nil, err
	}
	return u.WithPrefix(prefix), nil
}

func (u *Units) with(set func(*data)) *Units {
	next := &Units{data: u.data}
	set(&next.data)
	return next
}

func withValue[T comparable](u *Units, cur, v T, field func(*data) *T) *Units {
	if cur == v {
		return u
	}
	return u.with(func(d *data) { *field(d) = v })
}

func withSlice[S ~[]E, E comparable](u *Units, cur, v S, field func(*data) *S) *Units {
	if slices.Equal(cur, v) {
		return u
	}
	v = slices.Clone(v)
	return u.with(func(d *data) { *field(d) = v })
}

// WithVectorType returns a snapshot with the shot vector type set to v.
func (u *Units) WithVectorType(v VectorType) *Units {
	return withValue(u, u.vectorType, v, func(d *data) *VectorType { return &d.vectorType })
}

// WithCtOrder returns a snapshot with the compass-and-tape field order set to v.
func (u *Units) WithCtOrder(v []CtMeasurement) *Units {
	return withSlice(u, u.ctOrder, v, func(d *data) *[]CtMeasurement { return &d.ctOrder })
}

// WithRectOrder returns a snapshot with the rectangular field order set to v.
func (u *Units) WithRectOrder(v []RectMeasurement) *Units {
	return withSlice(u, u.rectOrder, v, func(d *data) *[]RectMeasurement { return &d.rectOrder })
}

// WithDUnit returns a snapshot with the distance unit set to v.
func (u *Units) WithDUnit(v unit.Unit) *Units {
	return withValue(u, u.dUnit, v, func(d *data) *unit.Unit { return &d.dUnit })
}

// WithSUnit returns a snapshot with the LRUD and height unit set to v.
func (u *Units) WithSUnit(v unit.Unit) *Units {
	return withValue(u, u.sUnit, v, func(d *data) *unit.Unit { return &d.sUnit })
}

// WithAUnit returns a snapshot with the frontsight azimuth unit set to v.
func (u *Units) WithAUnit(v unit.Unit) *Units {
	return withValue(u, u.aUnit, v, func(d *data) *unit.Unit { return &d.aUnit })
}

// WithAbUnit returns a snapshot with the backsight azimuth unit set to v.
func (u *Units) WithAbUnit(v unit.Unit) *Units {
	return withValue(u, u.abUnit, v, func(d *data) *unit.Unit { return &d.abUnit })
}

// WithVUnit returns a snapshot with the frontsight inclination unit set to v.
func (u *Units) WithVUnit(v unit.Unit) *Units {
	return withValue(u, u.vUnit, v, func(d *data) *unit.Unit { return &d.vUnit })
}

// WithVbUnit returns a snapshot with the backsight inclination unit set to v.
func (u *Units) WithVbUnit(v unit.Unit) *Units {
	return withValue(u, u.vbUnit, v, func(d *data) *unit.Unit { return &d.vbUnit })
}

// WithDecl returns a snapshot with the magnetic declination set to v.
func (u *Units) WithDecl(v unit.Value) *Units {
	return withValue(u, u.decl, v, func(d *data) *unit.Value { return &d.decl })
}

// WithGrid returns a snapshot with the UTM grid correction set to v.
func (u *Units) WithGrid(v unit.Value) *Units {
	return withValue(u, u.grid, v, func(d *data) *unit.Value { return &d.grid })
}

// WithRect returns a snapshot with the rotation applied to rectangular shots set to v.
func (u *Units) WithRect(v unit.Value) *Units {
	return withValue(u, u.rect, v, func(d *data) *unit.Value { return &d.rect })
}

// WithIncd returns a snapshot with the distance correction set to v.
func (u *Units) WithIncd(v unit.Value) *Units {
	return withValue(u, u.incd, v, func(d *data) *unit.Value { return &d.incd })
}

// WithInca returns a snapshot with the frontsight azimuth correction set to v.
func (u *Units) WithInca(v unit.Value) *Units {
	return withValue(u, u.inca, v, func(d *data) *unit.Value { return &d.inca })
}

// WithIncab returns a snapshot with the backsight azimuth correction set to v.
func (u *Units) WithIncab(v unit.Value) *Units {
	return withValue(u, u.incab, v, func(d *data) *unit.Value { return &d.incab })
}

// WithIncv returns a snapshot with the frontsight inclination correction set to v.
func (u *Units) WithIncv(v unit.Value) *Units {
	return withValue(u, u.incv, v, func(d *data) *unit.Value { return &d.incv })
}

// WithIncvb returns a snapshot with the backsight inclination correction set to v.
func (u *Units) WithIncvb(v unit.Value) *Units {
	return withValue(u, u.incvb, v, func(d *data) *unit.Value { return &d.incvb })
}

// WithIncs returns a snapshot with the LRUD and height correction set to v.
func (u *Units) WithIncs(v unit.Value) *Units {
	return withValue(u, u.incs, v, func(d *data) *unit.Value { return &d.incs })
}

// WithInch returns a snapshot with the height change added to every taped shot set to v.
func (u *Units) WithInch(v unit.Value) *Units {
	return withValue(u, u.inch, v, func(d *data) *unit.Value { return &d.inch })
}

// WithTypeabCorrected returns a snapshot recording whether backsight azimuths are already corrected.
func (u *Units) WithTypeabCorrected(v bool) *Units {
	return withValue(u, u.typeabCorrected, v, func(d *data) *bool { return &d.typeabCorrected })
}

// WithTypeabTolerance returns a snapshot with the allowed frontsight/backsight azimuth disagreement set to v.
func (u *Units) WithTypeabTolerance(v unit.Value) *Units {
	return withValue(u, u.typeabTolerance, v, func(d *data) *unit.Value { return &d.typeabTolerance })
}

// WithTypeabNoAverage returns a snapshot recording whether backsight azimuths are left out of the average.
func (u *Units) WithTypeabNoAverage(v bool) *Units {
	return withValue(u, u.typeabNoAverage, v, func(d *data) *bool { return &d.typeabNoAverage })
}

// WithTypevbCorrected returns a snapshot recording whether backsight inclinations are already corrected.
func (u *Units) WithTypevbCorrected(v bool) *Units {
	return withValue(u, u.typevbCorrected, v, func(d *data) *bool { return &d.typevbCorrected })
}

// WithTypevbTolerance returns a snapshot with the allowed frontsight/backsight inclination disagreement set to v.
func (u *Units) WithTypevbTolerance(v unit.Value) *Units {
	return withValue(u, u.typevbTolerance, v, func(d *data) *unit.Value { return &d.typevbTolerance })
}

// WithTypevbNoAverage returns a snapshot recording whether backsight inclinations are left out of the average.
func (u *Units) WithTypevbNoAverage(v bool) *Units {
	return withValue(u, u.typevbNoAverage, v, func(d *data) *bool { return &d.typevbNoAverage })
}

// WithCase returns a snapshot with the station name case policy set to v.
func (u *Units) WithCase(v CaseType) *Units {
	return withValue(u, u.caseType, v, func(d *data) *CaseType { return &d.caseType })
}

// WithLrud returns a snapshot with the LRUD station (from or to) set to v.
func (u *Units) WithLrud(v LrudType) *Units {
	return withValue(u, u.lrud, v, func(d *data) *LrudType { return &d.lrud })
}

// WithLrudOrder returns a snapshot with the LRUD field order set to v.
func (u *Units) WithLrudOrder(v []LrudMeasurement) *Units {
	return withSlice(u, u.lrudOrder, v, func(d *data) *[]LrudMeasurement { return &d.lrudOrder })
}

// WithTape returns a snapshot with the taping method for both tape ends set to v.
func (u *Units) WithTape(v []TapingMethodMeasurement) *Units {
	return withSlice(u, u.tape, v, func(d *data) *[]TapingMethodMeasurement { return &d.tape })
}

// WithFlag returns a snapshot with the shot flag set to v. An absent v clears it.
func (u *Units) WithFlag(v opt.Optional[string]) *Units {
	return withValue(u, u.flag, v, func(d *data) *opt.Optional[string] { return &d.flag })
}

// WithPrefix replaces the whole prefix list, innermost level first. Trailing
// absent levels are dropped.
func (u *Units) WithPrefix(v []opt.Optional[string]) *Units {
	return withSlice(u, u.prefix, trimPrefix(v), func(d *data) *[]opt.Optional[string] { return &d.prefix })
}

// WithUvh returns a snapshot with the horizontal variance multiplier set to v.
func (u *Units) WithUvh(v float64) *Units {
	return withValue(u, u.uvh, v, func(d *data) *float64 { return &d.uvh })
}

// WithUvv returns a snapshot with the vertical variance multiplier set to v.
func (u *Units) WithUvv(v float64) *Units {
	return withValue(u, u.uvv, v, func(d *data) *float64 { return &d.uvv })
}
