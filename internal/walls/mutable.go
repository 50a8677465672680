package walls

import (
	"slices"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
	"github.com/couchcryptid/walls-survey-etl/internal/unit"
)

// MutableUnits is the builder a parser mutates while it reads unit directives.
// Setters always write and return the receiver for chaining. A MutableUnits is
// owned by one parsing pass and is not safe for concurrent use.
type MutableUnits struct {
	data
}

// NewMutableUnits returns a builder holding the Walls defaults.
func NewMutableUnits() *MutableUnits {
	return &MutableUnits{data: defaultData()}
}

// Freeze returns an immutable snapshot of the current fields. Later writes to
// the builder do not affect the snapshot.
func (m *MutableUnits) Freeze() *Units {
	return &Units{data: m.data}
}

// Reset restores every field to its default.
func (m *MutableUnits) Reset() *MutableUnits {
	m.data = defaultData()
	return m
}

// ProcessStationName re-cases only the station segment after the last colon,
// leaving explicit prefixes as written, then prepends the prefix levels the
// name does not already carry. An absent name is returned unchanged.
func (m *MutableUnits) ProcessStationName(name opt.Optional[string]) opt.Optional[string] {
	return processStationName(name, m.caseType, m.prefix, caseBaseName)
}

// SetPrefixAt sets prefix level index (0..2) to value. Trailing absent levels
// are dropped.
func (m *MutableUnits) SetPrefixAt(index int, value opt.Optional[string]) (*MutableUnits, error) {
	prefix, err := prefixAt(m.prefix, index, value)
	if err != nil {
		return nil, err
	}
	return m.SetPrefix(prefix), nil
}

// SetVectorType sets the shot vector type.
func (m *MutableUnits) SetVectorType(v VectorType) *MutableUnits {
	m.vectorType = v
	return m
}

// SetCtOrder sets the compass-and-tape field order.
func (m *MutableUnits) SetCtOrder(v []CtMeasurement) *MutableUnits {
	m.ctOrder = slices.Clone(v)
	return m
}

// SetRectOrder sets the rectangular field order.
func (m *MutableUnits) SetRectOrder(v []RectMeasurement) *MutableUnits {
	m.rectOrder = slices.Clone(v)
	return m
}

// SetDUnit sets the distance unit.
func (m *MutableUnits) SetDUnit(v unit.Unit) *MutableUnits {
	m.dUnit = v
	return m
}

// SetSUnit sets the LRUD and height unit.
func (m *MutableUnits) SetSUnit(v unit.Unit) *MutableUnits {
	m.sUnit = v
	return m
}

// SetAUnit sets the frontsight azimuth unit.
func (m *MutableUnits) SetAUnit(v unit.Unit) *MutableUnits {
	m.aUnit = v
	return m
}

// SetAbUnit sets the backsight azimuth unit.
func (m *MutableUnits) SetAbUnit(v unit.Unit) *MutableUnits {
	m.abUnit = v
	return m
}

// SetVUnit sets the frontsight inclination unit.
func (m *MutableUnits) SetVUnit(v unit.Unit) *MutableUnits {
	m.vUnit = v
	return m
}

// SetVbUnit sets the backsight inclination unit.
func (m *MutableUnits) SetVbUnit(v unit.Unit) *MutableUnits {
	m.vbUnit = v
	return m
}

// SetDecl sets the magnetic declination.
func (m *MutableUnits) SetDecl(v unit.Value) *MutableUnits {
	m.decl = v
	return m
}

// SetGrid sets the UTM grid correction.
func (m *MutableUnits) SetGrid(v unit.Value) *MutableUnits {
	m.grid = v
	return m
}

// SetRect sets the rotation applied to rectangular shots.
func (m *MutableUnits) SetRect(v unit.Value) *MutableUnits {
	m.rect = v
	return m
}

// SetIncd sets the distance correction.
func (m *MutableUnits) SetIncd(v unit.Value) *MutableUnits {
	m.incd = v
	return m
}

// SetInca sets the frontsight azimuth correction.
func (m *MutableUnits) SetInca(v unit.Value) *MutableUnits {
	m.inca = v
	return m
}

// SetIncab sets the backsight azimuth correction.
func (m *MutableUnits) SetIncab(v unit.Value) *MutableUnits {
	m.incab = v
	return m
}

// SetIncv sets the frontsight inclination correction.
func (m *MutableUnits) SetIncv(v unit.Value) *MutableUnits {
	m.incv = v
	return m
}

// SetIncvb sets the backsight inclination correction.
func (m *MutableUnits) SetIncvb(v unit.Value) *MutableUnits {
	m.incvb = v
	return m
}

// SetIncs sets the LRUD and height correction.
func (m *MutableUnits) SetIncs(v unit.Value) *MutableUnits {
	m.incs = v
	return m
}

// SetInch sets the height change added to every taped shot.
func (m *MutableUnits) SetInch(v unit.Value) *MutableUnits {
	m.inch = v
	return m
}

// SetTypeabCorrected records whether backsight azimuths are already corrected.
func (m *MutableUnits) SetTypeabCorrected(v bool) *MutableUnits {
	m.typeabCorrected = v
	return m
}

// SetTypeabTolerance sets the allowed frontsight/backsight azimuth disagreement.
func (m *MutableUnits) SetTypeabTolerance(v unit.Value) *MutableUnits {
	m.typeabTolerance = v
	return m
}

// SetTypeabNoAverage records whether backsight azimuths are left out of the average.
func (m *MutableUnits) SetTypeabNoAverage(v bool) *MutableUnits {
	m.typeabNoAverage = v
	return m
}

// SetTypevbCorrected records whether backsight inclinations are already corrected.
func (m *MutableUnits) SetTypevbCorrected(v bool) *MutableUnits {
	m.typevbCorrected = v
	return m
}

// SetTypevbTolerance sets the allowed frontsight/backsight inclination disagreement.
func (m *MutableUnits) SetTypevbTolerance(v unit.Value) *MutableUnits {
	m.typevbTolerance = v
	return m
}

// SetTypevbNoAverage records whether backsight inclinations are left out of the average.
func (m *MutableUnits) SetTypevbNoAverage(v bool) *MutableUnits {
	m.typevbNoAverage = v
	return m
}

// SetCase sets the station name case policy.
func (m *MutableUnits) SetCase(v CaseType) *MutableUnits {
	m.caseType = v
	return m
}

// SetLrud sets the LRUD station (from or to).
func (m *MutableUnits) SetLrud(v LrudType) *MutableUnits {
	m.lrud = v
	return m
}

// SetLrudOrder sets the LRUD field order.
func (m *MutableUnits) SetLrudOrder(v []LrudMeasurement) *MutableUnits {
	m.lrudOrder = slices.Clone(v)
	return m
}

// SetTape sets the taping method for both tape ends.
func (m *MutableUnits) SetTape(v []TapingMethodMeasurement) *MutableUnits {
	m.tape = slices.Clone(v)
	return m
}

// SetFlag sets the shot flag. An absent v clears it.
func (m *MutableUnits) SetFlag(v opt.Optional[string]) *MutableUnits {
	m.flag = v
	return m
}

// SetPrefix replaces the whole prefix list, innermost level first. Trailing
// absent levels are dropped.
func (m *MutableUnits) SetPrefix(v []opt.Optional[string]) *MutableUnits {
	m.prefix = slices.Clone(trimPrefix(v))
	return m
}

// SetUvh sets the horizontal variance multiplier.
func (m *MutableUnits) SetUvh(v float64) *MutableUnits {
	m.uvh = v
	return m
}

// SetUvv sets the vertical variance multiplier.
func (m *MutableUnits) SetUvv(v float64) *MutableUnits {
	m.uvv = v
	return m
}
