package walls

import (
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
	"github.com/couchcryptid/walls-survey-etl/internal/unit"
)

// data is the field set shared by Units and MutableUnits. Slice fields are
// replaced on every write and never modified in place, so a frozen Units may
// share them with the builder it came from.
type data struct {
	vectorType VectorType
	ctOrder    []CtMeasurement
	rectOrder  []RectMeasurement

	dUnit  unit.Unit
	sUnit  unit.Unit
	aUnit  unit.Unit
	abUnit unit.Unit
	vUnit  unit.Unit
	vbUnit unit.Unit

	decl  unit.Value
	grid  unit.Value
	rect  unit.Value
	incd  unit.Value
	inca  unit.Value
	incab unit.Value
	incv  unit.Value
	incvb unit.Value
	incs  unit.Value
	inch  unit.Value

	typeabCorrected bool
	typeabTolerance unit.Value
	typeabNoAverage bool
	typevbCorrected bool
	typevbTolerance unit.Value
	typevbNoAverage bool

	caseType  CaseType
	lrud      LrudType
	lrudOrder []LrudMeasurement
	tape      []TapingMethodMeasurement
	flag      opt.Optional[string]
	prefix    []opt.Optional[string]

	uvh float64
	uvv float64
}

func defaultData() data {
	return data{
		vectorType: CompassAndTape,
		ctOrder:    []CtMeasurement{Distance, Azimuth, Inclination},
		rectOrder:  []RectMeasurement{East, North, RectUp},

		dUnit:  unit.Meter,
		sUnit:  unit.Meter,
		aUnit:  unit.Degree,
		abUnit: unit.Degree,
		vUnit:  unit.Degree,
		vbUnit: unit.Degree,

		decl:  unit.ZeroAngle,
		grid:  unit.ZeroAngle,
		rect:  unit.ZeroAngle,
		incd:  unit.ZeroLength,
		inca:  unit.ZeroAngle,
		incab: unit.ZeroAngle,
		incv:  unit.ZeroAngle,
		incvb: unit.ZeroAngle,
		incs:  unit.ZeroLength,
		inch:  unit.ZeroLength,

		typeabTolerance: unit.DefaultTolerance,
		typevbTolerance: unit.DefaultTolerance,

		caseType:  Mixed,
		lrud:      From,
		lrudOrder: []LrudMeasurement{Left, Right, Up, Down},
		tape:      []TapingMethodMeasurement{InstrumentHeight, TargetHeight},
		prefix:    []opt.Optional[string]{},
	}
}

// VectorType returns the vector type.
func (d *data) VectorType() VectorType { return d.vectorType }

// CtOrder returns the order of compass-and-tape measurements.
func (d *data) CtOrder() []CtMeasurement { return slices.Clone(d.ctOrder) }

// RectOrder returns the order of rectangular measurements.
func (d *data) RectOrder() []RectMeasurement { return slices.Clone(d.rectOrder) }

// DUnit returns the distance unit.
func (d *data) DUnit() unit.Unit { return d.dUnit }

// SUnit returns the LRUD unit.
func (d *data) SUnit() unit.Unit { return d.sUnit }

// AUnit returns the frontsight azimuth unit.
func (d *data) AUnit() unit.Unit { return d.aUnit }

// AbUnit returns the backsight azimuth unit.
func (d *data) AbUnit() unit.Unit { return d.abUnit }

// VUnit returns the frontsight inclination unit.
func (d *data) VUnit() unit.Unit { return d.vUnit }

// VbUnit returns the backsight inclination unit.
func (d *data) VbUnit() unit.Unit { return d.vbUnit }

// Decl returns the magnetic declination.
func (d *data) Decl() unit.Value { return d.decl }

// Grid returns the UTM grid correction.
func (d *data) Grid() unit.Value { return d.grid }

// Rect returns the RECT correction.
func (d *data) Rect() unit.Value { return d.rect }

// Incd returns the distance correction.
func (d *data) Incd() unit.Value { return d.incd }

// Inca returns the frontsight azimuth correction.
func (d *data) Inca() unit.Value { return d.inca }

// Incab returns the backsight azimuth correction.
func (d *data) Incab() unit.Value { return d.incab }

// Incv returns the frontsight inclination correction.
func (d *data) Incv() unit.Value { return d.incv }

// Incvb returns the backsight inclination correction.
func (d *data) Incvb() unit.Value { return d.incvb }

// Incs returns the LRUD measurement correction.
func (d *data) Incs() unit.Value { return d.incs }

// Inch returns the vertical offset correction.
func (d *data) Inch() unit.Value { return d.inch }

// TypeabCorrected reports whether backsight azimuths are corrected.
func (d *data) TypeabCorrected() bool { return d.typeabCorrected }

// TypeabTolerance returns the allowed frontsight/backsight azimuth disagreement.
func (d *data) TypeabTolerance() unit.Value { return d.typeabTolerance }

// TypeabNoAverage reports whether only the frontsight azimuth is used.
func (d *data) TypeabNoAverage() bool { return d.typeabNoAverage }

// TypevbCorrected reports whether backsight inclinations are corrected.
func (d *data) TypevbCorrected() bool { return d.typevbCorrected }

// TypevbTolerance returns the allowed frontsight/backsight inclination disagreement.
func (d *data) TypevbTolerance() unit.Value { return d.typevbTolerance }

// TypevbNoAverage reports whether only the frontsight inclination is used.
func (d *data) TypevbNoAverage() bool { return d.typevbNoAverage }

// Case returns how station names are re-cased.
func (d *data) Case() CaseType { return d.caseType }

// Lrud returns the LRUD type.
func (d *data) Lrud() LrudType { return d.lrud }

// LrudOrder returns the order LRUD measurements are recorded in.
func (d *data) LrudOrder() []LrudMeasurement { return slices.Clone(d.lrudOrder) }

// Tape returns the taping method.
func (d *data) Tape() []TapingMethodMeasurement { return slices.Clone(d.tape) }

// Flag returns the station flag.
func (d *data) Flag() opt.Optional[string] { return d.flag }

// Prefix returns the station name prefixes, innermost level first.
// The result never ends with an absent entry.
func (d *data) Prefix() []opt.Optional[string] { return slices.Clone(d.prefix) }

// Uvh returns the horizontal variance weighting.
func (d *data) Uvh() float64 { return d.uvh }

// Uvv returns the vertical variance weighting.
func (d *data) Uvv() float64 { return d.uvv }

// AverageInclination combines optional frontsight and backsight inclinations.
// Uncorrected backsights are negated first; when one side is absent the other
// is returned as is.
func (d *data) AverageInclination(fs, bs opt.Optional[unit.Value]) opt.Optional[unit.Value] {
	return averageInclination(fs, bs, d.typevbCorrected)
}

// LrudOrderString returns the LRUD order as letters, e.g. "LRUD".
func (d *data) LrudOrderString() string {
	return lrudOrderString(d.lrudOrder)
}

func (d *data) equal(o *data) bool {
	return d.vectorType == o.vectorType &&
		slices.Equal(d.ctOrder, o.ctOrder) &&
		slices.Equal(d.rectOrder, o.rectOrder) &&
		d.dUnit == o.dUnit && d.sUnit == o.sUnit &&
		d.aUnit == o.aUnit && d.abUnit == o.abUnit &&
		d.vUnit == o.vUnit && d.vbUnit == o.vbUnit &&
		d.decl == o.decl && d.grid == o.grid && d.rect == o.rect &&
		d.incd == o.incd && d.inca == o.inca && d.incab == o.incab &&
		d.incv == o.incv && d.incvb == o.incvb &&
		d.incs == o.incs && d.inch == o.inch &&
		d.typeabCorrected == o.typeabCorrected &&
		d.typeabTolerance == o.typeabTolerance &&
		d.typeabNoAverage == o.typeabNoAverage &&
		d.typevbCorrected == o.typevbCorrected &&
		d.typevbTolerance == o.typevbTolerance &&
		d.typevbNoAverage == o.typevbNoAverage &&
		d.caseType == o.caseType &&
		d.lrud == o.lrud &&
		slices.Equal(d.lrudOrder, o.lrudOrder) &&
		slices.Equal(d.tape, o.tape) &&
		d.flag == o.flag &&
		slices.Equal(d.prefix, o.prefix) &&
		d.uvh == o.uvh && d.uvv == o.uvv
}

// key renders every field in a fixed order. Two field sets are equal exactly
// when their keys are equal.
func (d *data) key() string {
	var b strings.Builder
	field := func(name, value string) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte(';')
	}
	value := func(v unit.Value) string {
		return formatFloat(v.Magnitude) + " " + v.Unit.Name()
	}
	optional := func(o opt.Optional[string]) string {
		if s, ok := o.Get(); ok {
			return strconv.Quote(s)
		}
		return "-"
	}

	field("vectorType", d.vectorType.String())
	field("ctOrder", joinEnums(d.ctOrder))
	field("rectOrder", joinEnums(d.rectOrder))
	field("dUnit", d.dUnit.Name())
	field("sUnit", d.sUnit.Name())
	field("aUnit", d.aUnit.Name())
	field("abUnit", d.abUnit.Name())
	field("vUnit", d.vUnit.Name())
	field("vbUnit", d.vbUnit.Name())
	field("decl", value(d.decl))
	field("grid", value(d.grid))
	field("rect", value(d.rect))
	field("incd", value(d.incd))
	field("inca", value(d.inca))
	field("incab", value(d.incab))
	field("incv", value(d.incv))
	field("incvb", value(d.incvb))
	field("incs", value(d.incs))
	field("inch", value(d.inch))
	field("typeabCorrected", strconv.FormatBool(d.typeabCorrected))
	field("typeabTolerance", value(d.typeabTolerance))
	field("typeabNoAverage", strconv.FormatBool(d.typeabNoAverage))
	field("typevbCorrected", strconv.FormatBool(d.typevbCorrected))
	field("typevbTolerance", value(d.typevbTolerance))
	field("typevbNoAverage", strconv.FormatBool(d.typevbNoAverage))
	field("case", d.caseType.String())
	field("lrud", d.lrud.String())
	field("lrudOrder", joinEnums(d.lrudOrder))
	field("tape", joinEnums(d.tape))
	field("flag", optional(d.flag))
	prefixes := make([]string, len(d.prefix))
	for i, p := range d.prefix {
		prefixes[i] = optional(p)
	}
	field("prefix", strings.Join(prefixes, ","))
	field("uvh", formatFloat(d.uvh))
	field("uvv", formatFloat(d.uvv))
	return b.String()
}

func joinEnums[E interface{ String() string }](elems []E) string {
	names := make([]string, len(elems))
	for i, e := range elems {
		names[i] = e.String()
	}
	return strings.Join(names, ",")
}

// formatFloat writes -0 as 0 so the key agrees with ==.
func formatFloat(f float64) string {
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
