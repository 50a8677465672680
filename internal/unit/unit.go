// Package unit implements the unitized values the survey context is expressed in:
// lengths (meters, feet) and angles (degrees, gradians, NATO mils, percent grade).
//
// A [Value] is a magnitude tagged with its [Unit]. Values and units are plain
// comparable structs, so == compares magnitude and unit exactly and both may be
// used as map keys.
package unit

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimension is the physical quantity a unit measures.
type Dimension uint8

const (
	Length Dimension = iota + 1
	Angle
)

func (d Dimension) String() string {
	switch d {
	case Length:
		return "length"
	case Angle:
		return "angle"
	default:
		return "unknown"
	}
}

// Unit identifies a unit of measure. toBase converts one unit to meters or degrees;
// it is zero for percent grade, which is not a linear scale.
type Unit struct {
	dim    Dimension
	name   string
	symbol string
	toBase float64
}

var (
	Meter   = Unit{dim: Length, name: "meters", symbol: "m", toBase: 1}
	Foot    = Unit{dim: Length, name: "feet", symbol: "ft", toBase: 0.3048}
	Degree  = Unit{dim: Angle, name: "degrees", symbol: "°", toBase: 1}
	Gradian = Unit{dim: Angle, name: "gradians", symbol: "grad", toBase: 360.0 / 400.0}
	MilNATO = Unit{dim: Angle, name: "mils", symbol: "mil", toBase: 360.0 / 6400.0}
	Percent = Unit{dim: Angle, name: "percent", symbol: "%"}
)

// Shared defaults for the unit context.
var (
	ZeroLength       = Meters(0)
	ZeroAngle        = Degrees(0)
	DefaultTolerance = Degrees(2)
)

var byName = map[string]Unit{
	Meter.name:   Meter,
	Foot.name:    Foot,
	Degree.name:  Degree,
	Gradian.name: Gradian,
	MilNATO.name: MilNATO,
	Percent.name: Percent,
}

// Lookup returns the unit with the given canonical name.
func Lookup(name string) (Unit, bool) {
	u, ok := byName[name]
	return u, ok
}

func (u Unit) Dimension() Dimension { return u.dim }
func (u Unit) Name() string         { return u.name }
func (u Unit) Symbol() string       { return u.symbol }
func (u Unit) String() string       { return u.name }

// MarshalText encodes the canonical unit name.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.name), nil
}

// UnmarshalText decodes a canonical unit name.
func (u *Unit) UnmarshalText(text []byte) error {
	v, ok := Lookup(string(text))
	if !ok {
		return fmt.Errorf("unknown unit %q", text)
	}
	*u = v
	return nil
}

// Value is a magnitude in a specific unit.
type Value struct {
	Magnitude float64
	Unit      Unit
}

// New returns a value of magnitude m in unit u.
func New(m float64, u Unit) Value {
	return Value{Magnitude: m, Unit: u}
}

func Meters(m float64) Value       { return New(m, Meter) }
func Feet(m float64) Value         { return New(m, Foot) }
func Degrees(m float64) Value      { return New(m, Degree) }
func Gradians(m float64) Value     { return New(m, Gradian) }
func MilsNATO(m float64) Value     { return New(m, MilNATO) }
func PercentGrade(m float64) Value { return New(m, Percent) }

// Negate returns the value with its sign flipped.
func (v Value) Negate() Value {
	return New(-v.Magnitude, v.Unit)
}

// Add returns v + o, expressed in v's unit.
func (v Value) Add(o Value) Value {
	return New(v.Magnitude+o.Float64In(v.Unit), v.Unit)
}

// Sub returns v - o, expressed in v's unit.
func (v Value) Sub(o Value) Value {
	return New(v.Magnitude-o.Float64In(v.Unit), v.Unit)
}

// Mul scales the magnitude by f.
func (v Value) Mul(f float64) Value {
	return New(v.Magnitude*f, v.Unit)
}

// Abs returns the value with a non-negative magnitude.
func (v Value) Abs() Value {
	return New(math.Abs(v.Magnitude), v.Unit)
}

// IsZero reports whether the magnitude is zero.
func (v Value) IsZero() bool {
	return v.Magnitude == 0
}

// In converts v to unit u. It panics when u measures a different dimension.
func (v Value) In(u Unit) Value {
	if v.Unit == u {
		return v
	}
	if v.Unit.dim != u.dim {
		panic(fmt.Sprintf("unit: cannot convert %s to %s", v.Unit.dim, u.dim))
	}
	return New(fromBase(toBase(v), u), u)
}

// Float64In returns the magnitude of v expressed in unit u.
func (v Value) Float64In(u Unit) float64 {
	return v.In(u).Magnitude
}

func toBase(v Value) float64 {
	if v.Unit == Percent {
		return math.Atan(v.Magnitude/100) * 180 / math.Pi
	}
	return v.Magnitude * v.Unit.toBase
}

func fromBase(base float64, u Unit) float64 {
	if u == Percent {
		return math.Tan(base*math.Pi/180) * 100
	}
	return base / u.toBase
}

func (v Value) String() string {
	return strconv.FormatFloat(v.Magnitude, 'g', -1, 64) + v.Unit.symbol
}

type valueJSON struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueJSON{Value: v.Magnitude, Unit: v.Unit})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw valueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = New(raw.Value, raw.Unit)
	return nil
}

var lengthNames = map[string]Unit{
	"meters": Meter,
	"meter":  Meter,
	"m":      Meter,
	"feet":   Foot,
	"foot":   Foot,
	"ft":     Foot,
	"f":      Foot,
}

var azimuthNames = map[string]Unit{
	"degrees": Degree,
	"degree":  Degree,
	"deg":     Degree,
	"d":       Degree,
	"mills":   MilNATO,
	"mils":    MilNATO,
	"mil":     MilNATO,
	"m":       MilNATO,
	"grads":   Gradian,
	"grad":    Gradian,
	"g":       Gradian,
}

// ParseLengthUnit resolves a Walls length unit keyword, case-insensitively.
func ParseLengthUnit(name string) (Unit, bool) {
	u, ok := lengthNames[strings.ToLower(name)]
	return u, ok
}

// ParseAzimuthUnit resolves a Walls azimuth unit keyword, case-insensitively.
func ParseAzimuthUnit(name string) (Unit, bool) {
	u, ok := azimuthNames[strings.ToLower(name)]
	return u, ok
}

// ParseInclinationUnit resolves a Walls inclination unit keyword. Inclinations
// accept every azimuth unit plus percent grade.
func ParseInclinationUnit(name string) (Unit, bool) {
	name = strings.ToLower(name)
	if name == "percent" || name == "p" {
		return Percent, true
	}
	u, ok := azimuthNames[name]
	return u, ok
}
