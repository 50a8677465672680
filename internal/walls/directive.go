package walls

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
	"github.com/couchcryptid/walls-survey-etl/internal/unit"
)

// Option is one already-tokenized #units option, e.g. {Name: "decl", Value: "2.5"}.
// Options such as "feet" or "reset" carry no value.
type Option struct {
	Name  string               `json:"name"`
	Value opt.Optional[string] `json:"value"`
}

// numberRe splits a measurement into its number and an optional unit suffix,
// e.g. "2.5g" -> ("2.5", "g").
var numberRe = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+))([a-zA-Z]*)$`)

type optionFunc func(m *MutableUnits, value opt.Optional[string]) error

var options map[string]optionFunc

func init() {
	options = map[string]optionFunc{
		"reset":    func(m *MutableUnits, _ opt.Optional[string]) error { m.Reset(); return nil },
		"m":        lengthUnitsFunc(unit.Meter),
		"meters":   lengthUnitsFunc(unit.Meter),
		"f":        lengthUnitsFunc(unit.Foot),
		"feet":     lengthUnitsFunc(unit.Foot),
		"ct":       func(m *MutableUnits, _ opt.Optional[string]) error { m.SetVectorType(CompassAndTape); return nil },
		"d":        applyDUnit,
		"distance": applyDUnit,
		"s":        applySUnit,
		"a":        applyAUnit,
		"azimuth":  applyAUnit,
		"ab":       applyAbUnit,
		"a/ab":     applyAAbUnit,
		"v":        applyVUnit,
		"vertical": applyVUnit,
		"vb":       applyVbUnit,
		"v/vb":     applyVVbUnit,
		"o":        applyOrder,
		"order":    applyOrder,
		"decl":     angleFunc(func(*MutableUnits) unit.Unit { return unit.Degree }, (*MutableUnits).SetDecl),
		"grid":     angleFunc(func(*MutableUnits) unit.Unit { return unit.Degree }, (*MutableUnits).SetGrid),
		"rect":     applyRect,
		"incd":     lengthFunc((*MutableUnits).DUnit, (*MutableUnits).SetIncd),
		"inch":     lengthFunc((*MutableUnits).DUnit, (*MutableUnits).SetInch),
		"incs":     lengthFunc((*MutableUnits).SUnit, (*MutableUnits).SetIncs),
		"inca":     angleFunc((*MutableUnits).AUnit, (*MutableUnits).SetInca),
		"incab":    angleFunc((*MutableUnits).AbUnit, (*MutableUnits).SetIncab),
		"incv":     inclinationFunc((*MutableUnits).VUnit, (*MutableUnits).SetIncv),
		"incvb":    inclinationFunc((*MutableUnits).VbUnit, (*MutableUnits).SetIncvb),
		"typeab": typeFunc((*MutableUnits).SetTypeabCorrected, (*MutableUnits).SetTypeabTolerance,
			(*MutableUnits).SetTypeabNoAverage),
		"typevb": typeFunc((*MutableUnits).SetTypevbCorrected, (*MutableUnits).SetTypevbTolerance,
			(*MutableUnits).SetTypevbNoAverage),
		"case":    applyCase,
		"lrud":    applyLrud,
		"tape":    applyTape,
		"p":       prefixFunc(0),
		"prefix":  prefixFunc(0),
		"prefix1": prefixFunc(0),
		"prefix2": prefixFunc(1),
		"prefix3": prefixFunc(2),
		"uvh":     varianceFunc((*MutableUnits).SetUvh),
		"uvv":     varianceFunc((*MutableUnits).SetUvv),
		"uv":      applyUv,
		"flag":    applyFlag,
	}
}

// ApplyOption applies a single #units option to m. On error m is unchanged and
// the error wraps ErrInvalidDirective (or ErrInvalidArgument for a bad prefix level).
func ApplyOption(m *MutableUnits, o Option) error {
	name := strings.ToLower(strings.TrimSpace(o.Name))
	apply, ok := options[name]
	if !ok {
		return fmt.Errorf("option %q: unknown option: %w", o.Name, ErrInvalidDirective)
	}

	// Work on a copy so a failing option leaves m untouched.
	scratch := &MutableUnits{data: m.data}
	if err := apply(scratch, o.Value); err != nil {
		return fmt.Errorf("option %q: %w", name, err)
	}
	m.data = scratch.data
	return nil
}

// KnownOption reports whether name is a recognized #units option.
func KnownOption(name string) bool {
	_, ok := options[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// ApplyOptions applies options in order and stops at the first failure.
// Options before the failing one stay applied.
func ApplyOptions(m *MutableUnits, opts []Option) error {
	for _, o := range opts {
		if err := ApplyOption(m, o); err != nil {
			return err
		}
	}
	return nil
}

func requireValue(value opt.Optional[string]) (string, error) {
	v, ok := value.Get()
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", fmt.Errorf("missing value: %w", ErrInvalidDirective)
	}
	return v, nil
}

func lengthUnitsFunc(u unit.Unit) optionFunc {
	return func(m *MutableUnits, _ opt.Optional[string]) error {
		m.SetDUnit(u).SetSUnit(u)
		return nil
	}
}

func lookupUnit(value opt.Optional[string], parse func(string) (unit.Unit, bool)) (unit.Unit, error) {
	v, err := requireValue(value)
	if err != nil {
		return unit.Unit{}, err
	}
	u, ok := parse(v)
	if !ok {
		return unit.Unit{}, fmt.Errorf("unknown unit %q: %w", v, ErrInvalidDirective)
	}
	return u, nil
}

func applyDUnit(m *MutableUnits, value opt.Optional[string]) error {
	u, err := lookupUnit(value, unit.ParseLengthUnit)
	if err != nil {
		return err
	}
	m.SetDUnit(u)
	return nil
}

func applySUnit(m *MutableUnits, value opt.Optional[string]) error {
	u, err := lookupUnit(value, unit.ParseLengthUnit)
	if err != nil {
		return err
	}
	m.SetSUnit(u)
	return nil
}

func applyAUnit(m *MutableUnits, value opt.Optional[string]) error {
	u, err := lookupUnit(value, unit.ParseAzimuthUnit)
	if err != nil {
		return err
	}
	m.SetAUnit(u)
	return nil
}

func applyAbUnit(m *MutableUnits, value opt.Optional[string]) error {
	u, err := lookupUnit(value, unit.ParseAzimuthUnit)
	if err != nil {
		return err
	}
	m.SetAbUnit(u)
	return nil
}

func applyAAbUnit(m *MutableUnits, value opt.Optional[string]) error {
	u, err := lookupUnit(value, unit.ParseAzimuthUnit)
	if err != nil {
		return err
	}
	m.SetAUnit(u).SetAbUnit(u)
	return nil
}

func applyVUnit(m *MutableUnits, value opt.Optional[string]) error {
	u, err := lookupUnit(value, unit.ParseInclinationUnit)
	if err != nil {
		return err
	}
	m.SetVUnit(u)
	return nil
}

func applyVbUnit(m *MutableUnits, value opt.Optional[string]) error {
	u, err := lookupUnit(value, unit.ParseInclinationUnit)
	if err != nil {
		return err
	}
	m.SetVbUnit(u)
	return nil
}

func applyVVbUnit(m *MutableUnits, value opt.Optional[string]) error {
	u, err := lookupUnit(value, unit.ParseInclinationUnit)
	if err != nil {
		return err
	}
	m.SetVUnit(u).SetVbUnit(u)
	return nil
}

// parseMeasurement parses a number with an optional unit suffix. A missing
// suffix means def.
func parseMeasurement(s string, def unit.Unit, parse func(string) (unit.Unit, bool)) (unit.Value, error) {
	match := numberRe.FindStringSubmatch(s)
	if match == nil {
		return unit.Value{}, fmt.Errorf("invalid number %q: %w", s, ErrInvalidDirective)
	}
	n, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return unit.Value{}, fmt.Errorf("invalid number %q: %w", s, ErrInvalidDirective)
	}
	u := def
	if match[2] != "" {
		var ok bool
		if u, ok = parse(match[2]); !ok {
			return unit.Value{}, fmt.Errorf("unknown unit suffix %q: %w", match[2], ErrInvalidDirective)
		}
	}
	return unit.New(n, u), nil
}

func angleFunc(def func(*MutableUnits) unit.Unit, set func(*MutableUnits, unit.Value) *MutableUnits) optionFunc {
	return func(m *MutableUnits, value opt.Optional[string]) error {
		v, err := requireValue(value)
		if err != nil {
			return err
		}
		angle, err := parseMeasurement(v, def(m), unit.ParseAzimuthUnit)
		if err != nil {
			return err
		}
		set(m, angle)
		return nil
	}
}

func inclinationFunc(def func(*MutableUnits) unit.Unit, set func(*MutableUnits, unit.Value) *MutableUnits) optionFunc {
	return func(m *MutableUnits, value opt.Optional[string]) error {
		v, err := requireValue(value)
		if err != nil {
			return err
		}
		angle, err := parseMeasurement(v, def(m), unit.ParseInclinationUnit)
		if err != nil {
			return err
		}
		if deg := angle.Float64In(unit.Degree); deg > 90 || deg < -90 {
			return fmt.Errorf("inclination out of range %q: %w", v, ErrInvalidDirective)
		}
		set(m, angle)
		return nil
	}
}

func lengthFunc(def func(*MutableUnits) unit.Unit, set func(*MutableUnits, unit.Value) *MutableUnits) optionFunc {
	return func(m *MutableUnits, value opt.Optional[string]) error {
		v, err := requireValue(value)
		if err != nil {
			return err
		}
		length, err := parseMeasurement(v, def(m), unit.ParseLengthUnit)
		if err != nil {
			return err
		}
		set(m, length)
		return nil
	}
}

func applyRect(m *MutableUnits, value opt.Optional[string]) error {
	if !value.IsPresent() {
		m.SetVectorType(Rectangular)
		return nil
	}
	return angleFunc(func(*MutableUnits) unit.Unit { return unit.Degree }, (*MutableUnits).SetRect)(m, value)
}

var ctLetters = map[rune]CtMeasurement{'d': Distance, 'a': Azimuth, 'v': Inclination}

var rectLetters = map[rune]RectMeasurement{'e': East, 'n': North, 'u': RectUp}

var lrudLetters = map[rune]LrudMeasurement{'l': Left, 'r': Right, 'u': Up, 'd': Down}

// parseOrder reads one element per letter. Each element may appear once and
// every required element must appear.
func parseOrder[T comparable](s string, letters map[rune]T, required ...T) ([]T, error) {
	var order []T
	seen := make(map[T]bool, len(letters))
	for _, r := range strings.ToLower(s) {
		e, ok := letters[r]
		if !ok || seen[e] {
			return nil, fmt.Errorf("invalid order %q: %w", s, ErrInvalidDirective)
		}
		seen[e] = true
		order = append(order, e)
	}
	for _, e := range required {
		if !seen[e] {
			return nil, fmt.Errorf("order %q is missing %v: %w", s, e, ErrInvalidDirective)
		}
	}
	return order, nil
}

func applyOrder(m *MutableUnits, value opt.Optional[string]) error {
	v, err := requireValue(value)
	if err != nil {
		return err
	}
	if ct, err := parseOrder(v, ctLetters, Distance, Azimuth); err == nil {
		m.SetCtOrder(ct)
		return nil
	}
	rect, err := parseOrder(v, rectLetters, East, North)
	if err != nil {
		return err
	}
	m.SetRectOrder(rect)
	return nil
}

func typeFunc(
	setCorrected func(*MutableUnits, bool) *MutableUnits,
	setTolerance func(*MutableUnits, unit.Value) *MutableUnits,
	setNoAverage func(*MutableUnits, bool) *MutableUnits,
) optionFunc {
	return func(m *MutableUnits, value opt.Optional[string]) error {
		v, err := requireValue(value)
		if err != nil {
			return err
		}
		parts := strings.Split(v, ",")
		corrected, ok := correctedValues[strings.ToLower(parts[0])]
		if !ok {
			return fmt.Errorf("expected corrected or normal, got %q: %w", parts[0], ErrInvalidDirective)
		}
		setCorrected(m, corrected)
		if len(parts) == 1 {
			setTolerance(m, unit.DefaultTolerance)
			return nil
		}
		if parts[1] != "" {
			tolerance, err := parseNonNegative(parts[1])
			if err != nil {
				return fmt.Errorf("invalid tolerance %q: %w", parts[1], ErrInvalidDirective)
			}
			setTolerance(m, unit.Degrees(tolerance))
		}
		setNoAverage(m, len(parts) > 2 && strings.EqualFold(parts[2], "x"))
		return nil
	}
}

// withFirstLetters adds each keyword's first letter as an abbreviation unless
// another keyword already claims it.
func withFirstLetters[V any](keywords map[string]V) map[string]V {
	out := make(map[string]V, 2*len(keywords))
	for k, v := range keywords {
		out[k] = v
	}
	for k, v := range keywords {
		if _, taken := out[k[:1]]; !taken {
			out[k[:1]] = v
		}
	}
	return out
}

var correctedValues = withFirstLetters(map[string]bool{"corrected": true, "normal": false})

var caseTypes = withFirstLetters(map[string]CaseType{"upper": Upper, "lower": Lower, "mixed": Mixed})

func applyCase(m *MutableUnits, value opt.Optional[string]) error {
	v, err := requireValue(value)
	if err != nil {
		return err
	}
	c, ok := caseTypes[strings.ToLower(v)]
	if !ok {
		return fmt.Errorf("unknown case %q: %w", v, ErrInvalidDirective)
	}
	m.SetCase(c)
	return nil
}

var lrudTypes = map[string]LrudType{"from": From, "f": From, "fb": FromAt, "to": To, "t": To, "tb": ToAt}

func applyLrud(m *MutableUnits, value opt.Optional[string]) error {
	v, err := requireValue(value)
	if err != nil {
		return err
	}
	kind, order, hasOrder := strings.Cut(v, ":")
	t, ok := lrudTypes[strings.ToLower(kind)]
	if !ok {
		return fmt.Errorf("unknown lrud type %q: %w", kind, ErrInvalidDirective)
	}
	lrudOrder := []LrudMeasurement{Left, Right, Up, Down}
	if hasOrder {
		if lrudOrder, err = parseOrder(order, lrudLetters, Left, Right, Up, Down); err != nil {
			return err
		}
	}
	m.SetLrud(t).SetLrudOrder(lrudOrder)
	return nil
}

var tapingMethods = map[string][]TapingMethodMeasurement{
	"it": {InstrumentHeight, TargetHeight},
	"is": {InstrumentHeight, Station},
	"st": {Station, TargetHeight},
	"ss": {Station, Station},
}

func applyTape(m *MutableUnits, value opt.Optional[string]) error {
	v, err := requireValue(value)
	if err != nil {
		return err
	}
	tape, ok := tapingMethods[strings.ToLower(v)]
	if !ok {
		return fmt.Errorf("unknown taping method %q: %w", v, ErrInvalidDirective)
	}
	m.SetTape(tape)
	return nil
}

func prefixFunc(index int) optionFunc {
	return func(m *MutableUnits, value opt.Optional[string]) error {
		_, err := m.SetPrefixAt(index, value)
		return err
	}
}

func parseVariance(value opt.Optional[string]) (float64, error) {
	v, err := requireValue(value)
	if err != nil {
		return 0, err
	}
	f, err := parseNonNegative(v)
	if err != nil {
		return 0, fmt.Errorf("invalid variance %q: %w", v, ErrInvalidDirective)
	}
	return f, nil
}

// parseNonNegative accepts finite numbers >= 0. NaN would make a field unequal
// to itself.
func parseNonNegative(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, errors.New("must be a finite number >= 0")
	}
	return f, nil
}

func varianceFunc(set func(*MutableUnits, float64) *MutableUnits) optionFunc {
	return func(m *MutableUnits, value opt.Optional[string]) error {
		f, err := parseVariance(value)
		if err != nil {
			return err
		}
		set(m, f)
		return nil
	}
}

func applyUv(m *MutableUnits, value opt.Optional[string]) error {
	f, err := parseVariance(value)
	if err != nil {
		return err
	}
	m.SetUvh(f).SetUvv(f)
	return nil
}

func applyFlag(m *MutableUnits, value opt.Optional[string]) error {
	m.SetFlag(value)
	return nil
}
