package walls

import (
	"fmt"
	"strings"
)

// VectorType selects how shot vectors are recorded.
type VectorType uint8

const (
	CompassAndTape VectorType = iota
	Rectangular
)

var vectorTypeNames = [...]string{"COMPASS_AND_TAPE", "RECTANGULAR"}

func (v VectorType) String() string { return enumName(vectorTypeNames[:], int(v)) }

func (v VectorType) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *VectorType) UnmarshalText(text []byte) error {
	return parseEnum(vectorTypeNames[:], text, (*uint8)(v))
}

// CtMeasurement is one column of a compass-and-tape shot.
type CtMeasurement uint8

const (
	Distance CtMeasurement = iota
	Azimuth
	Inclination
)

var ctMeasurementNames = [...]string{"DISTANCE", "AZIMUTH", "INCLINATION"}

func (c CtMeasurement) String() string { return enumName(ctMeasurementNames[:], int(c)) }

func (c CtMeasurement) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *CtMeasurement) UnmarshalText(text []byte) error {
	return parseEnum(ctMeasurementNames[:], text, (*uint8)(c))
}

// RectMeasurement is one column of a rectangular shot.
type RectMeasurement uint8

const (
	East RectMeasurement = iota
	North
	RectUp
)

var rectMeasurementNames = [...]string{"EAST", "NORTH", "UP"}

func (r RectMeasurement) String() string { return enumName(rectMeasurementNames[:], int(r)) }

func (r RectMeasurement) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *RectMeasurement) UnmarshalText(text []byte) error {
	return parseEnum(rectMeasurementNames[:], text, (*uint8)(r))
}

// LrudMeasurement is one passage dimension recorded at a station.
type LrudMeasurement uint8

const (
	Left LrudMeasurement = iota
	Right
	Up
	Down
)

var lrudMeasurementNames = [...]string{"LEFT", "RIGHT", "UP", "DOWN"}

func (l LrudMeasurement) String() string { return enumName(lrudMeasurementNames[:], int(l)) }

func (l LrudMeasurement) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *LrudMeasurement) UnmarshalText(text []byte) error {
	return parseEnum(lrudMeasurementNames[:], text, (*uint8)(l))
}

// TapingMethodMeasurement names what the two ends of a taped distance were held at.
type TapingMethodMeasurement uint8

const (
	InstrumentHeight TapingMethodMeasurement = iota
	TargetHeight
	Station
)

var tapingMethodNames = [...]string{"INSTRUMENT_HEIGHT", "TARGET_HEIGHT", "STATION"}

func (m TapingMethodMeasurement) String() string { return enumName(tapingMethodNames[:], int(m)) }

func (m TapingMethodMeasurement) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *TapingMethodMeasurement) UnmarshalText(text []byte) error {
	return parseEnum(tapingMethodNames[:], text, (*uint8)(m))
}

// CaseType controls how station names are re-cased.
type CaseType uint8

const (
	Mixed CaseType = iota
	Upper
	Lower
)

var caseTypeNames = [...]string{"MIXED", "UPPER", "LOWER"}

func (c CaseType) String() string { return enumName(caseTypeNames[:], int(c)) }

func (c CaseType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *CaseType) UnmarshalText(text []byte) error {
	return parseEnum(caseTypeNames[:], text, (*uint8)(c))
}

// Apply transforms s according to the case type. Mixed leaves s unchanged.
func (c CaseType) Apply(s string) string {
	switch c {
	case Upper:
		return strings.ToUpper(s)
	case Lower:
		return strings.ToLower(s)
	default:
		return s
	}
}

// LrudType says which station LRUDs are measured at and how they are oriented.
type LrudType uint8

const (
	From LrudType = iota
	To
	FromAt
	ToAt
)

var lrudTypeNames = [...]string{"FROM", "TO", "FROM_AT", "TO_AT"}

func (l LrudType) String() string { return enumName(lrudTypeNames[:], int(l)) }

func (l LrudType) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *LrudType) UnmarshalText(text []byte) error {
	return parseEnum(lrudTypeNames[:], text, (*uint8)(l))
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("UNKNOWN(%d)", i)
	}
	return names[i]
}

func parseEnum(names []string, text []byte, dst *uint8) error {
	for i, name := range names {
		if name == string(text) {
			*dst = uint8(i)
			return nil
		}
	}
	return fmt.Errorf("unknown value %q", text)
}
