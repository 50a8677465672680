package walls

import (
	"fmt"
	"slices"
	"strings"

	"github.com/couchcryptid/walls-survey-etl/internal/opt"
	"github.com/couchcryptid/walls-survey-etl/internal/unit"
)

// MaxPrefixLevels is the number of station name prefix levels Walls supports.
const MaxPrefixLevels = 3

// casePolicy selects which part of a station name the case transform touches.
type casePolicy uint8

const (
	// caseWholeName re-cases every segment, including explicit prefixes.
	caseWholeName casePolicy = iota
	// caseBaseName re-cases only the segment after the last colon.
	caseBaseName
)

// prefixAt returns prefix with level index set to value and trailing absent
// levels removed. The input slice is not modified.
func prefixAt(prefix []opt.Optional[string], index int, value opt.Optional[string]) ([]opt.Optional[string], error) {
	if index < 0 || index >= MaxPrefixLevels {
		return nil, fmt.Errorf("prefix index out of range: %d: %w", index, ErrInvalidArgument)
	}
	next := slices.Clone(prefix)
	for len(next) <= index {
		next = append(next, opt.None[string]())
	}
	next[index] = value
	return trimPrefix(next), nil
}

// trimPrefix drops trailing absent levels.
func trimPrefix(prefix []opt.Optional[string]) []opt.Optional[string] {
	for len(prefix) > 0 && !prefix[len(prefix)-1].IsPresent() {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

// processStationName applies the case transform and prepends every configured
// prefix level the name does not already spell out. Level 0 ends up closest to
// the station name and the highest level leftmost.
func processStationName(name opt.Optional[string], c CaseType, prefix []opt.Optional[string], policy casePolicy) opt.Optional[string] {
	s, ok := name.Get()
	if !ok {
		return name
	}

	switch policy {
	case caseBaseName:
		base := strings.LastIndexByte(s, ':') + 1
		if base < len(s) {
			s = s[:base] + c.Apply(s[base:])
		}
	default:
		s = c.Apply(s)
	}

	explicit := strings.Count(s, ":")
	for i := explicit; i < len(prefix); i++ {
		// An absent inner level renders as an empty segment ("c::b").
		s = prefix[i].OrElse("") + ":" + s
	}
	return opt.Some(strings.TrimLeft(s, ":"))
}

// averageInclination combines a frontsight and backsight inclination. Backsights
// recorded with the normal (uncorrected) convention read with the opposite sign.
func averageInclination(fs, bs opt.Optional[unit.Value], corrected bool) opt.Optional[unit.Value] {
	if !corrected {
		bs = opt.Map(bs, unit.Value.Negate)
	}
	f, hasFS := fs.Get()
	b, hasBS := bs.Get()
	switch {
	case !hasFS:
		return bs
	case !hasBS:
		return fs
	default:
		return opt.Some(f.Add(b).Mul(0.5))
	}
}

// lrudOrderString encodes an LRUD order by the first letter of each element.
func lrudOrderString(order []LrudMeasurement) string {
	var b strings.Builder
	b.Grow(len(order))
	for _, m := range order {
		b.WriteByte(m.String()[0])
	}
	return b.String()
}
