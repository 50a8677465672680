package domain

import "github.com/jonboulle/clockwork"

// clock stamps ProcessedAt on resolved events.
var clock = clockwork.NewRealClock()

// SetClock replaces the clock used for ProcessedAt. A nil clock restores the
// real one.
func SetClock(c clockwork.Clock) {
	clock = c
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
}
