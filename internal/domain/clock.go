package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock supplies "now" for assessments. Scores depend on wall-clock time, so
// tests freeze it through SetClock to get reproducible priorities and dates.
var clock = clockwork.NewRealClock()

// SetClock swaps the assessment time source. Pass nil to restore real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock.
func Now() time.Time {
	return clock.Now()
}
