package core

import (
	"fmt"
	"sync"
)

// YearTracking selects how a YearRange updates its bounds.
type YearTracking int

const (
	// TrackFaithful reproduces the historical update rule: the maximum is
	// only considered when the year did not lower the minimum. The first
	// year observed therefore sets the minimum but never the maximum.
	TrackFaithful YearTracking = iota

	// TrackCorrected checks both bounds for every year.
	TrackCorrected
)

// ParseYearTracking converts "faithful" or "corrected" to a YearTracking.
func ParseYearTracking(s string) (YearTracking, error) {
	switch s {
	case "", "faithful":
		return TrackFaithful, nil
	case "corrected":
		return TrackCorrected, nil
	default:
		return 0, fmt.Errorf("invalid parameter: year tracking %q", s)
	}
}

func (t YearTracking) String() string {
	if t == TrackCorrected {
		return "corrected"
	}
	return "faithful"
}

// YearRange accumulates the earliest and latest year recorded during one
// registry build. Observe is a compare-and-set on two bounds, so it is
// guarded by a mutex and safe to share between goroutines.
type YearRange struct {
	mode YearTracking

	mu     sync.Mutex
	min    int
	max    int
	hasMin bool
	hasMax bool
}

// NewYearRange creates an empty tracker using mode.
func NewYearRange(mode YearTracking) *YearRange {
	return &YearRange{mode: mode}
}

// Observe records year.
func (y *YearRange) Observe(year int) {
	y.mu.Lock()
	defer y.mu.Unlock()

	lowered := false
	if !y.hasMin || year < y.min {
		y.min, y.hasMin = year, true
		lowered = true
	}
	if lowered && y.mode == TrackFaithful {
		return
	}
	if !y.hasMax || year > y.max {
		y.max, y.hasMax = year, true
	}
}

// Min returns the earliest year recorded and whether one exists.
func (y *YearRange) Min() (int, bool) {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.min, y.hasMin
}

// Max returns the latest year recorded and whether one exists.
func (y *YearRange) Max() (int, bool) {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.max, y.hasMax
}

// Mode returns the update rule in use.
func (y *YearRange) Mode() YearTracking {
	return y.mode
}
