// Package generator builds the pure, deterministic-modulo-RNG artifacts
// simulators need: randomized delays, duration/interval calculations, entity
// update records, and image descriptors. Nothing in this package performs
// I/O.
package generator

import (
	"math/rand"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// Timing computes the randomized and configured durations simulators pace
// themselves by. It owns no shared state beyond its RNG, which callers may
// seed for reproducible tests.
type Timing struct {
	rng        *rand.Rand
	multiplier float64
	minFloor   time.Duration
}

// NewTiming builds a Timing using multiplier as the global speed multiplier
// and minFloor as the global minimum delay floor. rng may be nil, in which
// case a time-seeded source is used.
func NewTiming(multiplier float64, minFloor time.Duration, rng *rand.Rand) *Timing {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Timing{rng: rng, multiplier: multiplier, minFloor: minFloor}
}

// Delay returns max(min_floor, uniform(min, max) * multiplier).
func (t *Timing) Delay(min, max time.Duration) time.Duration {
	span := float64(max - min)
	base := float64(min)
	if span > 0 {
		base += t.rng.Float64() * span
	}
	scaled := time.Duration(base * t.multiplier)
	if scaled < t.minFloor {
		return t.minFloor
	}
	return scaled
}

// CCDuration is run_minutes + air_purge_minutes, scaled by the multiplier.
func (t *Timing) CCDuration(runMinutes int, airPurgeMinutes float64) time.Duration {
	totalMinutes := float64(runMinutes) + airPurgeMinutes
	return time.Duration(totalMinutes * float64(time.Minute) * t.multiplier)
}

// EvaporationDuration is the latest time_from_start trigger across
// profiles.Updates, scaled by the multiplier, falling back to 60 minutes
// when no update carries such a trigger.
func (t *Timing) EvaporationDuration(profiles protocol.EvaporationProfiles) time.Duration {
	var latest *int
	for _, p := range profiles.Updates {
		if p.Trigger == nil || p.Trigger.Type != "time_from_start" || p.Trigger.TimeInSec == nil {
			continue
		}
		if latest == nil || *p.Trigger.TimeInSec > *latest {
			latest = p.Trigger.TimeInSec
		}
	}
	if latest == nil {
		return time.Duration(60 * float64(time.Minute) * t.multiplier)
	}
	return time.Duration(float64(*latest) * float64(time.Second) * t.multiplier)
}

// IntermediateInterval is configured_interval * multiplier, floored to
// min_floor.
func (t *Timing) IntermediateInterval(configured time.Duration) time.Duration {
	scaled := time.Duration(float64(configured) * t.multiplier)
	if scaled < t.minFloor {
		return t.minFloor
	}
	return scaled
}
