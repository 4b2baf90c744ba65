// Package scenario decides, per command, whether the robot should vanish,
// fail, or succeed, and manufactures the failure payload when it fails.
package scenario

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// Outcome is the result of a scenario draw.
type Outcome string

const (
	Vanish  Outcome = "vanish"
	Fail    Outcome = "fail"
	Success Outcome = "success"
)

// Settings carries the flat rates and default outcome that drive selection.
type Settings struct {
	DefaultScenario Outcome
	FailureRate     float64
	TimeoutRate     float64
}

// Selector draws an Outcome per command. Drawing order is deliberate: the
// timeout draw always happens first, so a timeout_rate of 1.0 forces every
// command to vanish regardless of failure_rate.
type Selector struct {
	settings Settings
	rng      *rand.Rand
	overrides *OverrideSet
}

// New builds a Selector. rng may be nil for a time-seeded default. overrides
// may be nil to disable per-command rule overrides entirely.
func New(settings Settings, rng *rand.Rand, overrides *OverrideSet) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{settings: settings, rng: rng, overrides: overrides}
}

// Select draws the outcome for one command. Scenario selection happens
// before the command's params are parsed into their structured variant
// (spec §4.6 runs the scenario check ahead of param parsing), so override
// rules see the raw params payload rather than a typed struct.
func (s *Selector) Select(taskType protocol.TaskType, rawParams json.RawMessage) Outcome {
	if s.overrides != nil {
		if forced, matched := s.overrides.Evaluate(taskType, rawParams); matched {
			return forced
		}
	}

	if s.settings.TimeoutRate > 0 && s.rng.Float64() < s.settings.TimeoutRate {
		return Vanish
	}
	if s.settings.FailureRate > 0 && s.rng.Float64() < s.settings.FailureRate {
		return Fail
	}
	if s.settings.DefaultScenario != "" {
		return s.settings.DefaultScenario
	}
	return Success
}

// FailureResult builds the failure Result for taskID/taskType, drawing a
// (code, msg) pair from that task's failure band.
func (s *Selector) FailureResult(taskID string, taskType protocol.TaskType) protocol.Result {
	code, msg := RandomFailure(s.rng, taskType)
	return protocol.Result{Code: code, Msg: msg, TaskID: taskID, Updates: []protocol.EntityUpdate{}}
}
