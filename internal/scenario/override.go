package scenario

import (
	"encoding/json"
	"fmt"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"

	"github.com/bic-labs/mock-robot-worker/internal/protocol"
)

// Override pins a task_type to a forced Outcome whenever Rule evaluates
// true against that command's raw params payload. Rule is an expr
// expression evaluated with "params" bound to the decoded JSON object, e.g.
// `params.work_station == "ws-99"`.
type Override struct {
	TaskType protocol.TaskType
	Rule     string
	Outcome  Outcome
}

type compiledOverride struct {
	outcome Outcome
	program *vm.Program
}

// OverrideSet is a config-driven, per-command forced-outcome mechanism: the
// scenario selector's answer to spec.md's "pluggable fault injection" design
// note, layered on top of the flat failure/timeout rates rather than
// replacing them.
type OverrideSet struct {
	byTask map[protocol.TaskType][]compiledOverride
}

// Compile validates and compiles every rule up front so a malformed rule
// fails at startup, not mid-run.
func Compile(overrides []Override) (*OverrideSet, error) {
	set := &OverrideSet{byTask: make(map[protocol.TaskType][]compiledOverride)}
	for _, o := range overrides {
		program, err := expr.Compile(o.Rule, expr.Env(map[string]any{"params": map[string]any{}}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling override rule %q for %s: %w", o.Rule, o.TaskType, err)
		}
		set.byTask[o.TaskType] = append(set.byTask[o.TaskType], compiledOverride{outcome: o.Outcome, program: program})
	}
	return set, nil
}

// Evaluate runs every override registered for taskType, in registration
// order, and returns the first one whose rule matches. A rule that errors
// at evaluation time, including a raw payload that fails to decode, is
// treated as non-matching rather than aborting dispatch.
func (s *OverrideSet) Evaluate(taskType protocol.TaskType, rawParams json.RawMessage) (Outcome, bool) {
	rules := s.byTask[taskType]
	if len(rules) == 0 {
		return "", false
	}

	var params map[string]any
	if err := json.Unmarshal(rawParams, &params); err != nil {
		return "", false
	}

	for _, o := range rules {
		result, err := expr.Run(o.program, map[string]any{"params": params})
		if err != nil {
			continue
		}
		if matched, ok := result.(bool); ok && matched {
			return o.outcome, true
		}
	}
	return "", false
}
