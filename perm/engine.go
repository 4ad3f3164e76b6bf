/*
engine.go - PERM deadline engine entry point

PURPOSE:
  Engine bundles a validated RuleSet, an injected Clock and the derivation
  graph built from the rule set. Every computation is a pure function of the
  case passed in plus "today" read from the clock; nothing is cached between
  calls, so repeated calls on an unchanged case return identical results.

KEY CONCEPTS:
  - Components read in one direction: recruitment aggregator -> filing window
    -> constraints / section gates. The validator reads raw case fields only.
  - Auto-calculation works on a (Dates, Ownership) pair and returns a new pair
    plus the patch to persist. It never calls the validator.

SEE ALSO:
  - generic/derive.go: trigger and cascade-clear mechanics
  - rules.go: the statutory offsets
*/
package perm

import (
	"fmt"

	"github.com/warp/perm-engine/generic"
)

type Engine struct {
	rules   RuleSet
	clock   generic.Clock
	deriver *generic.Deriver
}

// NewEngine validates rules and builds the derivation graph. A nil clock reads
// the system time.
func NewEngine(rules RuleSet, clock generic.Clock) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = generic.SystemClock{}
	}
	e := &Engine{rules: rules, clock: clock}

	d, err := generic.NewDeriver(e.derivationRules(), chainLinks)
	if err != nil {
		return nil, fmt.Errorf("build derivation graph: %w", err)
	}
	e.deriver = d
	return e, nil
}

func (e *Engine) Rules() RuleSet { return e.rules }

// Today is the calendar day all window and constraint math is relative to.
func (e *Engine) Today() generic.Date { return generic.Today(e.clock) }

// Deriver exposes the dependency graph, mostly for inspection and tests.
func (e *Engine) Deriver() *generic.Deriver { return e.deriver }
