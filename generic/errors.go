/*
errors.go - Centralized error types for the generic engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Input errors - Malformed dates, unknown fields or sections, missing session
  2. Configuration errors - Dependency cycles, invalid rule sets
  3. Store errors - Missing records

NOTE:
  Engine computations (constraints, filing window, section gates, validation)
  never return these. They report problems inside structured results. These
  errors surface at the edges: parsing, configuration, persistence, HTTP.

SEE ALSO:
  - validation.go: Structured validation results
  - store.go: Uses ErrRecordNotFound
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a value is not a YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnknownField is returned when a field name is not part of the catalogue.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownSection is returned when a section name is not recognised.
	ErrUnknownSection = errors.New("unknown section")

	// ErrNoSession is returned when a section mutator gets a nil session.
	ErrNoSession = errors.New("no section session")

	// ErrCycle is returned when a dependency edge would close a cycle.
	ErrCycle = errors.New("dependency cycle")

	// ErrInvalidRuleSet is returned when a rule-set override is malformed.
	ErrInvalidRuleSet = errors.New("invalid rule set")

	// ErrRecordNotFound is returned when a referenced record doesn't exist.
	ErrRecordNotFound = errors.New("record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DateParseError reports which value (and optionally which field) failed to parse.
type DateParseError struct {
	Field Field
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid date for %s: %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid date: %q", e.Value)
}

func (e *DateParseError) Unwrap() error {
	return ErrInvalidDate
}

// CycleError names the edge that was rejected.
type CycleError struct {
	From Field
	To   Field
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s -> %s", e.From, e.To)
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// RuleSetError points at the offending key of a rule-set document.
type RuleSetError struct {
	Key    string
	Reason string
}

func (e *RuleSetError) Error() string {
	return fmt.Sprintf("invalid rule set: %s: %s", e.Key, e.Reason)
}

func (e *RuleSetError) Unwrap() error {
	return ErrInvalidRuleSet
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrUnknownSection) ||
		errors.Is(err, ErrInvalidRuleSet)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
