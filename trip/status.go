/*
Package trip implements the trip lifecycle rules for the fleet engine.

PURPOSE:
  Two deterministic rule sets live here:
  1. The trip state machine: which lifecycle transitions are legal.
  2. The incident-eligibility filter: which of a driver's trips may have
     an incident reported against them right now, and in what order they
     should be presented.

LIFECYCLE:

    SCHEDULED ──► ASSIGNED ──► ONGOING ──► COMPLETED
        │             │           │
        └─────────────┴───────────┴──► CANCELLED

  SCHEDULED may also jump straight to ONGOING (a trip can be started
  without an explicit assignment step). COMPLETED and CANCELLED are
  terminal: no outgoing transitions.

DESIGN PRINCIPLES:
  1. Purity: every function is a pure function of its inputs; "now" is
     always an explicit parameter, never read from a clock
  2. Closed enums: statuses are parsed at the boundary so an unknown
     value is an error, not a silent default
  3. Totality: malformed records are reported, never panicked on

SEE ALSO:
  - eligibility.go: the reportable-trip filter and ordering
  - leave package: the companion leave-quota rules
*/
package trip

import "fmt"

// =============================================================================
// STATUS - Trip lifecycle states
// =============================================================================

// Status is a trip lifecycle state. Exactly one value applies to a trip at
// any instant.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusAssigned  Status = "ASSIGNED"
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusScheduled, StatusAssigned, StatusOngoing, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown trip status %q", s)
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// =============================================================================
// STATE MACHINE - Legal transitions
// =============================================================================

// legalTransitions lists every allowed (from → to) pair. Terminal states
// have no entry.
var legalTransitions = map[Status][]Status{
	StatusScheduled: {StatusAssigned, StatusOngoing, StatusCancelled},
	StatusAssigned:  {StatusOngoing, StatusCancelled},
	StatusOngoing:   {StatusCompleted, StatusCancelled},
}

// IllegalTransitionError reports a transition outside the legal edge set.
// It is always surfaced to the caller verbatim, never coerced to a nearest
// legal state.
type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal trip transition %s → %s", e.From, e.To)
}

// CanTransition reports whether moving from → to is permitted.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a requested transition against the current state and
// returns the next state. Illegal pairs (including self-transitions and any
// transition out of COMPLETED or CANCELLED) return *IllegalTransitionError.
//
// The caller is responsible for persisting the returned state; this function
// has no side effects.
func Transition(current, requested Status) (Status, error) {
	if !CanTransition(current, requested) {
		return "", &IllegalTransitionError{From: current, To: requested}
	}
	return requested, nil
}

// NextStates returns the legal successor states for a status. Terminal
// states return nil.
func NextStates(s Status) []Status {
	next := legalTransitions[s]
	if len(next) == 0 {
		return nil
	}
	out := make([]Status, len(next))
	copy(out, next)
	return out
}
