// Package incident validates driver incident reports before they are sent
// to the backend. The gating rule reuses the trip status vocabulary: no
// report may target a completed or cancelled trip.
package incident

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fleetops/rule-engine/trip"
)

// minDescriptionLength is the minimum trimmed description length, in runes.
const minDescriptionLength = 10

// =============================================================================
// KIND - Incident categories
// =============================================================================

// Kind categorizes an incident report.
type Kind string

const (
	KindBreakdown Kind = "BREAKDOWN"
	KindAccident  Kind = "ACCIDENT"
	KindTraffic   Kind = "TRAFFIC"
	KindCustomer  Kind = "CUSTOMER"
	KindOther     Kind = "OTHER"
)

// ParseKind converts a raw string to a Kind, returning an error for unknown
// values.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindBreakdown, KindAccident, KindTraffic, KindCustomer, KindOther:
		return k, nil
	}
	return "", fmt.Errorf("unknown incident kind %q", s)
}

// =============================================================================
// REPORT - Incident report candidate
// =============================================================================

// Report is an incident report being validated before submission.
type Report struct {
	TripID      string
	TripStatus  trip.Status
	Kind        Kind
	Description string
	Location    string // optional
}

// ErrTripNotReportable: the target trip's lifecycle state does not admit
// incident reports.
type ErrTripNotReportable struct {
	TripID string
	Status trip.Status
}

func (e *ErrTripNotReportable) Error() string {
	return fmt.Sprintf("trip %s is %s and cannot receive incident reports", e.TripID, e.Status)
}

// ErrUnknownKind: the incident kind is not in the closed set.
type ErrUnknownKind struct {
	Kind Kind
}

func (e *ErrUnknownKind) Error() string {
	return fmt.Sprintf("unknown incident kind %q", string(e.Kind))
}

// ErrDescriptionTooShort: the trimmed description is under the minimum.
type ErrDescriptionTooShort struct {
	Length int
}

func (e *ErrDescriptionTooShort) Error() string {
	return fmt.Sprintf("description must be at least %d characters, got %d", minDescriptionLength, e.Length)
}

// Validate checks a report and returns the first violation: trip status
// gate, then kind, then description length.
func Validate(r Report) error {
	for _, check := range checks(r) {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Violations runs every check and returns all failures, in check order.
func Violations(r Report) []error {
	var violations []error
	for _, check := range checks(r) {
		if err := check(); err != nil {
			violations = append(violations, err)
		}
	}
	return violations
}

func checks(r Report) []func() error {
	return []func() error{
		func() error {
			if err := trip.ReportingGate(r.TripStatus); err != nil {
				return &ErrTripNotReportable{TripID: r.TripID, Status: r.TripStatus}
			}
			return nil
		},
		func() error {
			if _, err := ParseKind(string(r.Kind)); err != nil {
				return &ErrUnknownKind{Kind: r.Kind}
			}
			return nil
		},
		func() error {
			length := utf8.RuneCountInString(strings.TrimSpace(r.Description))
			if length < minDescriptionLength {
				return &ErrDescriptionTooShort{Length: length}
			}
			return nil
		},
	}
}
