package leave

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fleetops/rule-engine/calendar"
)

// =============================================================================
// VALIDATION ERRORS - Closed taxonomy, one variant per user-facing message
// =============================================================================

// minReasonLength is the minimum trimmed length of a leave reason, in runes.
const minReasonLength = 10

// ErrInvertedRange: the end date precedes the start date.
type ErrInvertedRange struct {
	Start calendar.Date
	End   calendar.Date
}

func (e *ErrInvertedRange) Error() string {
	return fmt.Sprintf("end date %s is before start date %s", e.End, e.Start)
}

// ErrStartInPast: the start date is strictly before today.
type ErrStartInPast struct {
	Start calendar.Date
	Today calendar.Date
}

func (e *ErrStartInPast) Error() string {
	return fmt.Sprintf("start date %s is before today (%s)", e.Start, e.Today)
}

// ErrExceedsAllowance: the requested day count is zero or exceeds the
// remaining monthly allowance.
type ErrExceedsAllowance struct {
	Requested int
	Remaining int
}

func (e *ErrExceedsAllowance) Error() string {
	return fmt.Sprintf("requested %d day(s), %d remaining this month", e.Requested, e.Remaining)
}

// ErrReasonTooShort: the trimmed reason is shorter than the minimum.
type ErrReasonTooShort struct {
	Length int
}

func (e *ErrReasonTooShort) Error() string {
	return fmt.Sprintf("reason must be at least %d characters, got %d", minReasonLength, e.Length)
}

// =============================================================================
// CANDIDATE VALIDATION
// =============================================================================

// Candidate is a new leave request being validated before submission.
type Candidate struct {
	StartDate calendar.Date
	EndDate   calendar.Date
	Reason    string
}

// RequestedDays returns the inclusive day count of the candidate's range.
// An inverted range counts as zero.
func (c Candidate) RequestedDays() int {
	return calendar.Span{Start: c.StartDate, End: c.EndDate}.Days()
}

// ValidateNew checks a candidate against policy and returns the first
// violation. The check order is fixed so user-facing error precedence is
// reproducible across call sites:
//
//  1. start <= end
//  2. start >= today
//  3. 0 < requested days <= remaining
//  4. trimmed reason >= 10 characters
func ValidateNew(c Candidate, today calendar.Date, remainingDays int) error {
	for _, check := range checks(c, today, remainingDays) {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Violations runs every check and returns all failures, in check order.
// Form-level UI uses this to flag multiple fields at once; ValidateNew is
// the short-circuit variant for submission.
func Violations(c Candidate, today calendar.Date, remainingDays int) []error {
	var violations []error
	for _, check := range checks(c, today, remainingDays) {
		if err := check(); err != nil {
			violations = append(violations, err)
		}
	}
	return violations
}

func checks(c Candidate, today calendar.Date, remainingDays int) []func() error {
	return []func() error{
		func() error {
			if c.EndDate.Before(c.StartDate) {
				return &ErrInvertedRange{Start: c.StartDate, End: c.EndDate}
			}
			return nil
		},
		func() error {
			if c.StartDate.Before(today) {
				return &ErrStartInPast{Start: c.StartDate, Today: today}
			}
			return nil
		},
		func() error {
			requested := c.RequestedDays()
			if requested <= 0 || requested > remainingDays {
				return &ErrExceedsAllowance{Requested: requested, Remaining: remainingDays}
			}
			return nil
		},
		func() error {
			length := utf8.RuneCountInString(strings.TrimSpace(c.Reason))
			if length < minReasonLength {
				return &ErrReasonTooShort{Length: length}
			}
			return nil
		},
	}
}
