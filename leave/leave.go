/*
Package leave implements the paid-leave quota rules for the fleet engine.

PURPOSE:
  Drivers have a monthly paid-leave allowance. Historical leave requests
  carry arbitrary date ranges that may straddle month boundaries, so
  computing "days used this month" requires clipping each approved range
  to the target month before counting. This package owns that arithmetic
  plus the policy checks applied to a new request.

KEY CONCEPTS:
  - Request:     A historical leave request with an inclusive date range
  - QuotaResult: Allowed / used / remaining days for one driver and month
  - Candidate:   A new request being validated before submission

DESIGN PRINCIPLES:
  1. Determinism: "today" is an explicit parameter, never a clock read
  2. Inclusive counting: a single-day request counts as one day
  3. No clamping: remaining days may go negative when usage was recorded
     retroactively in excess of the allowance; callers decide how to
     present that

SEE ALSO:
  - calendar package: Span.Clip and inclusive day counting
  - validate.go: policy checks for new requests
*/
package leave

import (
	"fmt"

	"github.com/fleetops/rule-engine/calendar"
)

// =============================================================================
// STATUS - Leave request approval states
// =============================================================================

// Status is the approval state of a leave request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown leave status %q", s)
}

// =============================================================================
// REQUEST - Historical leave request
// =============================================================================

// Request is a driver's request for one or more inclusive calendar days off.
type Request struct {
	ID        string
	StartDate calendar.Date
	EndDate   calendar.Date // inclusive; may equal StartDate
	Status    Status
	Reason    string
}

// Span returns the request's inclusive date range.
func (r Request) Span() calendar.Span {
	return calendar.Span{Start: r.StartDate, End: r.EndDate}
}

// =============================================================================
// QUOTA - Days consumed and remaining for a month
// =============================================================================

// QuotaResult is the leave allowance picture for one driver and month.
// Remaining is Allowed - Used and is NOT floored at zero: a negative value
// signals an over-allotment (for example an allowance reduced after
// approval) that needs review.
type QuotaResult struct {
	Allowed   int
	Used      int
	Remaining int
}

// Quota computes days already consumed in the target month and the
// remaining allowance.
//
// Only APPROVED requests count. Each approved range is clipped to the
// month's boundaries; a range entirely outside the month contributes zero.
// The day count of a clipped range is inclusive: (end - start) + 1.
func Quota(requests []Request, allowedDays int, month calendar.YearMonth) QuotaResult {
	used := 0
	for _, r := range requests {
		if r.Status != StatusApproved {
			continue
		}
		clipped, ok := r.Span().Clip(month)
		if !ok {
			continue
		}
		used += clipped.Days()
	}

	return QuotaResult{
		Allowed:   allowedDays,
		Used:      used,
		Remaining: allowedDays - used,
	}
}
