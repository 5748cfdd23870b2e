package leave_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/rule-engine/calendar"
	"github.com/fleetops/rule-engine/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) calendar.Date {
	return calendar.NewDate(y, m, d)
}

func approved(id string, start, end calendar.Date) leave.Request {
	return leave.Request{ID: id, StartDate: start, EndDate: end, Status: leave.StatusApproved}
}

var november = calendar.YearMonth{Year: 2025, Month: time.November}

// =============================================================================
// QUOTA - Used days and remaining allowance
// =============================================================================

func TestQuota_StraddlingRequestIsClipped(t *testing.T) {
	// GIVEN: An approved request Oct 30 - Nov 2
	// WHEN: Computing the November quota
	// THEN: Only Nov 1-2 count, contributing 2 days
	requests := []leave.Request{
		approved("r1", date(2025, time.October, 30), date(2025, time.November, 2)),
	}

	result := leave.Quota(requests, 4, november)
	assert.Equal(t, 2, result.Used)
	assert.Equal(t, 2, result.Remaining)
}

func TestQuota_OnlyApprovedRequestsCount(t *testing.T) {
	span := [2]calendar.Date{date(2025, time.November, 10), date(2025, time.November, 12)}
	requests := []leave.Request{
		{ID: "p", StartDate: span[0], EndDate: span[1], Status: leave.StatusPending},
		{ID: "r", StartDate: span[0], EndDate: span[1], Status: leave.StatusRejected},
		{ID: "a", StartDate: span[0], EndDate: span[1], Status: leave.StatusApproved},
	}

	result := leave.Quota(requests, 10, november)
	assert.Equal(t, 3, result.Used, "only the approved request's 3 days count")
}

func TestQuota_RequestOutsideMonthContributesZero(t *testing.T) {
	requests := []leave.Request{
		approved("sept", date(2025, time.September, 1), date(2025, time.September, 5)),
	}

	result := leave.Quota(requests, 4, november)
	assert.Equal(t, 0, result.Used)
	assert.Equal(t, 4, result.Remaining)
}

func TestQuota_SingleDayCountsAsOne(t *testing.T) {
	requests := []leave.Request{
		approved("one", date(2025, time.November, 5), date(2025, time.November, 5)),
	}

	result := leave.Quota(requests, 2, november)
	assert.Equal(t, 1, result.Used)
}

func TestQuota_ContainedRangeMatchesUnclippedCount(t *testing.T) {
	// Clip idempotence: a request fully inside the month contributes its
	// full inclusive count.
	start, end := date(2025, time.November, 10), date(2025, time.November, 14)
	requests := []leave.Request{approved("r", start, end)}

	result := leave.Quota(requests, 10, november)
	assert.Equal(t, calendar.Span{Start: start, End: end}.Days(), result.Used)
}

func TestQuota_AdjacentMonthsNeverDoubleCount(t *testing.T) {
	// GIVEN: One approved request straddling October/November
	// THEN: Summing usedDays over both months equals the request's total
	requests := []leave.Request{
		approved("straddle", date(2025, time.October, 28), date(2025, time.November, 3)),
	}
	october := calendar.YearMonth{Year: 2025, Month: time.October}

	octUsed := leave.Quota(requests, 10, october).Used
	novUsed := leave.Quota(requests, 10, november).Used

	total := calendar.Span{
		Start: date(2025, time.October, 28),
		End:   date(2025, time.November, 3),
	}.Days()
	assert.Equal(t, total, octUsed+novUsed)
	assert.Equal(t, 4, octUsed)
	assert.Equal(t, 3, novUsed)
}

func TestQuota_RemainingMayGoNegative(t *testing.T) {
	// Usage recorded retroactively in excess of the allowance is surfaced
	// as a negative remainder, not clamped.
	requests := []leave.Request{
		approved("long", date(2025, time.November, 1), date(2025, time.November, 10)),
	}

	result := leave.Quota(requests, 2, november)
	assert.Equal(t, 10, result.Used)
	assert.Equal(t, -8, result.Remaining)
}

func TestQuota_EmptyHistory(t *testing.T) {
	result := leave.Quota(nil, 2, november)
	assert.Equal(t, leave.QuotaResult{Allowed: 2, Used: 0, Remaining: 2}, result)
}

// =============================================================================
// VALIDATION - New request policy checks
// =============================================================================

func TestValidateNew_Passes(t *testing.T) {
	today := date(2025, time.November, 20)
	c := leave.Candidate{
		StartDate: today.AddDays(1),
		EndDate:   today.AddDays(2),
		Reason:    "attending a family wedding",
	}
	assert.NoError(t, leave.ValidateNew(c, today, 3))
}

func TestValidateNew_CheckOrder(t *testing.T) {
	today := date(2025, time.November, 20)

	tests := []struct {
		name      string
		candidate leave.Candidate
		remaining int
		wantErr   any
	}{
		{
			name: "inverted range reported before everything else",
			candidate: leave.Candidate{
				StartDate: today.AddDays(5),
				EndDate:   today.AddDays(1),
				Reason:    "x",
			},
			remaining: 0,
			wantErr:   &leave.ErrInvertedRange{},
		},
		{
			name: "past start reported before allowance",
			candidate: leave.Candidate{
				StartDate: today.AddDays(-1),
				EndDate:   today.AddDays(1),
				Reason:    "x",
			},
			remaining: 0,
			wantErr:   &leave.ErrStartInPast{},
		},
		{
			name: "allowance reported before reason length",
			candidate: leave.Candidate{
				StartDate: today.AddDays(1),
				EndDate:   today.AddDays(5),
				Reason:    "x",
			},
			remaining: 2,
			wantErr:   &leave.ErrExceedsAllowance{},
		},
		{
			name: "reason length is the last check",
			candidate: leave.Candidate{
				StartDate: today.AddDays(1),
				EndDate:   today.AddDays(1),
				Reason:    "   short   ",
			},
			remaining: 2,
			wantErr:   &leave.ErrReasonTooShort{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := leave.ValidateNew(tt.candidate, today, tt.remaining)
			require.Error(t, err)

			switch want := tt.wantErr.(type) {
			case *leave.ErrInvertedRange:
				assert.ErrorAs(t, err, &want)
			case *leave.ErrStartInPast:
				assert.ErrorAs(t, err, &want)
			case *leave.ErrExceedsAllowance:
				assert.ErrorAs(t, err, &want)
			case *leave.ErrReasonTooShort:
				assert.ErrorAs(t, err, &want)
			default:
				t.Fatalf("unhandled expectation %T", tt.wantErr)
			}
		})
	}
}

func TestValidateNew_ExhaustedAllowance(t *testing.T) {
	// GIVEN: allowance 2, used 2 (remaining 0)
	// WHEN: Requesting a single day tomorrow with a valid reason
	// THEN: Fails the allowance check with requested=1, remaining=0
	today := date(2025, time.November, 20)
	c := leave.Candidate{
		StartDate: today.AddDays(1),
		EndDate:   today.AddDays(1),
		Reason:    strings.Repeat("a", 15),
	}

	err := leave.ValidateNew(c, today, 0)
	var exceeds *leave.ErrExceedsAllowance
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, 1, exceeds.Requested)
	assert.Equal(t, 0, exceeds.Remaining)
}

func TestValidateNew_StartTodayAllowed(t *testing.T) {
	// The start date may equal today; only strictly-past starts fail.
	today := date(2025, time.November, 20)
	c := leave.Candidate{
		StartDate: today,
		EndDate:   today,
		Reason:    "same-day emergency leave",
	}
	assert.NoError(t, leave.ValidateNew(c, today, 1))
}

func TestValidateNew_ReasonTrimmedAndRuneCounted(t *testing.T) {
	today := date(2025, time.November, 20)
	base := leave.Candidate{StartDate: today, EndDate: today}

	// Nine characters padded with whitespace still fails.
	short := base
	short.Reason = "  123456789  "
	var tooShort *leave.ErrReasonTooShort
	require.ErrorAs(t, leave.ValidateNew(short, today, 1), &tooShort)
	assert.Equal(t, 9, tooShort.Length)

	// Multi-byte runes count as single characters.
	unicode := base
	unicode.Reason = strings.Repeat("ố", 10)
	assert.NoError(t, leave.ValidateNew(unicode, today, 1))
}

func TestViolations_CollectsAll(t *testing.T) {
	// GIVEN: A candidate violating the past-start, allowance, and reason
	//        checks at once
	// THEN: Violations reports each of them in check order
	today := date(2025, time.November, 20)
	c := leave.Candidate{
		StartDate: today.AddDays(-3),
		EndDate:   today.AddDays(2),
		Reason:    "nope",
	}

	violations := leave.Violations(c, today, 1)
	require.Len(t, violations, 3)

	var past *leave.ErrStartInPast
	assert.ErrorAs(t, violations[0], &past)
	var exceeds *leave.ErrExceedsAllowance
	assert.ErrorAs(t, violations[1], &exceeds)
	var short *leave.ErrReasonTooShort
	assert.ErrorAs(t, violations[2], &short)
}

func TestViolations_CleanCandidate(t *testing.T) {
	today := date(2025, time.November, 20)
	c := leave.Candidate{
		StartDate: today.AddDays(1),
		EndDate:   today.AddDays(1),
		Reason:    "routine vehicle inspection day",
	}
	assert.Empty(t, leave.Violations(c, today, 2))
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "APPROVED", "REJECTED"} {
		s, err := leave.ParseStatus(valid)
		require.NoError(t, err)
		assert.Equal(t, leave.Status(valid), s)
	}

	_, err := leave.ParseStatus("CANCELLED")
	assert.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), "CANCELLED")
}
