package trip

import (
	"fmt"
	"sort"
	"time"

	"github.com/fleetops/rule-engine/calendar"
)

// =============================================================================
// ELIGIBILITY - Which trips can have an incident reported right now
// =============================================================================

// reportWindow is how far ahead of "now" an upcoming trip may start and
// still accept an early incident report.
const reportWindow = 2 * time.Hour

// statusPriority orders the filtered list: the running trip first, then
// assigned, then scheduled. 99 is a defensive bucket for anything else,
// which should not survive the filter.
var statusPriority = map[Status]int{
	StatusOngoing:   1,
	StatusAssigned:  2,
	StatusScheduled: 3,
}

func priorityOf(s Status) int {
	if p, ok := statusPriority[s]; ok {
		return p
	}
	return 99
}

// Exclusion records a trip the filter dropped because its record could not
// be evaluated. One bad record must not block the rest of the list, so the
// filter reports exclusions instead of failing.
type Exclusion struct {
	TripID string
	Reason string
}

// Eligibility is the filter result: the ordered reportable trips plus
// diagnostics for records that could not be evaluated.
type Eligibility struct {
	Trips    []Trip
	Excluded []Exclusion
}

// Reportable returns the subset of a driver's trips for which incident
// reporting should be offered at the given instant.
//
// A trip is included when its status is SCHEDULED, ASSIGNED, or ONGOING and
// at least one of:
//   - it starts on the same calendar day as now;
//   - it is ONGOING and started on the previous calendar day (a trip that
//     began yesterday and is still running);
//   - it starts within the closed interval [now, now+2h] (imminent trips,
//     even across a midnight boundary).
//
// COMPLETED and CANCELLED trips are never included. The result is ordered
// ONGOING, ASSIGNED, SCHEDULED, with the most recently started trip first
// within each status group.
func Reportable(now time.Time, trips []Trip) Eligibility {
	result := Eligibility{}

	for _, t := range trips {
		if t.StartTime.IsZero() {
			result.Excluded = append(result.Excluded, Exclusion{
				TripID: t.ID,
				Reason: "missing or unparseable start time",
			})
			continue
		}
		if includeForReporting(now, t) {
			result.Trips = append(result.Trips, t)
		}
	}

	sortReportable(result.Trips)
	return result
}

// ReportableRaw runs the filter over backend wire records. Records that fail
// to decode are excluded with a diagnostic rather than aborting the filter.
func ReportableRaw(now time.Time, raw []RawTrip) Eligibility {
	result := Eligibility{}
	var decoded []Trip

	for _, r := range raw {
		t, err := r.Decode()
		if err != nil {
			result.Excluded = append(result.Excluded, Exclusion{
				TripID: r.ID,
				Reason: err.Error(),
			})
			continue
		}
		decoded = append(decoded, t)
	}

	inner := Reportable(now, decoded)
	result.Trips = inner.Trips
	result.Excluded = append(result.Excluded, inner.Excluded...)
	return result
}

func includeForReporting(now time.Time, t Trip) bool {
	switch t.Status {
	case StatusScheduled, StatusAssigned, StatusOngoing:
		// reportable statuses
	default:
		return false
	}

	if calendar.SameDay(t.StartTime, now) {
		return true
	}

	if t.Status == StatusOngoing && calendar.IsPreviousDay(t.StartTime, now) {
		return true
	}

	// Imminent: starts within [now, now+2h], both ends inclusive.
	if !t.StartTime.Before(now) && !t.StartTime.After(now.Add(reportWindow)) {
		return true
	}

	return false
}

func sortReportable(trips []Trip) {
	sort.SliceStable(trips, func(i, j int) bool {
		pi, pj := priorityOf(trips[i].Status), priorityOf(trips[j].Status)
		if pi != pj {
			return pi < pj
		}
		return trips[i].StartTime.After(trips[j].StartTime)
	})
}

// ReportingGate checks that a single trip's status admits an incident report.
// This is the same status rule the filter applies, exposed for call sites
// that hold one trip instead of a list.
func ReportingGate(s Status) error {
	switch s {
	case StatusScheduled, StatusAssigned, StatusOngoing:
		return nil
	case StatusCompleted, StatusCancelled:
		return fmt.Errorf("cannot report an incident on a %s trip", s)
	default:
		return fmt.Errorf("unknown trip status %q", string(s))
	}
}
