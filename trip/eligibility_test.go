package trip_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/rule-engine/trip"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func at(hour, min int) time.Time {
	return time.Date(2025, time.November, 20, hour, min, 0, 0, time.UTC)
}

func tripAt(id string, status trip.Status, start time.Time) trip.Trip {
	return trip.Trip{
		ID:        id,
		Status:    status,
		StartTime: start,
		Pickup:    "Depot",
		Dropoff:   "Terminal",
	}
}

func ids(trips []trip.Trip) []string {
	out := make([]string, len(trips))
	for i, t := range trips {
		out[i] = t.ID
	}
	return out
}

// =============================================================================
// INCLUSION RULES
// =============================================================================

func TestReportable_OngoingFromYesterday(t *testing.T) {
	// GIVEN: now = 2025-11-20T09:00, a trip ONGOING since yesterday 22:00
	// THEN: Included via the previous-day rule, priority 1
	now := at(9, 0)
	a := tripAt("A", trip.StatusOngoing, time.Date(2025, time.November, 19, 22, 0, 0, 0, time.UTC))

	result := trip.Reportable(now, []trip.Trip{a})
	assert.Equal(t, []string{"A"}, ids(result.Trips))
}

func TestReportable_ScheduledLaterToday(t *testing.T) {
	// GIVEN: now = 2025-11-20T09:00, a SCHEDULED trip at 23:00 the same day
	// THEN: Included via the same-day rule even though it is 14h away
	now := at(9, 0)
	b := tripAt("B", trip.StatusScheduled, at(23, 0))

	result := trip.Reportable(now, []trip.Trip{b})
	assert.Equal(t, []string{"B"}, ids(result.Trips))
}

func TestReportable_UpcomingAcrossMidnight(t *testing.T) {
	// GIVEN: now = 2025-11-20T23:50, a SCHEDULED trip at 00:10 tomorrow
	// THEN: Included via the two-hour window despite the day boundary
	now := at(23, 50)
	c := tripAt("C", trip.StatusScheduled, time.Date(2025, time.November, 21, 0, 10, 0, 0, time.UTC))

	result := trip.Reportable(now, []trip.Trip{c})
	assert.Equal(t, []string{"C"}, ids(result.Trips))
}

func TestReportable_TwoHourWindowBoundaries(t *testing.T) {
	now := at(23, 0)

	// Exactly now and exactly now+2h are both inside the closed interval.
	edgeNow := tripAt("edge-now", trip.StatusScheduled, now)
	edgeEnd := tripAt("edge-end", trip.StatusScheduled, now.Add(2*time.Hour))
	beyond := tripAt("beyond", trip.StatusScheduled, now.Add(2*time.Hour+time.Minute))

	result := trip.Reportable(now, []trip.Trip{edgeNow, edgeEnd, beyond})
	assert.ElementsMatch(t, []string{"edge-now", "edge-end"}, ids(result.Trips))
}

func TestReportable_YesterdayOnlyForOngoing(t *testing.T) {
	// A SCHEDULED trip from yesterday is stale, not reportable; only an
	// ONGOING trip keeps yesterday's window open.
	now := at(9, 0)
	yesterday := time.Date(2025, time.November, 19, 8, 0, 0, 0, time.UTC)

	scheduled := tripAt("stale", trip.StatusScheduled, yesterday)
	ongoing := tripAt("running", trip.StatusOngoing, yesterday)

	result := trip.Reportable(now, []trip.Trip{scheduled, ongoing})
	assert.Equal(t, []string{"running"}, ids(result.Trips))
}

func TestReportable_TerminalStatusesNeverIncluded(t *testing.T) {
	// COMPLETED and CANCELLED are excluded unconditionally, even when the
	// trip satisfies every time window.
	now := at(9, 0)
	trips := []trip.Trip{
		tripAt("done", trip.StatusCompleted, now),
		tripAt("gone", trip.StatusCancelled, now.Add(time.Hour)),
		tripAt("done-yesterday", trip.StatusCompleted, now.AddDate(0, 0, -1)),
	}

	result := trip.Reportable(now, trips)
	assert.Empty(t, result.Trips)
	assert.Empty(t, result.Excluded, "terminal statuses are filtered, not diagnostics")
}

func TestReportable_EmptyInput(t *testing.T) {
	result := trip.Reportable(at(9, 0), nil)
	assert.Empty(t, result.Trips)
	assert.Empty(t, result.Excluded)
}

func TestReportable_ZeroStartTimeExcludedWithDiagnostic(t *testing.T) {
	// GIVEN: A trip whose start time never parsed (zero value)
	// THEN: It is dropped with a diagnostic; the rest of the list survives
	now := at(9, 0)
	bad := trip.Trip{ID: "bad", Status: trip.StatusOngoing}
	good := tripAt("good", trip.StatusOngoing, now)

	result := trip.Reportable(now, []trip.Trip{bad, good})
	assert.Equal(t, []string{"good"}, ids(result.Trips))
	require.Len(t, result.Excluded, 1)
	assert.Equal(t, "bad", result.Excluded[0].TripID)
}

// =============================================================================
// ORDERING
// =============================================================================

func TestReportable_Ordering(t *testing.T) {
	// GIVEN: A mixed list, all reportable today
	// THEN: ONGOING first, then ASSIGNED, then SCHEDULED; within a status
	//       group the most recently started trip comes first
	now := at(12, 0)
	trips := []trip.Trip{
		tripAt("sched-early", trip.StatusScheduled, at(8, 0)),
		tripAt("assigned", trip.StatusAssigned, at(13, 0)),
		tripAt("ongoing-old", trip.StatusOngoing, at(6, 0)),
		tripAt("sched-late", trip.StatusScheduled, at(18, 0)),
		tripAt("ongoing-new", trip.StatusOngoing, at(11, 0)),
	}

	result := trip.Reportable(now, trips)
	assert.Equal(t,
		[]string{"ongoing-new", "ongoing-old", "assigned", "sched-late", "sched-early"},
		ids(result.Trips))
}

func TestReportable_PrioritySequenceNonDecreasing(t *testing.T) {
	// Invariant: the output priority sequence never decreases.
	now := at(10, 0)
	var trips []trip.Trip
	statuses := []trip.Status{trip.StatusScheduled, trip.StatusOngoing, trip.StatusAssigned}
	for i := 0; i < 12; i++ {
		trips = append(trips, tripAt(
			string(rune('a'+i)),
			statuses[i%len(statuses)],
			now.Add(time.Duration(i-6)*time.Hour),
		))
	}

	result := trip.Reportable(now, trips)
	priority := map[trip.Status]int{trip.StatusOngoing: 1, trip.StatusAssigned: 2, trip.StatusScheduled: 3}
	for i := 1; i < len(result.Trips); i++ {
		prev := priority[result.Trips[i-1].Status]
		curr := priority[result.Trips[i].Status]
		assert.LessOrEqual(t, prev, curr, "priority must be non-decreasing at index %d", i)
	}
}

// =============================================================================
// RAW RECORDS
// =============================================================================

func TestReportableRaw_BadRecordsBecomeDiagnostics(t *testing.T) {
	now := at(9, 0)
	raw := []trip.RawTrip{
		{ID: "ok", Status: "ONGOING", StartTime: "2025-11-20T08:00:00Z", Pickup: "A", Dropoff: "B"},
		{ID: "bad-time", Status: "ONGOING", StartTime: "yesterday-ish", Pickup: "A", Dropoff: "B"},
		{ID: "bad-status", Status: "PAUSED", StartTime: "2025-11-20T08:00:00Z", Pickup: "A", Dropoff: "B"},
	}

	result := trip.ReportableRaw(now, raw)
	assert.Equal(t, []string{"ok"}, ids(result.Trips))

	excluded := make(map[string]bool)
	for _, ex := range result.Excluded {
		excluded[ex.TripID] = true
	}
	assert.True(t, excluded["bad-time"])
	assert.True(t, excluded["bad-status"])
}

func TestReportingGate(t *testing.T) {
	assert.NoError(t, trip.ReportingGate(trip.StatusOngoing))
	assert.NoError(t, trip.ReportingGate(trip.StatusAssigned))
	assert.NoError(t, trip.ReportingGate(trip.StatusScheduled))
	assert.Error(t, trip.ReportingGate(trip.StatusCompleted))
	assert.Error(t, trip.ReportingGate(trip.StatusCancelled))
}
