/*
seed.go - Demo dataset for the fleet rules engine

PURPOSE:
  Loads a small deterministic fleet so the API is explorable immediately:
  two drivers, trips in every lifecycle state around "now", and a leave
  history that straddles a month boundary (the interesting case for the
  quota clipping math).

  The dataset is anchored to the instant the seed runs, so "today's
  trips" really are today's and the reportable filter has something to
  return.

SEE ALSO:
  - handlers.go: SeedDemo endpoint
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fleetops/rule-engine/calendar"
	"github.com/fleetops/rule-engine/leave"
	"github.com/fleetops/rule-engine/store/sqlite"
	"github.com/fleetops/rule-engine/trip"
)

// SeedDemo resets the store and loads the demo fleet anchored at the
// handler clock (or ?now=).
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	now, err := h.now(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid now parameter", err)
		return
	}

	if err := Seed(r.Context(), h.Store, now); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to seed demo data", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "seeded",
		"anchored_at": now.Format(time.RFC3339),
	})
}

// Seed resets the store and inserts the demo fleet anchored at now.
func Seed(ctx context.Context, store *sqlite.Store, now time.Time) error {
	if err := store.Reset(ctx); err != nil {
		return err
	}

	drivers := []sqlite.Driver{
		{ID: "drv-minh", Name: "Minh Tran", Phone: "0901-234-567", LeaveAllowance: 2},
		{ID: "drv-lan", Name: "Lan Pham", Phone: "0902-345-678", LeaveAllowance: 4},
	}
	for _, d := range drivers {
		if err := store.CreateDriver(ctx, d); err != nil {
			return err
		}
	}

	today := calendar.DateOf(now)
	trips := []sqlite.TripRecord{
		// Started yesterday evening, still running: reportable via the
		// previous-day rule and always first in the list.
		{
			DriverID: "drv-minh",
			Trip: trip.Trip{
				ID:           "trip-overnight",
				Status:       trip.StatusOngoing,
				StartTime:    now.Add(-15 * time.Hour),
				Pickup:       "District 1 Depot",
				Dropoff:      "Da Lat Terminal",
				CustomerName: "Nguyen Van A",
			},
		},
		// Assigned, departing later today.
		{
			DriverID: "drv-minh",
			Trip: trip.Trip{
				ID:           "trip-afternoon",
				Status:       trip.StatusAssigned,
				StartTime:    now.Add(5 * time.Hour),
				Pickup:       "Tan Son Nhat Airport",
				Dropoff:      "Vung Tau Ferry",
				CustomerName: "Tran Thi B",
			},
		},
		// Scheduled, starting within the two-hour window.
		{
			DriverID: "drv-minh",
			Trip: trip.Trip{
				ID:        "trip-imminent",
				Status:    trip.StatusScheduled,
				StartTime: now.Add(90 * time.Minute),
				Pickup:    "Ben Thanh Market",
				Dropoff:   "Cu Chi Station",
			},
		},
		// Completed this morning: never reportable.
		{
			DriverID: "drv-minh",
			Trip: trip.Trip{
				ID:        "trip-done",
				Status:    trip.StatusCompleted,
				StartTime: now.Add(-6 * time.Hour),
				Pickup:    "District 7 Depot",
				Dropoff:   "Bien Hoa Yard",
			},
		},
		// Next week: outside every inclusion window.
		{
			DriverID: "drv-lan",
			Trip: trip.Trip{
				ID:        "trip-next-week",
				Status:    trip.StatusScheduled,
				StartTime: now.AddDate(0, 0, 7),
				Pickup:    "Binh Thanh Garage",
				Dropoff:   "Can Tho Hub",
			},
		},
	}
	for _, t := range trips {
		if err := store.CreateTrip(ctx, t); err != nil {
			return err
		}
	}

	// Leave history for drv-minh: one approved range straddling the
	// previous month boundary (exercises clipping) and one pending.
	monthStart := calendar.MonthOf(today).Start()
	leaves := []sqlite.LeaveRecord{
		{
			DriverID: "drv-minh",
			Request: leave.Request{
				ID:        "leave-straddle",
				StartDate: monthStart.AddDays(-2),
				EndDate:   monthStart.AddDays(1),
				Status:    leave.StatusApproved,
				Reason:    "family visit over the month break",
			},
		},
		{
			DriverID: "drv-minh",
			Request: leave.Request{
				ID:        "leave-pending",
				StartDate: today.AddDays(10),
				EndDate:   today.AddDays(11),
				Status:    leave.StatusPending,
				Reason:    "medical checkup appointment",
			},
		},
	}
	for _, l := range leaves {
		if err := store.CreateLeaveRequest(ctx, l); err != nil {
			return fmt.Errorf("failed to seed leave request %s: %w", l.ID, err)
		}
	}

	return nil
}
