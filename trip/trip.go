package trip

import (
	"fmt"
	"time"
)

// =============================================================================
// TRIP - Value object owned by the caller
// =============================================================================

// Trip is a single scheduled transport job assigned to a driver. The engine
// never mutates a Trip; all rule functions take copies and return new values.
type Trip struct {
	ID           string
	Status       Status
	StartTime    time.Time // scheduled or actual pickup instant
	Pickup       string    // display string, not interpreted
	Dropoff      string    // display string, not interpreted
	CustomerName string    // optional
}

// =============================================================================
// RAW RECORD - Backend wire shape
// =============================================================================

// RawTrip is the shape trips arrive in from the backend: string status and
// ISO-8601 start time. Decode validates both at the boundary.
type RawTrip struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	StartTime    string `json:"start_time"`
	Pickup       string `json:"pickup_location"`
	Dropoff      string `json:"dropoff_location"`
	CustomerName string `json:"customer_name,omitempty"`
}

// Decode converts a raw record into a Trip. An unknown status or an
// unparseable start time is an error; callers deciding to tolerate bad
// records (the eligibility filter does) handle the error themselves.
func (r RawTrip) Decode() (Trip, error) {
	status, err := ParseStatus(r.Status)
	if err != nil {
		return Trip{}, fmt.Errorf("trip %s: %w", r.ID, err)
	}

	start, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return Trip{}, fmt.Errorf("trip %s: invalid start time %q: %w", r.ID, r.StartTime, err)
	}

	return Trip{
		ID:           r.ID,
		Status:       status,
		StartTime:    start,
		Pickup:       r.Pickup,
		Dropoff:      r.Dropoff,
		CustomerName: r.CustomerName,
	}, nil
}
