/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the rule-engine domain types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ERROR CODES:
  Rule violations map 1:1 to stable codes so clients can render
  field-level messages:
    inverted_range, start_in_past, exceeds_allowance, reason_too_short,
    trip_not_reportable, unknown_kind, description_too_short,
    non_positive_amount, illegal_transition

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/fleetops/rule-engine/leave"
	"github.com/fleetops/rule-engine/store/sqlite"
	"github.com/fleetops/rule-engine/trip"
)

// =============================================================================
// DRIVERS
// =============================================================================

// DriverDTO represents a driver in API responses.
type DriverDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	LeaveAllowance int    `json:"leave_allowance"`
}

// CreateDriverRequest is the request to create a driver.
type CreateDriverRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	LeaveAllowance int    `json:"leave_allowance"`
}

func toDriverDTO(d sqlite.Driver) DriverDTO {
	return DriverDTO{
		ID:             d.ID,
		Name:           d.Name,
		Phone:          d.Phone,
		LeaveAllowance: d.LeaveAllowance,
	}
}

// =============================================================================
// TRIPS
// =============================================================================

// TripDTO represents a trip in API responses.
type TripDTO struct {
	ID           string `json:"id"`
	DriverID     string `json:"driver_id,omitempty"`
	Status       string `json:"status"`
	StartTime    string `json:"start_time"`
	Pickup       string `json:"pickup_location"`
	Dropoff      string `json:"dropoff_location"`
	CustomerName string `json:"customer_name,omitempty"`
}

// CreateTripRequest is the request to create a trip.
type CreateTripRequest struct {
	ID           string `json:"id"`
	DriverID     string `json:"driver_id"`
	Status       string `json:"status"`
	StartTime    string `json:"start_time"`
	Pickup       string `json:"pickup_location"`
	Dropoff      string `json:"dropoff_location"`
	CustomerName string `json:"customer_name"`
}

// TransitionRequest asks to move a trip to a new lifecycle state.
type TransitionRequest struct {
	RequestedStatus string `json:"requested_status"`
}

// ExclusionDTO is a filter diagnostic for a record that could not be
// evaluated.
type ExclusionDTO struct {
	TripID string `json:"trip_id"`
	Reason string `json:"reason"`
}

// ReportableTripsDTO is the ordered reportable list plus diagnostics.
type ReportableTripsDTO struct {
	Trips    []TripDTO      `json:"trips"`
	Excluded []ExclusionDTO `json:"excluded,omitempty"`
}

func toTripDTO(t trip.Trip, driverID string) TripDTO {
	return TripDTO{
		ID:           t.ID,
		DriverID:     driverID,
		Status:       string(t.Status),
		StartTime:    t.StartTime.Format("2006-01-02T15:04:05Z07:00"),
		Pickup:       t.Pickup,
		Dropoff:      t.Dropoff,
		CustomerName: t.CustomerName,
	}
}

// =============================================================================
// LEAVE
// =============================================================================

// QuotaDTO is the monthly leave allowance picture for a driver.
type QuotaDTO struct {
	DriverID  string `json:"driver_id"`
	Month     string `json:"month"`
	Allowed   int    `json:"allowed_days"`
	Used      int    `json:"used_days"`
	Remaining int    `json:"remaining_days"`
}

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID        string `json:"id"`
	DriverID  string `json:"driver_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// SubmitLeaveRequest is the request body for a new leave request.
type SubmitLeaveRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

func toLeaveDTO(r sqlite.LeaveRecord) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:        r.ID,
		DriverID:  r.DriverID,
		StartDate: r.StartDate.String(),
		EndDate:   r.EndDate.String(),
		Status:    string(r.Status),
		Reason:    r.Reason,
	}
}

func toLeaveRequests(records []sqlite.LeaveRecord) []leave.Request {
	requests := make([]leave.Request, len(records))
	for i, r := range records {
		requests[i] = r.Request
	}
	return requests
}

// =============================================================================
// INCIDENTS / EXPENSES
// =============================================================================

// SubmitIncidentRequest is the request body for an incident report.
type SubmitIncidentRequest struct {
	TripID      string `json:"trip_id"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// IncidentDTO represents a stored incident report.
type IncidentDTO struct {
	ID          string `json:"id"`
	DriverID    string `json:"driver_id"`
	TripID      string `json:"trip_id"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// SubmitExpenseRequest is the request body for an expense claim. Amount is
// a decimal string to keep currency out of floating point.
type SubmitExpenseRequest struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
	Note   string `json:"note"`
}

// ExpenseDTO represents a stored expense claim.
type ExpenseDTO struct {
	ID       string `json:"id"`
	DriverID string `json:"driver_id"`
	TripID   string `json:"trip_id"`
	Kind     string `json:"kind"`
	Amount   string `json:"amount"`
	Note     string `json:"note,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error      string         `json:"error"`
	Code       string         `json:"code,omitempty"`
	Details    string         `json:"details,omitempty"`
	Violations []ViolationDTO `json:"violations,omitempty"`
}

// ViolationDTO is one failed check from a collect-all validation.
type ViolationDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
