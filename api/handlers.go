/*
handlers.go - HTTP API handlers for the fleet rules engine

PURPOSE:
  Exposes the rule packages via REST. Handlers do three things: parse and
  validate the wire shapes, run the pure rules with an explicit now/today,
  and persist only what the rules approved. No business rule lives here.

ENDPOINTS:
  Drivers:
    GET    /api/drivers                          List drivers
    POST   /api/drivers                          Create driver
    GET    /api/drivers/{id}                     Get driver
    GET    /api/drivers/{id}/trips               Driver's trips
    GET    /api/drivers/{id}/trips/reportable    Incident-reportable trips
    GET    /api/drivers/{id}/leave/quota         Monthly leave quota
    GET    /api/drivers/{id}/leave/requests      Leave history
    POST   /api/drivers/{id}/leave/requests      Submit leave request
    POST   /api/drivers/{id}/incidents           Submit incident report

  Trips:
    POST   /api/trips                            Create trip
    POST   /api/trips/{id}/transition            Lifecycle transition
    GET    /api/trips/{id}/expenses              Trip expense claims
    POST   /api/trips/{id}/expenses              Submit expense claim

  Leave approval:
    POST   /api/leave-requests/{id}/approve
    POST   /api/leave-requests/{id}/reject

  Demo:
    POST   /api/seed                             Load the demo fleet

TIME PARAMETERS:
  The rules never read a clock. Handlers accept explicit overrides
  (?now=RFC3339, ?today=2006-01-02, ?month=2006-01) and fall back to the
  server clock only at this boundary. Tests pin the parameters.

ERROR HANDLING:
  - 400: malformed input (bad dates, bad JSON, unknown enum values)
  - 404: missing driver/trip/request
  - 409: illegal lifecycle transition, concurrent status change
  - 422: rule violation (leave policy, incident gate, expense check)
  - 500: storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - seed.go: Demo dataset
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fleetops/rule-engine/calendar"
	"github.com/fleetops/rule-engine/expense"
	"github.com/fleetops/rule-engine/incident"
	"github.com/fleetops/rule-engine/leave"
	"github.com/fleetops/rule-engine/store/sqlite"
	"github.com/fleetops/rule-engine/trip"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	// Clock supplies "now" when a request does not pin it. Tests replace
	// this with a fixed instant.
	Clock func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store: store,
		Clock: time.Now,
	}
}

// now returns the explicit ?now= parameter or the handler clock.
func (h *Handler) now(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("now")
	if raw == "" {
		return h.Clock(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid now %q: %w", raw, err)
	}
	return t, nil
}

// today returns the explicit ?today= parameter or the clock's calendar day.
func (h *Handler) today(r *http.Request) (calendar.Date, error) {
	raw := r.URL.Query().Get("today")
	if raw == "" {
		return calendar.DateOf(h.Clock()), nil
	}
	return calendar.ParseDate(raw)
}

// =============================================================================
// DRIVER HANDLERS
// =============================================================================

// ListDrivers returns all drivers.
func (h *Handler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.Store.ListDrivers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list drivers", err)
		return
	}

	dtos := make([]DriverDTO, 0, len(drivers))
	for _, d := range drivers {
		dtos = append(dtos, toDriverDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDriver creates a driver record.
func (h *Handler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req CreateDriverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	d := sqlite.Driver{
		ID:             req.ID,
		Name:           req.Name,
		Phone:          req.Phone,
		LeaveAllowance: req.LeaveAllowance,
	}
	if err := h.Store.CreateDriver(r.Context(), d); err != nil {
		if errors.Is(err, sqlite.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "driver already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create driver", err)
		return
	}

	writeJSON(w, http.StatusCreated, toDriverDTO(d))
}

// GetDriver returns one driver.
func (h *Handler) GetDriver(w http.ResponseWriter, r *http.Request) {
	d, err := h.Store.GetDriver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "driver not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load driver", err)
		return
	}
	writeJSON(w, http.StatusOK, toDriverDTO(d))
}

// =============================================================================
// TRIP HANDLERS
// =============================================================================

// CreateTrip creates a trip record. The status and start time pass through
// the same boundary parsing the engine uses.
func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req CreateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	raw := trip.RawTrip{
		ID:           req.ID,
		Status:       req.Status,
		StartTime:    req.StartTime,
		Pickup:       req.Pickup,
		Dropoff:      req.Dropoff,
		CustomerName: req.CustomerName,
	}
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}

	decoded, err := raw.Decode()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trip record", err)
		return
	}

	if _, err := h.Store.GetDriver(r.Context(), req.DriverID); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "driver not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load driver", err)
		return
	}

	record := sqlite.TripRecord{Trip: decoded, DriverID: req.DriverID}
	if err := h.Store.CreateTrip(r.Context(), record); err != nil {
		if errors.Is(err, sqlite.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "trip already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create trip", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTripDTO(decoded, req.DriverID))
}

// ListDriverTrips returns all of a driver's trips.
func (h *Handler) ListDriverTrips(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "id")
	trips, err := h.Store.ListTripsByDriver(r.Context(), driverID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list trips", err)
		return
	}

	dtos := make([]TripDTO, 0, len(trips))
	for _, t := range trips {
		dtos = append(dtos, toTripDTO(t.Trip, t.DriverID))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ReportableTrips returns the ordered subset of a driver's trips eligible
// for incident reporting at "now".
func (h *Handler) ReportableTrips(w http.ResponseWriter, r *http.Request) {
	now, err := h.now(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid now parameter", err)
		return
	}

	driverID := chi.URLParam(r, "id")
	records, err := h.Store.ListTripsByDriver(r.Context(), driverID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list trips", err)
		return
	}

	trips := make([]trip.Trip, len(records))
	for i, rec := range records {
		trips[i] = rec.Trip
	}

	result := trip.Reportable(now, trips)

	dto := ReportableTripsDTO{Trips: make([]TripDTO, 0, len(result.Trips))}
	for _, t := range result.Trips {
		dto.Trips = append(dto.Trips, toTripDTO(t, driverID))
	}
	for _, ex := range result.Excluded {
		dto.Excluded = append(dto.Excluded, ExclusionDTO{TripID: ex.TripID, Reason: ex.Reason})
	}
	writeJSON(w, http.StatusOK, dto)
}

// TransitionTrip validates a lifecycle transition against the state machine
// and persists the new status only if the rules approve it.
func (h *Handler) TransitionTrip(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	requested, err := trip.ParseStatus(req.RequestedStatus)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid requested status", err)
		return
	}

	tripID := chi.URLParam(r, "id")
	record, err := h.Store.GetTrip(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trip not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load trip", err)
		return
	}

	next, err := trip.Transition(record.Status, requested)
	if err != nil {
		var illegal *trip.IllegalTransitionError
		if errors.As(err, &illegal) {
			writeCoded(w, http.StatusConflict, "illegal_transition", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "transition failed", err)
		return
	}

	if err := h.Store.UpdateTripStatus(r.Context(), tripID, record.Status, next); err != nil {
		if errors.Is(err, sqlite.ErrStaleStatus) {
			writeCoded(w, http.StatusConflict, "stale_status", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to persist transition", err)
		return
	}

	record.Status = next
	writeJSON(w, http.StatusOK, toTripDTO(record.Trip, record.DriverID))
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// LeaveQuota returns the driver's allowance picture for a month. Remaining
// may be negative; the engine does not clamp it and neither does this
// endpoint.
func (h *Handler) LeaveQuota(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "id")

	driver, err := h.Store.GetDriver(r.Context(), driverID)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "driver not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load driver", err)
		return
	}

	month := calendar.MonthOf(calendar.DateOf(h.Clock()))
	if raw := r.URL.Query().Get("month"); raw != "" {
		month, err = calendar.ParseMonth(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid month parameter", err)
			return
		}
	}

	records, err := h.Store.ListLeaveByDriver(r.Context(), driverID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list leave requests", err)
		return
	}

	quota := leave.Quota(toLeaveRequests(records), driver.LeaveAllowance, month)
	writeJSON(w, http.StatusOK, QuotaDTO{
		DriverID:  driverID,
		Month:     month.String(),
		Allowed:   quota.Allowed,
		Used:      quota.Used,
		Remaining: quota.Remaining,
	})
}

// ListLeaveRequests returns a driver's leave history.
func (h *Handler) ListLeaveRequests(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListLeaveByDriver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list leave requests", err)
		return
	}

	dtos := make([]LeaveRequestDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, toLeaveDTO(rec))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SubmitLeaveRequest validates a new leave request against policy and the
// remaining allowance for the month of its start date, then persists it as
// PENDING.
func (h *Handler) SubmitLeaveRequest(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "id")

	driver, err := h.Store.GetDriver(r.Context(), driverID)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "driver not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load driver", err)
		return
	}

	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date", err)
		return
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date", err)
		return
	}
	today, err := h.today(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid today parameter", err)
		return
	}

	records, err := h.Store.ListLeaveByDriver(r.Context(), driverID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list leave requests", err)
		return
	}

	month := calendar.MonthOf(start)
	quota := leave.Quota(toLeaveRequests(records), driver.LeaveAllowance, month)

	candidate := leave.Candidate{StartDate: start, EndDate: end, Reason: req.Reason}
	if err := leave.ValidateNew(candidate, today, quota.Remaining); err != nil {
		writeCoded(w, http.StatusUnprocessableEntity, leaveCode(err), err)
		return
	}

	record := sqlite.LeaveRecord{
		Request: leave.Request{
			ID:        uuid.NewString(),
			StartDate: start,
			EndDate:   end,
			Status:    leave.StatusPending,
			Reason:    req.Reason,
		},
		DriverID: driverID,
	}
	if err := h.Store.CreateLeaveRequest(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create leave request", err)
		return
	}

	writeJSON(w, http.StatusCreated, toLeaveDTO(record))
}

// ApproveLeave marks a leave request APPROVED.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.setLeaveStatus(w, r, leave.StatusApproved)
}

// RejectLeave marks a leave request REJECTED.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.setLeaveStatus(w, r, leave.StatusRejected)
}

func (h *Handler) setLeaveStatus(w http.ResponseWriter, r *http.Request, status leave.Status) {
	id := chi.URLParam(r, "id")
	if err := h.Store.SetLeaveStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "leave request not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update leave request", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
}

// =============================================================================
// INCIDENT HANDLERS
// =============================================================================

// SubmitIncident validates an incident report against the reporting gate
// and persists it.
func (h *Handler) SubmitIncident(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "id")

	var req SubmitIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	record, err := h.Store.GetTrip(r.Context(), req.TripID)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trip not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load trip", err)
		return
	}

	report := incident.Report{
		TripID:      req.TripID,
		TripStatus:  record.Status,
		Kind:        incident.Kind(req.Kind),
		Description: req.Description,
		Location:    req.Location,
	}
	if err := incident.Validate(report); err != nil {
		writeCoded(w, http.StatusUnprocessableEntity, incidentCode(err), err)
		return
	}

	stored := sqlite.IncidentRecord{
		ID:          uuid.NewString(),
		DriverID:    driverID,
		TripID:      report.TripID,
		Kind:        report.Kind,
		Description: report.Description,
		Location:    report.Location,
	}
	if err := h.Store.CreateIncident(r.Context(), stored); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create incident", err)
		return
	}

	writeJSON(w, http.StatusCreated, IncidentDTO{
		ID:          stored.ID,
		DriverID:    stored.DriverID,
		TripID:      stored.TripID,
		Kind:        string(stored.Kind),
		Description: stored.Description,
		Location:    stored.Location,
	})
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// SubmitExpense validates an expense claim and persists it against a trip.
func (h *Handler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "id")

	record, err := h.Store.GetTrip(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trip not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load trip", err)
		return
	}

	var req SubmitExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}

	claim := expense.Claim{
		TripID: tripID,
		Kind:   expense.Kind(req.Kind),
		Amount: amount,
		Note:   req.Note,
	}
	if err := expense.Validate(claim); err != nil {
		writeCoded(w, http.StatusUnprocessableEntity, expenseCode(err), err)
		return
	}

	stored := sqlite.ExpenseRecord{
		ID:       uuid.NewString(),
		DriverID: record.DriverID,
		TripID:   tripID,
		Kind:     claim.Kind,
		Amount:   claim.Amount,
		Note:     claim.Note,
	}
	if err := h.Store.CreateExpense(r.Context(), stored); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create expense", err)
		return
	}

	writeJSON(w, http.StatusCreated, ExpenseDTO{
		ID:       stored.ID,
		DriverID: stored.DriverID,
		TripID:   stored.TripID,
		Kind:     string(stored.Kind),
		Amount:   stored.Amount.String(),
		Note:     stored.Note,
	})
}

// ListTripExpenses returns the expense claims recorded against a trip.
func (h *Handler) ListTripExpenses(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListExpensesByTrip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list expenses", err)
		return
	}

	dtos := make([]ExpenseDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, ExpenseDTO{
			ID:       rec.ID,
			DriverID: rec.DriverID,
			TripID:   rec.TripID,
			Kind:     string(rec.Kind),
			Amount:   rec.Amount.String(),
			Note:     rec.Note,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeCoded(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Code:    code,
		Details: err.Error(),
	})
}

// leaveCode maps a leave validation error to its stable wire code.
func leaveCode(err error) string {
	var (
		inverted *leave.ErrInvertedRange
		past     *leave.ErrStartInPast
		exceeds  *leave.ErrExceedsAllowance
		short    *leave.ErrReasonTooShort
	)
	switch {
	case errors.As(err, &inverted):
		return "inverted_range"
	case errors.As(err, &past):
		return "start_in_past"
	case errors.As(err, &exceeds):
		return "exceeds_allowance"
	case errors.As(err, &short):
		return "reason_too_short"
	}
	return "invalid_request"
}

// incidentCode maps an incident validation error to its stable wire code.
func incidentCode(err error) string {
	var (
		gate  *incident.ErrTripNotReportable
		kind  *incident.ErrUnknownKind
		short *incident.ErrDescriptionTooShort
	)
	switch {
	case errors.As(err, &gate):
		return "trip_not_reportable"
	case errors.As(err, &kind):
		return "unknown_kind"
	case errors.As(err, &short):
		return "description_too_short"
	}
	return "invalid_request"
}

// expenseCode maps an expense validation error to its stable wire code.
func expenseCode(err error) string {
	var (
		kind   *expense.ErrUnknownKind
		amount *expense.ErrNonPositiveAmount
	)
	switch {
	case errors.As(err, &kind):
		return "unknown_kind"
	case errors.As(err, &amount):
		return "non_positive_amount"
	}
	return "invalid_request"
}
