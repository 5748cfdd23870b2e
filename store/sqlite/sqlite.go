/*
Package sqlite provides the SQLite-backed persistence for the fleet engine.

PURPOSE:
  The rule packages (trip, leave, incident, expense) are pure and hold no
  state; this store owns the records they are evaluated against. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  drivers:        Driver records with their monthly leave allowance
  trips:          Trip records with lifecycle status
  leave_requests: Leave request history (inclusive date ranges)
  incidents:      Submitted incident reports
  expenses:       Submitted expense claims

STATUS COLUMNS:
  Statuses are stored as TEXT and re-parsed through the closed enums on
  read, so an unknown value in the database fails loudly at the boundary
  instead of leaking into the rules.

TRANSITION GUARD:
  UpdateTripStatus writes with "WHERE status = ?" so a concurrent
  transition loses cleanly instead of overwriting a newer state.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/fleet.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - api/handlers.go: The only consumer of this package
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/fleetops/rule-engine/calendar"
	"github.com/fleetops/rule-engine/expense"
	"github.com/fleetops/rule-engine/incident"
	"github.com/fleetops/rule-engine/leave"
	"github.com/fleetops/rule-engine/trip"
)

// Sentinel errors, use with errors.Is().
var (
	ErrNotFound    = errors.New("record not found")
	ErrStaleStatus = errors.New("trip status changed concurrently")
	ErrDuplicateID = errors.New("duplicate record id")
)

// =============================================================================
// RECORDS - Persisted shapes (domain value + ownership fields)
// =============================================================================

// Driver is a driver record. LeaveAllowance is the driver's monthly
// paid-leave allowance in days.
type Driver struct {
	ID             string
	Name           string
	Phone          string
	LeaveAllowance int
	CreatedAt      time.Time
}

// TripRecord links a trip value to its driver.
type TripRecord struct {
	trip.Trip
	DriverID string
}

// LeaveRecord links a leave request to its driver.
type LeaveRecord struct {
	leave.Request
	DriverID  string
	CreatedAt time.Time
}

// IncidentRecord is a submitted incident report.
type IncidentRecord struct {
	ID          string
	DriverID    string
	TripID      string
	Kind        incident.Kind
	Description string
	Location    string
	CreatedAt   time.Time
}

// ExpenseRecord is a submitted expense claim.
type ExpenseRecord struct {
	ID        string
	DriverID  string
	TripID    string
	Kind      expense.Kind
	Amount    decimal.Decimal
	Note      string
	CreatedAt time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store implements persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A second pooled connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS drivers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		leave_allowance INTEGER NOT NULL DEFAULT 2,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time TEXT NOT NULL,
		pickup TEXT NOT NULL,
		dropoff TEXT NOT NULL,
		customer_name TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trips_driver
		ON trips(driver_id);
	CREATE INDEX IF NOT EXISTS idx_trips_driver_start
		ON trips(driver_id, start_time);
	CREATE INDEX IF NOT EXISTS idx_trips_status
		ON trips(status);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_driver
		ON leave_requests(driver_id);
	CREATE INDEX IF NOT EXISTS idx_leave_driver_dates
		ON leave_requests(driver_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		trip_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL,
		location TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_incidents_driver
		ON incidents(driver_id);
	CREATE INDEX IF NOT EXISTS idx_incidents_trip
		ON incidents(trip_id);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		trip_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_driver
		ON expenses(driver_id);
	CREATE INDEX IF NOT EXISTS idx_expenses_trip
		ON expenses(trip_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DRIVERS
// =============================================================================

// CreateDriver inserts a driver record.
func (s *Store) CreateDriver(ctx context.Context, d Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drivers (id, name, phone, leave_allowance, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Phone, d.LeaveAllowance,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("driver %s: %w", d.ID, ErrDuplicateID)
	}
	return err
}

// GetDriver fetches a driver by ID.
func (s *Store) GetDriver(ctx context.Context, id string) (Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d Driver
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, leave_allowance, created_at
		FROM drivers WHERE id = ?`, id).
		Scan(&d.ID, &d.Name, &d.Phone, &d.LeaveAllowance, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Driver{}, fmt.Errorf("driver %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Driver{}, err
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return d, nil
}

// ListDrivers returns all drivers ordered by name.
func (s *Store) ListDrivers(ctx context.Context) ([]Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, leave_allowance, created_at
		FROM drivers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []Driver
	for rows.Next() {
		var d Driver
		var createdAt string
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.LeaveAllowance, &createdAt); err != nil {
			return nil, err
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// =============================================================================
// TRIPS
// =============================================================================

// CreateTrip inserts a trip record.
func (s *Store) CreateTrip(ctx context.Context, t TripRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trips (id, driver_id, status, start_time, pickup, dropoff, customer_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.DriverID, string(t.Status),
		t.StartTime.UTC().Format(time.RFC3339),
		t.Pickup, t.Dropoff, t.CustomerName,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("trip %s: %w", t.ID, ErrDuplicateID)
	}
	return err
}

// GetTrip fetches a trip by ID.
func (s *Store) GetTrip(ctx context.Context, id string) (TripRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, driver_id, status, start_time, pickup, dropoff, customer_name
		FROM trips WHERE id = ?`, id)

	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TripRecord{}, fmt.Errorf("trip %s: %w", id, ErrNotFound)
	}
	return t, err
}

// ListTripsByDriver returns a driver's trips ordered by start time.
func (s *Store) ListTripsByDriver(ctx context.Context, driverID string) ([]TripRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, driver_id, status, start_time, pickup, dropoff, customer_name
		FROM trips WHERE driver_id = ? ORDER BY start_time`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []TripRecord
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// UpdateTripStatus moves a trip from one status to another. The WHERE
// clause guards against a concurrent transition: if the stored status no
// longer matches, ErrStaleStatus is returned and nothing is written.
func (s *Store) UpdateTripStatus(ctx context.Context, id string, from, to trip.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE trips SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a missing trip from a stale status.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM trips WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("trip %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("trip %s: %w", id, ErrStaleStatus)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (TripRecord, error) {
	var t TripRecord
	var status, startTime string
	var customer sql.NullString

	if err := row.Scan(&t.ID, &t.DriverID, &status, &startTime, &t.Pickup, &t.Dropoff, &customer); err != nil {
		return TripRecord{}, err
	}

	parsed, err := trip.ParseStatus(status)
	if err != nil {
		return TripRecord{}, fmt.Errorf("trip %s: %w", t.ID, err)
	}
	t.Status = parsed

	t.StartTime, err = time.Parse(time.RFC3339, startTime)
	if err != nil {
		return TripRecord{}, fmt.Errorf("trip %s: invalid start time: %w", t.ID, err)
	}

	t.CustomerName = customer.String
	return t, nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// CreateLeaveRequest inserts a leave request record.
func (s *Store) CreateLeaveRequest(ctx context.Context, r LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests (id, driver_id, start_date, end_date, status, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DriverID,
		r.StartDate.String(), r.EndDate.String(),
		string(r.Status), r.Reason,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("leave request %s: %w", r.ID, ErrDuplicateID)
	}
	return err
}

// ListLeaveByDriver returns a driver's leave requests ordered by start date.
func (s *Store) ListLeaveByDriver(ctx context.Context, driverID string) ([]LeaveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, driver_id, start_date, end_date, status, reason, created_at
		FROM leave_requests WHERE driver_id = ? ORDER BY start_date`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []LeaveRecord
	for rows.Next() {
		var r LeaveRecord
		var start, end, status, createdAt string
		if err := rows.Scan(&r.ID, &r.DriverID, &start, &end, &status, &r.Reason, &createdAt); err != nil {
			return nil, err
		}

		r.StartDate, err = calendar.ParseDate(start)
		if err != nil {
			return nil, fmt.Errorf("leave request %s: %w", r.ID, err)
		}
		r.EndDate, err = calendar.ParseDate(end)
		if err != nil {
			return nil, fmt.Errorf("leave request %s: %w", r.ID, err)
		}
		r.Status, err = leave.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("leave request %s: %w", r.ID, err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		records = append(records, r)
	}
	return records, rows.Err()
}

// SetLeaveStatus updates the approval status of a leave request.
func (s *Store) SetLeaveStatus(ctx context.Context, id string, status leave.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_requests SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("leave request %s: %w", id, ErrNotFound)
	}
	return nil
}

// =============================================================================
// INCIDENTS
// =============================================================================

// CreateIncident inserts an incident report record.
func (s *Store) CreateIncident(ctx context.Context, r IncidentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents (id, driver_id, trip_id, kind, description, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DriverID, r.TripID, string(r.Kind), r.Description, r.Location,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("incident %s: %w", r.ID, ErrDuplicateID)
	}
	return err
}

// ListIncidentsByDriver returns a driver's incident reports, newest first.
func (s *Store) ListIncidentsByDriver(ctx context.Context, driverID string) ([]IncidentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, driver_id, trip_id, kind, description, location, created_at
		FROM incidents WHERE driver_id = ? ORDER BY created_at DESC`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []IncidentRecord
	for rows.Next() {
		var r IncidentRecord
		var kind string
		var location sql.NullString
		var createdAt string
		if err := rows.Scan(&r.ID, &r.DriverID, &r.TripID, &kind, &r.Description, &location, &createdAt); err != nil {
			return nil, err
		}
		r.Kind, err = incident.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("incident %s: %w", r.ID, err)
		}
		r.Location = location.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// EXPENSES
// =============================================================================

// CreateExpense inserts an expense claim record. Amounts are stored as
// decimal strings, never floats.
func (s *Store) CreateExpense(ctx context.Context, r ExpenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, driver_id, trip_id, kind, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DriverID, r.TripID, string(r.Kind), r.Amount.String(), r.Note,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("expense %s: %w", r.ID, ErrDuplicateID)
	}
	return err
}

// ListExpensesByTrip returns the expense claims recorded against a trip.
func (s *Store) ListExpensesByTrip(ctx context.Context, tripID string) ([]ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, driver_id, trip_id, kind, amount, note, created_at
		FROM expenses WHERE trip_id = ? ORDER BY created_at`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ExpenseRecord
	for rows.Next() {
		var r ExpenseRecord
		var kind, amount string
		var note sql.NullString
		var createdAt string
		if err := rows.Scan(&r.ID, &r.DriverID, &r.TripID, &kind, &amount, &note, &createdAt); err != nil {
			return nil, err
		}
		r.Kind, err = expense.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", r.ID, err)
		}
		r.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("expense %s: invalid amount: %w", r.ID, err)
		}
		r.Note = note.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset deletes all rows from every table. Used by the demo seed endpoint.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"expenses", "incidents", "leave_requests", "trips", "drivers"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// go-sqlite3 reports constraint violations in the error text.
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed")
}
