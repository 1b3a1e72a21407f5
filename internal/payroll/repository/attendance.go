package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

const attendanceColumns = `
	id, employee_id, shift_id, date, clock_in, clock_out, status, breaks,
	late_in, early_out, clock_in_reason, clock_out_reason, created_at, updated_at
`

// AttendanceRepository stores live attendances
type AttendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// GetOpen returns the attendance the employee has not clocked out of, if any
func (r *AttendanceRepository) GetOpen(ctx context.Context, employeeID string) (*domain.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances
		WHERE employee_id = $1 AND clock_out IS NULL
		ORDER BY date DESC LIMIT 1`
	return r.getOne(ctx, query, employeeID)
}

// GetByDate returns the employee's attendance for a calendar day, if any
func (r *AttendanceRepository) GetByDate(ctx context.Context, employeeID string, date time.Time) (*domain.Attendance, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE employee_id = $1 AND date = $2`
	return r.getOne(ctx, query, employeeID, domain.FormatDate(date))
}

func (r *AttendanceRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Attendance, error) {
	var att domain.Attendance
	err := r.db.GetContext(ctx, &att, query, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// ListByRange returns the employee's attendances dated within [from, to]
func (r *AttendanceRepository) ListByRange(ctx context.Context, employeeID string, from, to time.Time) ([]*domain.Attendance, error) {
	var items []*domain.Attendance
	query := `SELECT ` + attendanceColumns + ` FROM attendances
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`
	if err := r.db.SelectContext(ctx, &items, query, employeeID, domain.FormatDate(from), domain.FormatDate(to)); err != nil {
		return nil, err
	}
	return items, nil
}

// Create opens an attendance
func (r *AttendanceRepository) Create(ctx context.Context, att *domain.Attendance) error {
	if att.ID == "" {
		att.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attendances (
			id, employee_id, shift_id, date, clock_in, status, breaks,
			late_in, early_out, clock_in_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		att.ID, att.EmployeeID, att.ShiftID, domain.FormatDate(att.Date), att.ClockIn, att.Status, att.Breaks,
		att.LateIn, att.EarlyOut, att.ClockInReason,
	).Scan(&att.CreatedAt, &att.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// UpdateBreaks stores the break list and status of an open attendance
func (r *AttendanceRepository) UpdateBreaks(ctx context.Context, att *domain.Attendance) error {
	query := `
		UPDATE attendances SET breaks = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND clock_out IS NULL
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, att.ID, att.Breaks, att.Status).Scan(&att.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.StateConflict("attendance is already closed")
	}
	return err
}

// UpdateClockOut closes an open attendance
func (r *AttendanceRepository) UpdateClockOut(ctx context.Context, att *domain.Attendance) error {
	query := `
		UPDATE attendances SET
			clock_out = $2, status = $3, breaks = $4, early_out = $5,
			clock_out_reason = $6, updated_at = NOW()
		WHERE id = $1 AND clock_out IS NULL
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		att.ID, att.ClockOut, att.Status, att.Breaks, att.EarlyOut, att.ClockOutReason,
	).Scan(&att.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.StateConflict("attendance is already closed")
	}
	return err
}
