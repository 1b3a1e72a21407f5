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

const leaveColumns = `id, employee_id, date, day_status, leave_status, category, fraction, created_at, updated_at`

// LeaveRepository stores leave requests
type LeaveRepository struct {
	db *database.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *database.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create stores a leave request
func (r *LeaveRepository) Create(ctx context.Context, leave *domain.Leave) error {
	if leave.ID == "" {
		leave.ID = uuid.New().String()
	}

	query := `
		INSERT INTO leaves (id, employee_id, date, day_status, leave_status, category, fraction)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		leave.ID, leave.EmployeeID, domain.FormatDate(leave.Date), leave.DayStatus, leave.Status, leave.Category, leave.Fraction,
	).Scan(&leave.CreatedAt, &leave.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID returns a leave
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*domain.Leave, error) {
	var leave domain.Leave
	err := r.db.GetContext(ctx, &leave, `SELECT `+leaveColumns+` FROM leaves WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("leave")
	}
	if err != nil {
		return nil, err
	}
	return &leave, nil
}

// GetApproved returns the approved leave of an employee on a date, if any.
// The most recent approval wins when several exist.
func (r *LeaveRepository) GetApproved(ctx context.Context, employeeID string, date time.Time) (*domain.Leave, error) {
	var leave domain.Leave
	query := `SELECT ` + leaveColumns + ` FROM leaves
		WHERE employee_id = $1 AND date = $2 AND leave_status = 'approved'
		ORDER BY updated_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &leave, query, employeeID, domain.FormatDate(date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &leave, nil
}

// UpdateStatus moves a pending leave to status
func (r *LeaveRepository) UpdateStatus(ctx context.Context, id string, status domain.LeaveStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE leaves SET leave_status = $2, updated_at = NOW() WHERE id = $1 AND leave_status = 'pending'`,
		id, status,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.StateConflict("leave is no longer pending")
	}
	return nil
}
