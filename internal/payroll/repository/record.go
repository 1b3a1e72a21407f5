package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
)

const recordColumns = `
	id, employee_id, shift_id, date, first_half, second_half,
	first_half_fraction, second_half_fraction, leave_category,
	worked_minutes, overtime_minutes, created_at
`

// RecordRepository stores reconciled attendance records. Records are never updated.
type RecordRepository struct {
	db *database.DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *database.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// MostRecentDate returns the latest reconciled date across all employees
func (r *RecordRepository) MostRecentDate(ctx context.Context) (*time.Time, error) {
	var last sql.NullTime
	if err := r.db.GetContext(ctx, &last, `SELECT MAX(date) FROM attendance_records`); err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// LastDates returns the latest reconciled date of every employee with records
func (r *RecordRepository) LastDates(ctx context.Context) (map[string]time.Time, error) {
	var rows []struct {
		EmployeeID string    `db:"employee_id"`
		Date       time.Time `db:"last_date"`
	}
	query := `SELECT employee_id, MAX(date) AS last_date FROM attendance_records GROUP BY employee_id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	dates := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		dates[row.EmployeeID] = row.Date
	}
	return dates, nil
}

// Insert stores a record unless the employee already has one for the date
func (r *RecordRepository) Insert(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO attendance_records (
			id, employee_id, shift_id, date, first_half, second_half,
			first_half_fraction, second_half_fraction, leave_category,
			worked_minutes, overtime_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (employee_id, date) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.ShiftID, domain.FormatDate(rec.Date), rec.FirstHalf, rec.SecondHalf,
		rec.FirstHalfFraction, rec.SecondHalfFraction, rec.LeaveCategory,
		rec.WorkedMinutes, rec.OvertimeMinutes,
	)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return false, appErr
		}
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ListByEmployeeRange returns the employee's records dated within [from, to]
func (r *RecordRepository) ListByEmployeeRange(ctx context.Context, employeeID string, from, to time.Time) ([]*domain.AttendanceRecord, error) {
	var recs []*domain.AttendanceRecord
	query := `SELECT ` + recordColumns + ` FROM attendance_records
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`
	if err := r.db.SelectContext(ctx, &recs, query, employeeID, domain.FormatDate(from), domain.FormatDate(to)); err != nil {
		return nil, err
	}
	return recs, nil
}
