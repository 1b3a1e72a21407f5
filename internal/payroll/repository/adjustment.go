package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
)

// BonusRepository stores bonuses
type BonusRepository struct {
	db *database.DB
}

// NewBonusRepository creates a new bonus repository
func NewBonusRepository(db *database.DB) *BonusRepository {
	return &BonusRepository{db: db}
}

// Create stores a bonus
func (r *BonusRepository) Create(ctx context.Context, bonus *domain.Bonus) error {
	if bonus.ID == "" {
		bonus.ID = uuid.New().String()
	}

	query := `
		INSERT INTO bonuses (id, employee_id, date, amount, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		bonus.ID, bonus.EmployeeID, domain.FormatDate(bonus.Date), bonus.Amount, bonus.Reason,
	).Scan(&bonus.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// SumByDateRange totals the employee's bonuses dated within [from, to]
func (r *BonusRepository) SumByDateRange(ctx context.Context, employeeID string, from, to time.Time) (float64, error) {
	return sumAmounts(ctx, r.db, "bonuses", employeeID, from, to)
}

// PenaltyRepository stores penalties
type PenaltyRepository struct {
	db *database.DB
}

// NewPenaltyRepository creates a new penalty repository
func NewPenaltyRepository(db *database.DB) *PenaltyRepository {
	return &PenaltyRepository{db: db}
}

// Create stores a penalty unless one with the same employee, date and
// reason exists. It reports whether a row was written.
func (r *PenaltyRepository) Create(ctx context.Context, penalty *domain.Penalty) (bool, error) {
	if penalty.ID == "" {
		penalty.ID = uuid.New().String()
	}

	query := `
		INSERT INTO penalties (id, employee_id, date, amount, reason)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, date, reason) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		penalty.ID, penalty.EmployeeID, domain.FormatDate(penalty.Date), penalty.Amount, penalty.Reason,
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

// SumByDateRange totals the employee's penalties dated within [from, to],
// leaving out the reasons in except
func (r *PenaltyRepository) SumByDateRange(ctx context.Context, employeeID string, from, to time.Time, except ...string) (float64, error) {
	if len(except) == 0 {
		return sumAmounts(ctx, r.db, "penalties", employeeID, from, to)
	}

	var sum float64
	query := `
		SELECT COALESCE(SUM(amount), 0) FROM penalties
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3 AND NOT (reason = ANY($4))
	`
	err := r.db.GetContext(ctx, &sum, query, employeeID, domain.FormatDate(from), domain.FormatDate(to), pq.Array(except))
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// sumAmounts totals a dated amount table; table is never user input
func sumAmounts(ctx context.Context, db *database.DB, table, employeeID string, from, to time.Time) (float64, error) {
	var sum float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM ` + table + ` WHERE employee_id = $1 AND date BETWEEN $2 AND $3`
	if err := db.GetContext(ctx, &sum, query, employeeID, domain.FormatDate(from), domain.FormatDate(to)); err != nil {
		return 0, err
	}
	return sum, nil
}
