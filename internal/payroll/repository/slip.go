package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

const slipColumns = `
	id, employee_id, payroll_month, period_start, period_end, earnings,
	present_shift, paid_leave_shift, absent_shift, advance_shift, advance_credit,
	overtime_minutes, overtime_wage, advance_overtime_wage,
	bonus, penalty, advance_penalty, statutory, gross, created_at
`

// SlipRepository stores salary slips
type SlipRepository struct {
	db *database.DB
}

// NewSlipRepository creates a new slip repository
func NewSlipRepository(db *database.DB) *SlipRepository {
	return &SlipRepository{db: db}
}

// Replace deletes any slip of the same employee and month and inserts slip
func (r *SlipRepository) Replace(ctx context.Context, slip *domain.SalarySlip) error {
	if slip.ID == "" {
		slip.ID = uuid.New().String()
	}

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM salary_slips WHERE employee_id = $1 AND payroll_month = $2`,
			slip.EmployeeID, slip.PayrollMonth,
		)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO salary_slips (
				id, employee_id, payroll_month, period_start, period_end, earnings,
				present_shift, paid_leave_shift, absent_shift, advance_shift, advance_credit,
				overtime_minutes, overtime_wage, advance_overtime_wage,
				bonus, penalty, advance_penalty, statutory, gross
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			RETURNING created_at
		`
		return tx.QueryRowxContext(ctx, query,
			slip.ID, slip.EmployeeID, slip.PayrollMonth,
			domain.FormatDate(slip.PeriodStart), domain.FormatDate(slip.PeriodEnd), slip.Earnings,
			slip.PresentShift, slip.PaidLeaveShift, slip.AbsentShift, slip.AdvanceShift, slip.AdvanceCredit,
			slip.OvertimeMinutes, slip.OvertimeWage, slip.AdvanceOvertimeWage,
			slip.Bonus, slip.Penalty, slip.AdvancePenalty, slip.Statutory, slip.Gross,
		).Scan(&slip.CreatedAt)
	})
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// Get returns the slip of an employee for a YYYY-MM month
func (r *SlipRepository) Get(ctx context.Context, employeeID, month string) (*domain.SalarySlip, error) {
	var slip domain.SalarySlip
	query := `SELECT ` + slipColumns + ` FROM salary_slips WHERE employee_id = $1 AND payroll_month = $2`
	err := r.db.GetContext(ctx, &slip, query, employeeID, month)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("salary slip")
	}
	if err != nil {
		return nil, err
	}
	return &slip, nil
}
