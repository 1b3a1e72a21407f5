package repository

import (
	"context"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
)

// PolicyRepository reads and writes the single payroll policy row
type PolicyRepository struct {
	db *database.DB
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *database.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// Get returns the payroll policy
func (r *PolicyRepository) Get(ctx context.Context) (*domain.Policy, error) {
	var p domain.Policy
	query := `
		SELECT late_in_penalty, break_penalty, break_allowance_minutes, epf_cap, epf_percentage
		FROM policies WHERE id = 1
	`
	if err := r.db.GetContext(ctx, &p, query); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces the payroll policy
func (r *PolicyRepository) Update(ctx context.Context, p *domain.Policy) error {
	query := `
		INSERT INTO policies (id, late_in_penalty, break_penalty, break_allowance_minutes, epf_cap, epf_percentage)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			late_in_penalty = EXCLUDED.late_in_penalty,
			break_penalty = EXCLUDED.break_penalty,
			break_allowance_minutes = EXCLUDED.break_allowance_minutes,
			epf_cap = EXCLUDED.epf_cap,
			epf_percentage = EXCLUDED.epf_percentage,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, p.LateInPenalty, p.BreakPenalty, p.BreakAllowanceMinutes, p.EPFCap, p.EPFPercentage)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}
