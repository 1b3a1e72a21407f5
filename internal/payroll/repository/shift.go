package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

// ShiftRepository stores shift definitions
type ShiftRepository struct {
	db *database.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *database.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create stores a new shift
func (r *ShiftRepository) Create(ctx context.Context, shift *domain.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.New().String()
	}

	query := `INSERT INTO shifts (id, name, days) VALUES ($1, $2, $3) RETURNING created_at`
	err := r.db.QueryRowxContext(ctx, query, shift.ID, shift.Name, shift.Days).Scan(&shift.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID returns a shift
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	var shift domain.Shift
	err := r.db.GetContext(ctx, &shift, `SELECT id, name, days, created_at FROM shifts WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("shift")
	}
	if err != nil {
		return nil, err
	}
	return &shift, nil
}
