package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
)

const periodColumns = `
	id, start_date, end_date, year_label, replay_start, replay_end,
	advance_start, advance_end, created_at
`

// AdvanceRepository reads advance payrolls
type AdvanceRepository struct {
	db *database.DB
}

// NewAdvanceRepository creates a new advance repository
func NewAdvanceRepository(db *database.DB) *AdvanceRepository {
	return &AdvanceRepository{db: db}
}

// GetPending returns the advance awaiting settlement, if any
func (r *AdvanceRepository) GetPending(ctx context.Context) (*domain.AdvancePayroll, error) {
	var adv domain.AdvancePayroll
	query := `
		SELECT id, start_date, end_date, status, created_at, resolved_at
		FROM advance_payrolls WHERE status = 'pending'
	`
	err := r.db.GetContext(ctx, &adv, query)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &adv, nil
}

// PeriodRepository stores payroll period markers
type PeriodRepository struct {
	db *database.DB
}

// NewPeriodRepository creates a new period repository
func NewPeriodRepository(db *database.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// MostRecentEndDate returns the end of the latest dispatched period
func (r *PeriodRepository) MostRecentEndDate(ctx context.Context) (*time.Time, error) {
	var last sql.NullTime
	if err := r.db.GetContext(ctx, &last, `SELECT MAX(end_date) FROM payroll_periods`); err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// GetByRange returns the period marker for [start, end], if dispatched before
func (r *PeriodRepository) GetByRange(ctx context.Context, start, end time.Time) (*domain.PayrollPeriod, error) {
	var p domain.PayrollPeriod
	query := `SELECT ` + periodColumns + ` FROM payroll_periods WHERE start_date = $1 AND end_date = $2`
	err := r.db.GetContext(ctx, &p, query, domain.FormatDate(start), domain.FormatDate(end))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestYear returns the year label of the latest period and how many periods carry it
func (r *PeriodRepository) LatestYear(ctx context.Context) (string, int, error) {
	var row struct {
		Label string `db:"year_label"`
		Count int    `db:"periods"`
	}
	query := `
		SELECT year_label, COUNT(*) AS periods
		FROM payroll_periods
		WHERE year_label = (
			SELECT year_label FROM payroll_periods ORDER BY start_date DESC, created_at DESC LIMIT 1
		)
		GROUP BY year_label
	`
	err := r.db.GetContext(ctx, &row, query)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return row.Label, row.Count, nil
}

// Open resolves the pending advance, stores the new advance when given and
// records the period, in one transaction.
func (r *PeriodRepository) Open(ctx context.Context, period *domain.PayrollPeriod, advance *domain.AdvancePayroll) error {
	if period.ID == "" {
		period.ID = uuid.New().String()
	}

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE advance_payrolls SET status = 'resolved', resolved_at = NOW() WHERE status = 'pending'`)
		if err != nil {
			return err
		}

		if advance != nil {
			if advance.ID == "" {
				advance.ID = uuid.New().String()
			}
			err := tx.QueryRowxContext(ctx,
				`INSERT INTO advance_payrolls (id, start_date, end_date, status) VALUES ($1, $2, $3, $4) RETURNING created_at`,
				advance.ID, domain.FormatDate(advance.StartDate), domain.FormatDate(advance.EndDate), advance.Status,
			).Scan(&advance.CreatedAt)
			if err != nil {
				return err
			}
		}

		query := `
			INSERT INTO payroll_periods (
				id, start_date, end_date, year_label, replay_start, replay_end, advance_start, advance_end
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at
		`
		return tx.QueryRowxContext(ctx, query,
			period.ID, domain.FormatDate(period.StartDate), domain.FormatDate(period.EndDate), period.YearLabel,
			optionalDate(period.ReplayStart), optionalDate(period.ReplayEnd),
			optionalDate(period.AdvanceStart), optionalDate(period.AdvanceEnd),
		).Scan(&period.CreatedAt)
	})
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := domain.FormatDate(*t)
	return &s
}
