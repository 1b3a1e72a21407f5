package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

// TemplateRepository stores salary templates
type TemplateRepository struct {
	db *database.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *database.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetByID returns a template
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*domain.SalaryTemplate, error) {
	var tmpl domain.SalaryTemplate
	query := `
		SELECT id, name, components, overtime_expression, created_at, updated_at
		FROM salary_templates WHERE id = $1
	`
	err := r.db.GetContext(ctx, &tmpl, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("salary template")
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// GetForEmployee returns the template assigned to an employee
func (r *TemplateRepository) GetForEmployee(ctx context.Context, employeeID string) (*domain.SalaryTemplate, error) {
	var tmpl domain.SalaryTemplate
	query := `
		SELECT t.id, t.name, t.components, t.overtime_expression, t.created_at, t.updated_at
		FROM salary_templates t
		JOIN employees e ON e.template_id = t.id
		WHERE e.id = $1
	`
	err := r.db.GetContext(ctx, &tmpl, query, employeeID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("salary template")
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Save inserts a new template or replaces an existing one
func (r *TemplateRepository) Save(ctx context.Context, tmpl *domain.SalaryTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}

	query := `
		INSERT INTO salary_templates (id, name, components, overtime_expression)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			components = EXCLUDED.components,
			overtime_expression = EXCLUDED.overtime_expression,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, tmpl.ID, tmpl.Name, tmpl.Components, tmpl.OvertimeExpression).
		Scan(&tmpl.CreatedAt, &tmpl.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}
