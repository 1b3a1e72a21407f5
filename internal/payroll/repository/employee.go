package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

const employeeColumns = `id, name, shift_id, template_id, base_salary, active, joined_at, created_at`

// EmployeeRepository reads the payroll view of employees
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create registers an employee synced from the HR system
func (r *EmployeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	if emp.ID == "" {
		emp.ID = uuid.New().String()
	}

	query := `
		INSERT INTO employees (id, name, shift_id, template_id, base_salary, active, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		emp.ID, emp.Name, emp.ShiftID, emp.TemplateID, emp.BaseSalary, emp.Active, domain.FormatDate(emp.JoinedAt),
	).Scan(&emp.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// GetByID returns an employee
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	var emp domain.Employee
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	err := r.db.GetContext(ctx, &emp, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListActive returns every active employee ordered by id
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]*domain.Employee, error) {
	var emps []*domain.Employee
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE active = TRUE ORDER BY id`
	if err := r.db.SelectContext(ctx, &emps, query); err != nil {
		return nil, err
	}
	return emps, nil
}

// ListByTemplate returns the employees assigned to a salary template
func (r *EmployeeRepository) ListByTemplate(ctx context.Context, templateID string) ([]*domain.Employee, error) {
	var emps []*domain.Employee
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE template_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &emps, query, templateID); err != nil {
		return nil, err
	}
	return emps, nil
}
