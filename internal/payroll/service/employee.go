package service

import (
	"context"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/formula"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// EmployeeWriter is the employee store written by the HR sync
type EmployeeWriter interface {
	EmployeeStore
	Create(ctx context.Context, emp *domain.Employee) error
}

// EmployeeService registers employees pushed by the HR system
type EmployeeService struct {
	employees EmployeeWriter
	templates TemplateStore
	logger    *logger.Logger
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(employees EmployeeWriter, templates TemplateStore, log *logger.Logger) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		templates: templates,
		logger:    log.WithComponent("employees"),
	}
}

// GetByID returns an employee
func (s *EmployeeService) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

// Register stores a new employee. An assigned template must not pay more
// than the employee's base salary.
func (s *EmployeeService) Register(ctx context.Context, emp *domain.Employee) error {
	if emp.TemplateID != nil && *emp.TemplateID != "" {
		tmpl, err := s.templates.GetByID(ctx, *emp.TemplateID)
		if errors.Is(err, errors.ErrNotFound) {
			return errors.Validation(map[string]string{"template_id": "unknown salary template"})
		}
		if err != nil {
			return err
		}
		program, err := formula.Compile(tmpl.Components)
		if err != nil {
			return err
		}
		values, err := program.Evaluate(emp.BaseSalary)
		if err != nil {
			return err
		}
		if err := formula.ValidateAgainstSalary(values, emp.BaseSalary); err != nil {
			return err
		}
	}

	if err := s.employees.Create(ctx, emp); err != nil {
		return err
	}

	s.logger.Info().Str("employee_id", emp.ID).Float64("base_salary", emp.BaseSalary).Msg("employee registered")
	return nil
}
