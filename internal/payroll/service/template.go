package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/formula"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// TemplateService guards salary templates before they are stored
type TemplateService struct {
	templates TemplateStore
	employees EmployeeStore
	logger    *logger.Logger
}

// NewTemplateService creates a new template service
func NewTemplateService(templates TemplateStore, employees EmployeeStore, log *logger.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		employees: employees,
		logger:    log.WithComponent("templates"),
	}
}

// Get returns a template by id
func (s *TemplateService) Get(ctx context.Context, id string) (*domain.SalaryTemplate, error) {
	return s.templates.GetByID(ctx, id)
}

// compile checks the template without touching any employee
func (s *TemplateService) compile(tmpl *domain.SalaryTemplate) (*formula.Program, error) {
	if strings.TrimSpace(tmpl.Name) == "" {
		return nil, errors.Invalid("template name is required")
	}
	program, err := formula.Compile(tmpl.Components)
	if err != nil {
		return nil, err
	}
	if tmpl.OvertimeExpression != nil && strings.TrimSpace(*tmpl.OvertimeExpression) != "" {
		if _, err := formula.CompileOvertime(*tmpl.OvertimeExpression); err != nil {
			return nil, err
		}
	}
	return program, nil
}

// Validate dry-runs a template against a sample base salary
func (s *TemplateService) Validate(ctx context.Context, tmpl *domain.SalaryTemplate, salary float64) (formula.Values, error) {
	program, err := s.compile(tmpl)
	if err != nil {
		return nil, err
	}
	values, err := program.Evaluate(salary)
	if err != nil {
		return nil, err
	}
	if err := formula.ValidateAgainstSalary(values, salary); err != nil {
		return nil, err
	}
	return values, nil
}

// Save validates the template, evaluates it for every employee it is
// assigned to and stores it only if no employee would be paid more than
// their base salary.
func (s *TemplateService) Save(ctx context.Context, tmpl *domain.SalaryTemplate) error {
	program, err := s.compile(tmpl)
	if err != nil {
		return err
	}

	if tmpl.ID != "" {
		employees, err := s.employees.ListByTemplate(ctx, tmpl.ID)
		if err != nil {
			return err
		}

		details := make(map[string]string)
		for _, emp := range employees {
			values, err := program.Evaluate(emp.BaseSalary)
			if err != nil {
				return err
			}
			if total := values.Total(); total > emp.BaseSalary+1e-6 {
				details[emp.ID] = fmt.Sprintf("components total %.2f exceeds base salary %.2f", total, emp.BaseSalary)
			}
		}
		if len(details) > 0 {
			return errors.Validation(details)
		}
	}

	if err := s.templates.Save(ctx, tmpl); err != nil {
		return err
	}

	s.logger.Info().
		Str("template_id", tmpl.ID).
		Int("components", len(tmpl.Components)).
		Msg("salary template saved")
	return nil
}
