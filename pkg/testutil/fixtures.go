package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
)

// FixtureFactory creates payroll fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Shift creates a Monday to Friday 09:00-17:00 shift with a Saturday
// first half and Sunday off
func (f *FixtureFactory) Shift(opts ...func(*domain.Shift)) *domain.Shift {
	seq := f.nextSeq()

	full := domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFull}
	shift := &domain.Shift{
		ID:   uuid.New().String(),
		Name: fmt.Sprintf("Shift %d", seq),
		Days: domain.WeekSchedule{
			time.Sunday:    {DayStatus: domain.DayHoliday},
			time.Monday:    full,
			time.Tuesday:   full,
			time.Wednesday: full,
			time.Thursday:  full,
			time.Friday:    full,
			time.Saturday:  {StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFirstHalf},
		},
	}

	for _, opt := range opts {
		opt(shift)
	}

	return shift
}

// WithDay overrides the schedule of one weekday
func WithDay(day time.Weekday, start, end string, status domain.DayStatus) func(*domain.Shift) {
	return func(s *domain.Shift) {
		s.Days[day] = domain.ShiftDay{StartTime: start, EndTime: end, DayStatus: status}
	}
}

// Template creates a basic/hra/da salary template
func (f *FixtureFactory) Template(opts ...func(*domain.SalaryTemplate)) *domain.SalaryTemplate {
	seq := f.nextSeq()

	tmpl := &domain.SalaryTemplate{
		ID:   uuid.New().String(),
		Name: fmt.Sprintf("Template %d", seq),
		Components: domain.Components{
			{Name: "basic", Type: domain.ComponentPercentage, Expression: "50"},
			{Name: "hra", Type: domain.ComponentFormula, Expression: "basic * 0.4"},
			{Name: "da", Type: domain.ComponentFixed, Expression: "2000"},
		},
	}

	for _, opt := range opts {
		opt(tmpl)
	}

	return tmpl
}

// WithOvertimeExpression sets the overtime rate formula of a template
func WithOvertimeExpression(expr string) func(*domain.SalaryTemplate) {
	return func(t *domain.SalaryTemplate) {
		t.OvertimeExpression = &expr
	}
}

// Employee creates an active employee on the given shift
func (f *FixtureFactory) Employee(shiftID string, opts ...func(*domain.Employee)) *domain.Employee {
	seq := f.nextSeq()

	emp := &domain.Employee{
		ID:         uuid.New().String(),
		Name:       fmt.Sprintf("Employee %d", seq),
		ShiftID:    shiftID,
		BaseSalary: 30000,
		Active:     true,
		JoinedAt:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	for _, opt := range opts {
		opt(emp)
	}

	return emp
}

// WithTemplate assigns a salary template
func WithTemplate(templateID string) func(*domain.Employee) {
	return func(e *domain.Employee) {
		e.TemplateID = &templateID
	}
}

// WithSalary sets the monthly base salary
func WithSalary(salary float64) func(*domain.Employee) {
	return func(e *domain.Employee) {
		e.BaseSalary = salary
	}
}

// PresentRecord creates a fully present reconciled day
func (f *FixtureFactory) PresentRecord(emp *domain.Employee, date time.Time, workedMinutes int) *domain.AttendanceRecord {
	return &domain.AttendanceRecord{
		ID:            uuid.New().String(),
		EmployeeID:    emp.ID,
		ShiftID:       emp.ShiftID,
		Date:          date,
		FirstHalf:     domain.OutcomePresent,
		SecondHalf:    domain.OutcomePresent,
		WorkedMinutes: workedMinutes,
	}
}

// AbsentRecord creates a fully absent reconciled day
func (f *FixtureFactory) AbsentRecord(emp *domain.Employee, date time.Time) *domain.AttendanceRecord {
	return &domain.AttendanceRecord{
		ID:         uuid.New().String(),
		EmployeeID: emp.ID,
		ShiftID:    emp.ShiftID,
		Date:       date,
		FirstHalf:  domain.OutcomeAbsent,
		SecondHalf: domain.OutcomeAbsent,
	}
}
