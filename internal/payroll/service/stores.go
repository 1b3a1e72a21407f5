package service

import (
	"context"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
)

// Stores are implemented by the postgres repositories. Lookups that may
// legitimately find nothing return (nil, nil); lookups of a required entity
// return a NotFound AppError.

// EmployeeStore reads employees
type EmployeeStore interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	ListActive(ctx context.Context) ([]*domain.Employee, error)
	ListByTemplate(ctx context.Context, templateID string) ([]*domain.Employee, error)
}

// ShiftStore reads and creates shifts
type ShiftStore interface {
	GetByID(ctx context.Context, id string) (*domain.Shift, error)
	Create(ctx context.Context, shift *domain.Shift) error
}

// AttendanceStore persists live attendances
type AttendanceStore interface {
	GetOpen(ctx context.Context, employeeID string) (*domain.Attendance, error)
	GetByDate(ctx context.Context, employeeID string, date time.Time) (*domain.Attendance, error)
	ListByRange(ctx context.Context, employeeID string, from, to time.Time) ([]*domain.Attendance, error)
	Create(ctx context.Context, att *domain.Attendance) error
	UpdateBreaks(ctx context.Context, att *domain.Attendance) error
	UpdateClockOut(ctx context.Context, att *domain.Attendance) error
}

// RecordStore persists reconciled attendance records
type RecordStore interface {
	MostRecentDate(ctx context.Context) (*time.Time, error)
	// LastDates maps employee id to that employee's latest reconciled date
	LastDates(ctx context.Context) (map[string]time.Time, error)
	// Insert reports false when a record for the employee and date already exists
	Insert(ctx context.Context, rec *domain.AttendanceRecord) (bool, error)
	ListByEmployeeRange(ctx context.Context, employeeID string, from, to time.Time) ([]*domain.AttendanceRecord, error)
}

// LeaveStore persists leaves
type LeaveStore interface {
	GetApproved(ctx context.Context, employeeID string, date time.Time) (*domain.Leave, error)
	GetByID(ctx context.Context, id string) (*domain.Leave, error)
	Create(ctx context.Context, leave *domain.Leave) error
	// UpdateStatus moves a pending leave to status
	UpdateStatus(ctx context.Context, id string, status domain.LeaveStatus) error
}

// TemplateStore persists salary templates
type TemplateStore interface {
	GetForEmployee(ctx context.Context, employeeID string) (*domain.SalaryTemplate, error)
	GetByID(ctx context.Context, id string) (*domain.SalaryTemplate, error)
	Save(ctx context.Context, tmpl *domain.SalaryTemplate) error
}

// PolicyStore reads the payroll policy
type PolicyStore interface {
	Get(ctx context.Context) (*domain.Policy, error)
}

// BonusStore persists bonuses
type BonusStore interface {
	Create(ctx context.Context, bonus *domain.Bonus) error
	SumByDateRange(ctx context.Context, employeeID string, from, to time.Time) (float64, error)
}

// PenaltyStore persists penalties
type PenaltyStore interface {
	// Create reports false when the employee already has a penalty with the same date and reason
	Create(ctx context.Context, penalty *domain.Penalty) (bool, error)
	// SumByDateRange skips penalties whose reason is listed in except
	SumByDateRange(ctx context.Context, employeeID string, from, to time.Time, except ...string) (float64, error)
}

// AdvanceStore reads advance payrolls
type AdvanceStore interface {
	GetPending(ctx context.Context) (*domain.AdvancePayroll, error)
}

// PeriodStore persists payroll period markers
type PeriodStore interface {
	MostRecentEndDate(ctx context.Context) (*time.Time, error)
	GetByRange(ctx context.Context, start, end time.Time) (*domain.PayrollPeriod, error)
	// LatestYear returns the newest year label and how many periods it holds
	LatestYear(ctx context.Context) (string, int, error)
	// Open resolves any pending advance, stores advance when non-nil and
	// records the period, atomically
	Open(ctx context.Context, period *domain.PayrollPeriod, advance *domain.AdvancePayroll) error
}

// SlipStore persists salary slips
type SlipStore interface {
	// Replace deletes any slip for the same employee and month and stores slip
	Replace(ctx context.Context, slip *domain.SalarySlip) error
	Get(ctx context.Context, employeeID, month string) (*domain.SalarySlip, error)
}

// JobQueue accepts per-employee payroll jobs
type JobQueue interface {
	Enqueue(ctx context.Context, job domain.PayrollJob) error
}

// EventPublisher emits domain events. Publishing failures are logged by the
// implementation and never fail the operation.
type EventPublisher interface {
	ClockedIn(ctx context.Context, att *domain.Attendance)
	ClockedOut(ctx context.Context, att *domain.Attendance, m domain.Minutes)
	BreakStarted(ctx context.Context, att *domain.Attendance)
	BreakEnded(ctx context.Context, att *domain.Attendance)
	PenaltyCreated(ctx context.Context, penalty *domain.Penalty)
	PayrollDispatched(ctx context.Context, period *domain.PayrollPeriod, queued, failed int)
	SlipGenerated(ctx context.Context, slip *domain.SalarySlip)
}
