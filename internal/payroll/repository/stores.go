package repository

import (
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
)

var (
	_ service.EmployeeStore   = (*EmployeeRepository)(nil)
	_ service.ShiftStore      = (*ShiftRepository)(nil)
	_ service.AttendanceStore = (*AttendanceRepository)(nil)
	_ service.RecordStore     = (*RecordRepository)(nil)
	_ service.LeaveStore      = (*LeaveRepository)(nil)
	_ service.TemplateStore   = (*TemplateRepository)(nil)
	_ service.PolicyStore     = (*PolicyRepository)(nil)
	_ service.BonusStore      = (*BonusRepository)(nil)
	_ service.PenaltyStore    = (*PenaltyRepository)(nil)
	_ service.AdvanceStore    = (*AdvanceRepository)(nil)
	_ service.PeriodStore     = (*PeriodRepository)(nil)
	_ service.SlipStore       = (*SlipRepository)(nil)
)

// Repositories holds one repository per table group over a shared pool
type Repositories struct {
	Employees  *EmployeeRepository
	Shifts     *ShiftRepository
	Attendance *AttendanceRepository
	Records    *RecordRepository
	Leaves     *LeaveRepository
	Templates  *TemplateRepository
	Policies   *PolicyRepository
	Bonuses    *BonusRepository
	Penalties  *PenaltyRepository
	Advances   *AdvanceRepository
	Periods    *PeriodRepository
	Slips      *SlipRepository
}

// New creates every repository over db
func New(db *database.DB) *Repositories {
	return &Repositories{
		Employees:  NewEmployeeRepository(db),
		Shifts:     NewShiftRepository(db),
		Attendance: NewAttendanceRepository(db),
		Records:    NewRecordRepository(db),
		Leaves:     NewLeaveRepository(db),
		Templates:  NewTemplateRepository(db),
		Policies:   NewPolicyRepository(db),
		Bonuses:    NewBonusRepository(db),
		Penalties:  NewPenaltyRepository(db),
		Advances:   NewAdvanceRepository(db),
		Periods:    NewPeriodRepository(db),
		Slips:      NewSlipRepository(db),
	}
}

// PayrollStores exposes the repositories the payroll engine needs
func (r *Repositories) PayrollStores() service.PayrollStores {
	return service.PayrollStores{
		Employees: r.Employees,
		Shifts:    r.Shifts,
		Records:   r.Records,
		Templates: r.Templates,
		Policies:  r.Policies,
		Bonuses:   r.Bonuses,
		Penalties: r.Penalties,
		Advances:  r.Advances,
		Periods:   r.Periods,
		Slips:     r.Slips,
	}
}
