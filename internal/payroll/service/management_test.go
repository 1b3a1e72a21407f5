package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Template Tests
// ============================================================================

func allowanceTemplate(id string) *domain.SalaryTemplate {
	return &domain.SalaryTemplate{
		ID:   id,
		Name: "with allowances",
		Components: domain.Components{
			{Name: "basic", Type: domain.ComponentPercentage, Expression: "50"},
			{Name: "hra", Type: domain.ComponentFormula, Expression: "basic * 0.5"},
			{Name: "special", Type: domain.ComponentFixed, Expression: "20000"},
		},
	}
}

func TestTemplateValidate(t *testing.T) {
	svc := service.NewTemplateService(newFakeTemplates(), newFakeEmployees(), logger.Nop())
	ctx := context.Background()

	values, err := svc.Validate(ctx, allowanceTemplate(""), 100000)
	require.NoError(t, err)
	assert.InDelta(t, 50000, values["basic"], 1e-9)
	assert.InDelta(t, 25000, values["hra"], 1e-9)
	assert.InDelta(t, 20000, values["special"], 1e-9)

	_, err = svc.Validate(ctx, allowanceTemplate(""), 50000)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	cyclic := &domain.SalaryTemplate{
		Name: "cyclic",
		Components: domain.Components{
			{Name: "a", Type: domain.ComponentFormula, Expression: "b + 1"},
			{Name: "b", Type: domain.ComponentFormula, Expression: "a + 1"},
		},
	}
	_, err = svc.Validate(ctx, cyclic, 10000)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	badOvertime := allowanceTemplate("")
	badOvertime.OvertimeExpression = strPtr("salary * 2")
	_, err = svc.Validate(ctx, badOvertime, 100000)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestTemplateSave_ChecksAssignedEmployees(t *testing.T) {
	templates := newFakeTemplates()
	rich := employee("emp-1", date(2025, time.January, 1))
	rich.BaseSalary = 100000
	rich.TemplateID = strPtr("tmpl-2")
	poor := employee("emp-2", date(2025, time.January, 1))
	poor.TemplateID = strPtr("tmpl-2")

	svc := service.NewTemplateService(templates, newFakeEmployees(rich, poor), logger.Nop())

	err := svc.Save(context.Background(), allowanceTemplate("tmpl-2"))
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details, "emp-2")
	assert.NotContains(t, appErr.Details, "emp-1")
	assert.Equal(t, 0, templates.saved)

	// a new template has nobody assigned yet
	tmpl := allowanceTemplate("")
	require.NoError(t, svc.Save(context.Background(), tmpl))
	assert.NotEmpty(t, tmpl.ID)
	assert.Equal(t, 1, templates.saved)
}

func TestTemplateSave_RequiresName(t *testing.T) {
	svc := service.NewTemplateService(newFakeTemplates(), newFakeEmployees(), logger.Nop())
	tmpl := basicTemplate("1000")
	tmpl.Name = ""

	err := svc.Save(context.Background(), tmpl)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

// ============================================================================
// Employee Tests
// ============================================================================

func TestEmployeeService_Register(t *testing.T) {
	templates := newFakeTemplates()
	templates.byID["tmpl-1"] = basicTemplate("12000")
	employees := newFakeEmployees()
	svc := service.NewEmployeeService(employees, templates, logger.Nop())
	ctx := context.Background()

	newHire := func(id string, salary float64, templateID *string) *domain.Employee {
		return &domain.Employee{ID: id, ShiftID: "shift-1", BaseSalary: salary, TemplateID: templateID, Active: true}
	}

	err := svc.Register(ctx, newHire("emp-low", 10000, strPtr("tmpl-1")))
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.NotContains(t, employees.m, "emp-low")

	err = svc.Register(ctx, newHire("emp-ghost", 10000, strPtr("tmpl-9")))
	assert.True(t, errors.Is(err, errors.ErrValidation))

	require.NoError(t, svc.Register(ctx, newHire("emp-ok", 12000, strPtr("tmpl-1"))))
	require.NoError(t, svc.Register(ctx, newHire("emp-none", 5000, nil)))

	got, err := svc.GetByID(ctx, "emp-ok")
	require.NoError(t, err)
	assert.Equal(t, 12000.0, got.BaseSalary)
}

// ============================================================================
// Leave Tests
// ============================================================================

func TestLeaveLifecycle(t *testing.T) {
	leaves := &fakeLeaves{}
	svc := service.NewLeaveService(leaves, newFakeEmployees(employee("emp-1", date(2025, time.January, 1))), ist, logger.Nop())
	ctx := context.Background()

	leave := &domain.Leave{
		EmployeeID: "emp-1",
		Date:       time.Date(2026, time.April, 6, 0, 0, 0, 0, time.UTC),
		DayStatus:  domain.DayFull,
		Category:   "sick",
		Fraction:   1,
		Status:     domain.LeaveApproved,
	}
	require.NoError(t, svc.Create(ctx, leave))
	assert.Equal(t, domain.LeavePending, leave.Status)
	assert.Equal(t, ist, leave.Date.Location())
	assert.Equal(t, "2026-04-06", domain.FormatDate(leave.Date))

	_, err := svc.UpdateStatus(ctx, leave.ID, domain.LeavePending)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	updated, err := svc.UpdateStatus(ctx, leave.ID, domain.LeaveApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveApproved, updated.Status)

	approved, err := leaves.GetApproved(ctx, "emp-1", date(2026, time.April, 6))
	require.NoError(t, err)
	require.NotNil(t, approved)

	_, err = svc.UpdateStatus(ctx, leave.ID, domain.LeaveRejected)
	assert.True(t, errors.Is(err, errors.ErrStateConflict))

	_, err = svc.UpdateStatus(ctx, "missing", domain.LeaveRejected)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestLeaveCreate_Validation(t *testing.T) {
	svc := service.NewLeaveService(&fakeLeaves{}, newFakeEmployees(employee("emp-1", date(2025, time.January, 1))), ist, logger.Nop())

	err := svc.Create(context.Background(), &domain.Leave{
		EmployeeID: "emp-1",
		Date:       date(2026, time.April, 6),
		DayStatus:  domain.DayHoliday,
		Fraction:   1.5,
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details, "day_status")
	assert.Contains(t, appErr.Details, "category")
	assert.Contains(t, appErr.Details, "fraction")

	err = svc.Create(context.Background(), &domain.Leave{
		EmployeeID: "ghost",
		Date:       date(2026, time.April, 6),
		DayStatus:  domain.DayFirstHalf,
		Category:   "casual",
		Fraction:   0.5,
	})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

// ============================================================================
// Adjustment Tests
// ============================================================================

func TestAdjustments(t *testing.T) {
	bonuses := &fakeBonuses{}
	penalties := &fakePenalties{}
	events := &recordingPublisher{}
	svc := service.NewAdjustmentService(bonuses, penalties,
		newFakeEmployees(employee("emp-1", date(2025, time.January, 1))), events, ist, logger.Nop())
	ctx := context.Background()

	err := svc.AddBonus(ctx, &domain.Bonus{EmployeeID: "emp-1", Date: monday, Amount: -5})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	require.NoError(t, svc.AddBonus(ctx, &domain.Bonus{EmployeeID: "emp-1", Date: monday, Amount: 500, Reason: "festival"}))
	require.Len(t, bonuses.items, 1)

	penalty := &domain.Penalty{EmployeeID: "emp-1", Date: monday, Amount: 300, Reason: "damage"}
	require.NoError(t, svc.AddPenalty(ctx, penalty))
	assert.Equal(t, 1, events.count("penalty_created"))

	err = svc.AddPenalty(ctx, &domain.Penalty{EmployeeID: "emp-1", Date: monday, Amount: 100, Reason: "damage"})
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Len(t, penalties.items, 1)
}

// ============================================================================
// Shift Tests
// ============================================================================

func TestShiftCreate(t *testing.T) {
	shifts := newFakeShifts()
	svc := service.NewShiftService(shifts, logger.Nop())
	ctx := context.Background()

	shift := officeShift("")
	require.NoError(t, svc.Create(ctx, shift))
	assert.NotEmpty(t, shift.ID)

	stored, err := svc.Get(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, shift.Days, stored.Days)

	bad := officeShift("")
	bad.Days[time.Tuesday] = domain.ShiftDay{StartTime: "9am", EndTime: "17:00", DayStatus: domain.DayFull}
	err = svc.Create(ctx, bad)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Details, "tuesday")

	idle := &domain.Shift{Name: "idle"}
	for i := range idle.Days {
		idle.Days[i] = domain.ShiftDay{DayStatus: domain.DayHoliday}
	}
	assert.True(t, errors.Is(svc.Create(ctx, idle), errors.ErrValidation))
}

// ============================================================================
// Projection Tests
// ============================================================================

func TestSlipProjection(t *testing.T) {
	slip := &domain.SalarySlip{
		EmployeeID:   "emp-1",
		PayrollMonth: "2026-04",
		PeriodStart:  date(2026, time.April, 1),
		PeriodEnd:    date(2026, time.April, 30),
		Earnings:     domain.Earnings{"basic": decimal.NewFromInt(20000), "hra": decimal.RequireFromString("1234.5")},
		PresentShift: 40,
		AbsentShift:  4,
		Gross:        decimal.RequireFromString("21234.5"),
	}

	out := service.SlipProjection(slip)
	assert.Equal(t, "emp-1", out["employee_id"])
	assert.Equal(t, "2026-04-01", out["period_start"])
	assert.Equal(t, "40", out["present_shift"])
	assert.Equal(t, "4", out["absent_shift"])
	assert.Equal(t, "20000.00", out["earning.basic"])
	assert.Equal(t, "1234.50", out["earning.hra"])
	assert.Equal(t, "21234.50", out["gross"])
	assert.Equal(t, "0.00", out["statutory"])
}

func TestAttendanceSheet(t *testing.T) {
	records := &fakeRecords{}
	attendance := &fakeAttendance{}
	svc := service.NewProjectionService(
		newFakeEmployees(employee("emp-1", date(2025, time.January, 1))), records, attendance, ist)
	ctx := context.Background()

	attendance.items = append(attendance.items, closedAttendance(monday, 9, 0, 17, 0))
	_, err := records.Insert(ctx, &domain.AttendanceRecord{
		EmployeeID: "emp-1", ShiftID: "shift-1", Date: monday,
		FirstHalf: domain.OutcomePresent, SecondHalf: domain.OutcomePaidLeave,
		FirstHalfFraction: 1, LeaveCategory: strPtr("sick"), WorkedMinutes: 240,
	})
	require.NoError(t, err)

	rows, err := svc.AttendanceSheet(ctx, "emp-1", date(2026, time.April, 5), date(2026, time.April, 7))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2026-04-05", rows[0].Date)
	assert.Empty(t, rows[0].FirstHalf)

	assert.Equal(t, "2026-04-06", rows[1].Date)
	assert.Equal(t, "present", rows[1].FirstHalf)
	assert.Equal(t, "paid_leave", rows[1].SecondHalf)
	assert.Equal(t, "sick", rows[1].LeaveCategory)
	assert.Equal(t, "09:00", rows[1].ClockIn)
	assert.Equal(t, "17:00", rows[1].ClockOut)
	assert.Equal(t, 240, rows[1].WorkedMinutes)

	_, err = svc.AttendanceSheet(ctx, "emp-1", date(2026, time.April, 7), date(2026, time.April, 5))
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

// ============================================================================
// Scheduler Tests
// ============================================================================

func TestReconciliationScheduler_RunNow(t *testing.T) {
	f := newReconcileFixture(employee("emp-1", date(2025, time.January, 1)))
	f.now = at(date(2026, time.April, 9), 10, 0)

	scheduler := service.NewReconciliationScheduler(f.reconciler, time.Hour, logger.Nop())
	result, err := scheduler.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)

	scheduler.Stop()
}

func TestReconciliationScheduler_NextCyclePicksUpFailedDay(t *testing.T) {
	joined := date(2025, time.January, 1)
	f := newReconcileFixture(employee("emp-1", joined), employee("emp-2", joined))
	f.now = at(date(2026, time.April, 9), 10, 0)
	ctx := context.Background()

	scheduler := service.NewReconciliationScheduler(f.reconciler, time.Hour, logger.Nop())
	f.records.failFor["emp-2"] = true
	result, err := scheduler.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	delete(f.records.failFor, "emp-2")
	result, err = scheduler.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)
	assert.NotNil(t, f.records.get("emp-2", date(2026, time.April, 8)))
}
