package service

import (
	"context"
	"strconv"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

// maxSheetDays bounds one attendance sheet request
const maxSheetDays = 366

// SlipProjection flattens a slip into the key/value form consumed by the
// document renderer. Component amounts are keyed "earning.<name>".
func SlipProjection(slip *domain.SalarySlip) map[string]string {
	out := map[string]string{
		"employee_id":           slip.EmployeeID,
		"payroll_month":         slip.PayrollMonth,
		"period_start":          domain.FormatDate(slip.PeriodStart),
		"period_end":            domain.FormatDate(slip.PeriodEnd),
		"present_shift":         strconv.Itoa(slip.PresentShift),
		"paid_leave_shift":      strconv.Itoa(slip.PaidLeaveShift),
		"absent_shift":          strconv.Itoa(slip.AbsentShift),
		"advance_shift":         strconv.Itoa(slip.AdvanceShift),
		"advance_credit":        slip.AdvanceCredit.StringFixed(2),
		"overtime_minutes":      strconv.Itoa(slip.OvertimeMinutes),
		"overtime_wage":         slip.OvertimeWage.StringFixed(2),
		"advance_overtime_wage": slip.AdvanceOvertimeWage.StringFixed(2),
		"bonus":                 slip.Bonus.StringFixed(2),
		"penalty":               slip.Penalty.StringFixed(2),
		"advance_penalty":       slip.AdvancePenalty.StringFixed(2),
		"statutory":             slip.Statutory.StringFixed(2),
		"gross":                 slip.Gross.StringFixed(2),
	}
	for name, amount := range slip.Earnings {
		out["earning."+name] = amount.StringFixed(2)
	}
	return out
}

// SheetRow is one day of an attendance sheet
type SheetRow struct {
	Date               string  `json:"date"`
	FirstHalf          string  `json:"first_half"`
	SecondHalf         string  `json:"second_half"`
	FirstHalfFraction  float64 `json:"first_half_fraction"`
	SecondHalfFraction float64 `json:"second_half_fraction"`
	LeaveCategory      string  `json:"leave_category"`
	ClockIn            string  `json:"clock_in"`
	ClockOut           string  `json:"clock_out"`
	BreakMinutes       int     `json:"break_minutes"`
	WorkedMinutes      int     `json:"worked_minutes"`
	OvertimeMinutes    int     `json:"overtime_minutes"`
	LateIn             int     `json:"late_in"`
	EarlyOut           int     `json:"early_out"`
}

// ProjectionService builds read models for the spreadsheet renderer
type ProjectionService struct {
	employees  EmployeeStore
	records    RecordStore
	attendance AttendanceStore
	loc        *time.Location
}

// NewProjectionService creates a new projection service
func NewProjectionService(employees EmployeeStore, records RecordStore, attendance AttendanceStore, loc *time.Location) *ProjectionService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProjectionService{employees: employees, records: records, attendance: attendance, loc: loc}
}

// AttendanceSheet returns one row per calendar day in [from, to]. Days not
// yet reconciled have empty half outcomes.
func (s *ProjectionService) AttendanceSheet(ctx context.Context, employeeID string, from, to time.Time) ([]SheetRow, error) {
	days := domain.DateRange{From: domain.DateIn(from, s.loc), To: domain.DateIn(to, s.loc)}
	if days.To.Before(days.From) {
		return nil, errors.Invalid("from must not be after to")
	}
	if days.Days() > maxSheetDays {
		return nil, errors.Invalid("attendance sheet covers at most one year")
	}

	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	records, err := s.records.ListByEmployeeRange(ctx, employeeID, days.From, days.To)
	if err != nil {
		return nil, err
	}
	attendances, err := s.attendance.ListByRange(ctx, employeeID, days.From, days.To)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*domain.AttendanceRecord, len(records))
	for _, rec := range records {
		byDate[domain.FormatDate(rec.Date)] = rec
	}
	attByDate := make(map[string]*domain.Attendance, len(attendances))
	for _, att := range attendances {
		attByDate[domain.FormatDate(att.Date)] = att
	}

	rows := make([]SheetRow, 0, days.Days())
	days.Each(func(day time.Time) {
		key := domain.FormatDate(day)
		row := SheetRow{Date: key}

		if rec, ok := byDate[key]; ok {
			row.FirstHalf = string(rec.FirstHalf)
			row.SecondHalf = string(rec.SecondHalf)
			row.FirstHalfFraction = rec.FirstHalfFraction
			row.SecondHalfFraction = rec.SecondHalfFraction
			row.WorkedMinutes = rec.WorkedMinutes
			row.OvertimeMinutes = rec.OvertimeMinutes
			if rec.LeaveCategory != nil {
				row.LeaveCategory = *rec.LeaveCategory
			}
		}

		if att, ok := attByDate[key]; ok {
			row.ClockIn = att.ClockIn.In(s.loc).Format("15:04")
			if att.ClockOut != nil {
				row.ClockOut = att.ClockOut.In(s.loc).Format("15:04")
				row.BreakMinutes = domain.FloorMinutes(att.BreakDuration(*att.ClockOut))
			}
			row.LateIn = att.LateIn
			row.EarlyOut = att.EarlyOut
		}

		rows = append(rows, row)
	})

	return rows, nil
}
