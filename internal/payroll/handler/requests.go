package handler

import (
	"strings"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
)

// ReasonRequest carries the optional justification of an attendance command
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ResolveRequest closes an abandoned attendance at ClockOut
type ResolveRequest struct {
	ClockOut time.Time `json:"clock_out" validate:"required"`
	Reason   string    `json:"reason" validate:"required,max=500"`
}

// DispatchRequest opens a payroll period
type DispatchRequest struct {
	Start string `json:"start" validate:"required,isodate"`
	End   string `json:"end" validate:"required,isodate"`
}

// TemplateRequest creates or replaces a salary template
type TemplateRequest struct {
	Name               string             `json:"name" validate:"required,max=255"`
	Components         []domain.Component `json:"components" validate:"required,min=1,dive"`
	OvertimeExpression *string            `json:"overtime_expression" validate:"omitempty,max=512"`
}

// ToTemplate builds the template with the given id
func (r *TemplateRequest) ToTemplate(id string) *domain.SalaryTemplate {
	return &domain.SalaryTemplate{
		ID:                 id,
		Name:               r.Name,
		Components:         domain.Components(r.Components),
		OvertimeExpression: r.OvertimeExpression,
	}
}

// ValidateTemplateRequest evaluates a template against a sample salary
type ValidateTemplateRequest struct {
	TemplateRequest
	Salary float64 `json:"salary" validate:"gt=0"`
}

// LeaveRequest submits a leave for approval
type LeaveRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	Date       string  `json:"date" validate:"required,isodate"`
	DayStatus  string  `json:"day_status" validate:"required,oneof=full_day first_half second_half"`
	Category   string  `json:"category" validate:"required,max=64"`
	Fraction   float64 `json:"fraction" validate:"gt=0,lte=1"`
}

// LeaveStatusRequest approves or rejects a pending leave
type LeaveStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// AdjustmentRequest records a bonus or a manual penalty
type AdjustmentRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	Date       string  `json:"date" validate:"required,isodate"`
	Amount     float64 `json:"amount" validate:"gt=0"`
	Reason     string  `json:"reason" validate:"required,max=255"`
}

// ShiftDayRequest is the schedule of one weekday
type ShiftDayRequest struct {
	StartTime string `json:"start_time" validate:"omitempty,clock"`
	EndTime   string `json:"end_time" validate:"omitempty,clock"`
	DayStatus string `json:"day_status" validate:"required,oneof=full_day first_half second_half holiday"`
}

// ShiftRequest defines a shift. Weekdays left out are holidays.
type ShiftRequest struct {
	Name string                     `json:"name" validate:"required,max=255"`
	Days map[string]ShiftDayRequest `json:"days" validate:"required,min=1,dive"`
}

// ToShift builds the weekly schedule. Unknown weekday names are reported.
func (r *ShiftRequest) ToShift() (*domain.Shift, map[string]string) {
	shift := &domain.Shift{Name: r.Name}
	for i := range shift.Days {
		shift.Days[i] = domain.ShiftDay{DayStatus: domain.DayHoliday}
	}

	invalid := make(map[string]string)
	for name, day := range r.Days {
		wd, ok := weekdays[strings.ToLower(name)]
		if !ok {
			invalid[name] = "unknown weekday"
			continue
		}
		shift.Days[wd] = domain.ShiftDay{
			StartTime: day.StartTime,
			EndTime:   day.EndTime,
			DayStatus: domain.DayStatus(day.DayStatus),
		}
	}
	return shift, invalid
}

var weekdays = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		m[strings.ToLower(d.String())] = d
	}
	return m
}()

// EmployeeRequest registers an employee synced from the HR system
type EmployeeRequest struct {
	ID         string  `json:"id" validate:"required,max=64"`
	Name       string  `json:"name" validate:"required,max=255"`
	ShiftID    string  `json:"shift_id" validate:"required"`
	TemplateID *string `json:"template_id"`
	BaseSalary float64 `json:"base_salary" validate:"gte=0"`
	JoinedAt   string  `json:"joined_at" validate:"required,isodate"`
}

// PolicyRequest replaces the penalty and statutory policy
type PolicyRequest struct {
	LateInPenalty         float64 `json:"late_in_penalty" validate:"gte=0"`
	BreakPenalty          float64 `json:"break_penalty" validate:"gte=0"`
	BreakAllowanceMinutes int     `json:"break_allowance_minutes" validate:"gte=0"`
	EPFCap                float64 `json:"epf_cap" validate:"gte=0"`
	EPFPercentage         float64 `json:"epf_percentage" validate:"gte=0,lte=100"`
}
