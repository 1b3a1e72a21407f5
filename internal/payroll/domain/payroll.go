package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates
const DateLayout = "2006-01-02"

// Policy holds the organisation-wide payroll constants
type Policy struct {
	LateInPenalty         float64 `db:"late_in_penalty" json:"late_in_penalty"`
	BreakPenalty          float64 `db:"break_penalty" json:"break_penalty"`
	BreakAllowanceMinutes int     `db:"break_allowance_minutes" json:"break_allowance_minutes"`
	EPFCap                float64 `db:"epf_cap" json:"epf_cap"`
	EPFPercentage         float64 `db:"epf_percentage" json:"epf_percentage"`
}

// Statutory is the capped provident fund deduction on basic+da
func (p *Policy) Statutory(basic, da decimal.Decimal) decimal.Decimal {
	if p.EPFPercentage <= 0 {
		return decimal.Zero
	}
	wage := basic.Add(da)
	if limit := decimal.NewFromFloat(p.EPFCap); p.EPFCap > 0 && wage.GreaterThan(limit) {
		wage = limit
	}
	return wage.Mul(decimal.NewFromFloat(p.EPFPercentage)).Div(decimal.NewFromInt(100))
}

// Penalty reasons created by the engine itself
const (
	ReasonLateIn         = "late_in"
	ReasonBreakOverrun   = "break_overrun"
	ReasonAdvanceAbsence = "advance_absence"
)

// Bonus is a dated one-off addition to pay
type Bonus struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	Date       time.Time `db:"date" json:"date"`
	Amount     float64   `db:"amount" json:"amount"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Penalty is a dated deduction. At most one exists per employee, date and reason.
type Penalty struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	Date       time.Time `db:"date" json:"date"`
	Amount     float64   `db:"amount" json:"amount"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AdvanceStatus is the settlement state of an advance payroll
type AdvanceStatus string

const (
	AdvancePending  AdvanceStatus = "pending"
	AdvanceResolved AdvanceStatus = "resolved"
)

// AdvancePayroll is the tail of a period that was paid before it was reconciled
type AdvancePayroll struct {
	ID         string        `db:"id" json:"id"`
	StartDate  time.Time     `db:"start_date" json:"start_date"`
	EndDate    time.Time     `db:"end_date" json:"end_date"`
	Status     AdvanceStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Range returns the advance window
func (a *AdvancePayroll) Range() DateRange {
	return DateRange{From: a.StartDate, To: a.EndDate}
}

// PayrollPeriod marks a dispatched payroll run and the windows it settled
type PayrollPeriod struct {
	ID           string     `db:"id" json:"id"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      time.Time  `db:"end_date" json:"end_date"`
	YearLabel    string     `db:"year_label" json:"year_label"`
	ReplayStart  *time.Time `db:"replay_start" json:"replay_start,omitempty"`
	ReplayEnd    *time.Time `db:"replay_end" json:"replay_end,omitempty"`
	AdvanceStart *time.Time `db:"advance_start" json:"advance_start,omitempty"`
	AdvanceEnd   *time.Time `db:"advance_end" json:"advance_end,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// MaxPeriodsPerYear is how many periods a year label holds before rolling
const MaxPeriodsPerYear = 12

// FinancialYearLabel names the April-to-March financial year containing t, e.g. FY2026-27
func FinancialYearLabel(t time.Time) string {
	y := t.Year()
	if t.Month() < time.April {
		y--
	}
	return fmt.Sprintf("FY%d-%02d", y, (y+1)%100)
}

// NextYearLabel returns the label following label
func NextYearLabel(label string) (string, error) {
	if len(label) < 6 || label[:2] != "FY" {
		return "", fmt.Errorf("malformed year label %q", label)
	}
	y, err := strconv.Atoi(label[2:6])
	if err != nil {
		return "", fmt.Errorf("malformed year label %q", label)
	}
	return fmt.Sprintf("FY%d-%02d", y+1, (y+2)%100), nil
}

// DateRange is an inclusive span of calendar dates
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether the calendar date of t lies in the range
func (r DateRange) Contains(t time.Time) bool {
	d := Midnight(t)
	return !d.Before(Midnight(r.From)) && !d.After(Midnight(r.To))
}

// Days is the number of calendar days in the range, zero if inverted
func (r DateRange) Days() int {
	from, to := Midnight(r.From), Midnight(r.To)
	if to.Before(from) {
		return 0
	}
	n := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		n++
	}
	return n
}

// Each calls fn for every date in the range
func (r DateRange) Each(fn func(date time.Time)) {
	for d := Midnight(r.From); !d.After(Midnight(r.To)); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// AmortizationWindow selects which calendar days a monthly amount is spread over
type AmortizationWindow string

const (
	// AmortizeStartMonth spreads over the calendar month of the period start
	AmortizeStartMonth AmortizationWindow = "start_month"
	// AmortizePeriod spreads over the payroll period itself
	AmortizePeriod AmortizationWindow = "period"
)

// Range returns the amortization days for the period [start, end]
func (w AmortizationWindow) Range(start, end time.Time) DateRange {
	if w == AmortizePeriod {
		return DateRange{From: start, To: end}
	}
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	return DateRange{From: first, To: first.AddDate(0, 1, -1)}
}

// PayrollJob is the queued unit of work for one employee.
// Dates are carried as YYYY-MM-DD and resolved in the payroll timezone.
type PayrollJob struct {
	EmployeeID   string `json:"employee_id"`
	PeriodStart  string `json:"period_start"`
	PeriodEnd    string `json:"period_end"`
	ReplayStart  string `json:"replay_start,omitempty"`
	ReplayEnd    string `json:"replay_end,omitempty"`
	AdvanceStart string `json:"advance_start,omitempty"`
	AdvanceEnd   string `json:"advance_end,omitempty"`
}

// JobWindows are the parsed date windows of a PayrollJob
type JobWindows struct {
	Period  DateRange
	Replay  *DateRange
	Advance *DateRange
}

// Windows parses the job dates in loc
func (j *PayrollJob) Windows(loc *time.Location) (JobWindows, error) {
	var w JobWindows
	period, err := parseRange(j.PeriodStart, j.PeriodEnd, loc)
	if err != nil {
		return w, err
	}
	if period == nil {
		return w, fmt.Errorf("period dates are required")
	}
	w.Period = *period
	if w.Replay, err = parseRange(j.ReplayStart, j.ReplayEnd, loc); err != nil {
		return w, err
	}
	if w.Advance, err = parseRange(j.AdvanceStart, j.AdvanceEnd, loc); err != nil {
		return w, err
	}
	return w, nil
}

func parseRange(from, to string, loc *time.Location) (*DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	f, err := time.ParseInLocation(DateLayout, from, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", from)
	}
	t, err := time.ParseInLocation(DateLayout, to, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", to)
	}
	return &DateRange{From: f, To: t}, nil
}

// FormatDate renders the calendar date of t
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Earnings maps component name to its period total, stored as JSONB
type Earnings map[string]decimal.Decimal

// Value implements driver.Valuer
func (e Earnings) Value() (driver.Value, error) {
	if e == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner
func (e *Earnings) Scan(src interface{}) error {
	return scanJSON(src, e)
}

// SalarySlip is the persisted payroll result of one employee month
type SalarySlip struct {
	ID                  string          `db:"id" json:"id"`
	EmployeeID          string          `db:"employee_id" json:"employee_id"`
	PayrollMonth        string          `db:"payroll_month" json:"payroll_month"`
	PeriodStart         time.Time       `db:"period_start" json:"period_start"`
	PeriodEnd           time.Time       `db:"period_end" json:"period_end"`
	Earnings            Earnings        `db:"earnings" json:"earnings"`
	PresentShift        int             `db:"present_shift" json:"present_shift"`
	PaidLeaveShift      int             `db:"paid_leave_shift" json:"paid_leave_shift"`
	AbsentShift         int             `db:"absent_shift" json:"absent_shift"`
	AdvanceShift        int             `db:"advance_shift" json:"advance_shift"`
	AdvanceCredit       decimal.Decimal `db:"advance_credit" json:"advance_credit"`
	OvertimeMinutes     int             `db:"overtime_minutes" json:"overtime_minutes"`
	OvertimeWage        decimal.Decimal `db:"overtime_wage" json:"overtime_wage"`
	AdvanceOvertimeWage decimal.Decimal `db:"advance_overtime_wage" json:"advance_overtime_wage"`
	Bonus               decimal.Decimal `db:"bonus" json:"bonus"`
	Penalty             decimal.Decimal `db:"penalty" json:"penalty"`
	AdvancePenalty      decimal.Decimal `db:"advance_penalty" json:"advance_penalty"`
	Statutory           decimal.Decimal `db:"statutory" json:"statutory"`
	Gross               decimal.Decimal `db:"gross" json:"gross"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// PayrollMonth is the YYYY-MM month a period starting at start belongs to
func PayrollMonth(start time.Time) string {
	return start.Format("2006-01")
}
