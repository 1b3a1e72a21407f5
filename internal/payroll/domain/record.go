package domain

import "time"

// HalfOutcome classifies one half of a reconciled day
type HalfOutcome string

const (
	OutcomePresent   HalfOutcome = "present"
	OutcomeAbsent    HalfOutcome = "absent"
	OutcomePaidLeave HalfOutcome = "paid_leave"
	OutcomeNoShift   HalfOutcome = "no_shift"
)

// Paid reports whether the half earns one per-shift unit
func (o HalfOutcome) Paid() bool {
	return o == OutcomePresent || o == OutcomePaidLeave
}

// Half identifies the first or second half of a shift day
type Half int

const (
	FirstHalf Half = iota
	SecondHalf
)

func (h Half) String() string {
	if h == FirstHalf {
		return "first_half"
	}
	return "second_half"
}

// DayStatus is the half-day status matching h
func (h Half) DayStatus() DayStatus {
	if h == FirstHalf {
		return DayFirstHalf
	}
	return DaySecondHalf
}

// AttendanceRecord is the reconciled, immutable outcome of one employee day
type AttendanceRecord struct {
	ID                 string      `db:"id" json:"id"`
	EmployeeID         string      `db:"employee_id" json:"employee_id"`
	ShiftID            string      `db:"shift_id" json:"shift_id"`
	Date               time.Time   `db:"date" json:"date"`
	FirstHalf          HalfOutcome `db:"first_half" json:"first_half"`
	SecondHalf         HalfOutcome `db:"second_half" json:"second_half"`
	FirstHalfFraction  float64     `db:"first_half_fraction" json:"first_half_fraction"`
	SecondHalfFraction float64     `db:"second_half_fraction" json:"second_half_fraction"`
	LeaveCategory      *string     `db:"leave_category" json:"leave_category,omitempty"`
	WorkedMinutes      int         `db:"worked_minutes" json:"worked_minutes"`
	OvertimeMinutes    int         `db:"overtime_minutes" json:"overtime_minutes"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
}

// Outcome returns the outcome of half h
func (r *AttendanceRecord) Outcome(h Half) HalfOutcome {
	if h == FirstHalf {
		return r.FirstHalf
	}
	return r.SecondHalf
}

// SetHalf stores the outcome and fraction of half h
func (r *AttendanceRecord) SetHalf(h Half, outcome HalfOutcome, fraction float64) {
	if h == FirstHalf {
		r.FirstHalf, r.FirstHalfFraction = outcome, fraction
		return
	}
	r.SecondHalf, r.SecondHalfFraction = outcome, fraction
}

// Halves returns both outcomes in order
func (r *AttendanceRecord) Halves() [2]HalfOutcome {
	return [2]HalfOutcome{r.FirstHalf, r.SecondHalf}
}

// Fraction is worked/total truncated to two decimals and capped at limit.
// A non-positive total yields zero.
func Fraction(worked, total int, limit float64) float64 {
	if total <= 0 || worked <= 0 {
		return 0
	}
	f := truncate2(float64(worked*100/total) / 100)
	if f > limit {
		f = truncate2(limit)
	}
	if f < 0 {
		return 0
	}
	return f
}

func truncate2(f float64) float64 {
	return float64(int64(f*100+1e-9)) / 100
}
