package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// AttendanceStatus is the live state of an open or closed attendance.
// An employee without an attendance for the day has no status at all.
type AttendanceStatus string

const (
	StatusNoRecord AttendanceStatus = "no_record"
	StatusIn       AttendanceStatus = "in"
	StatusBreak    AttendanceStatus = "break"
	StatusOut      AttendanceStatus = "out"
)

// Break is one pause within an attendance
type Break struct {
	BreakIn  time.Time  `json:"break_in"`
	BreakOut *time.Time `json:"break_out,omitempty"`
	Reason   string     `json:"reason"`
}

// Breaks is the ordered break list, stored as JSONB
type Breaks []Break

// Value implements driver.Valuer
func (b Breaks) Value() (driver.Value, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner
func (b *Breaks) Scan(src interface{}) error {
	return scanJSON(src, b)
}

// Attendance is the live clock record of one employee for one calendar day
type Attendance struct {
	ID             string           `db:"id" json:"id"`
	EmployeeID     string           `db:"employee_id" json:"employee_id"`
	ShiftID        string           `db:"shift_id" json:"shift_id"`
	Date           time.Time        `db:"date" json:"date"`
	ClockIn        time.Time        `db:"clock_in" json:"clock_in"`
	ClockOut       *time.Time       `db:"clock_out" json:"clock_out,omitempty"`
	Status         AttendanceStatus `db:"status" json:"status"`
	Breaks         Breaks           `db:"breaks" json:"breaks"`
	LateIn         int              `db:"late_in" json:"late_in"`
	EarlyOut       int              `db:"early_out" json:"early_out"`
	ClockInReason  *string          `db:"clock_in_reason" json:"clock_in_reason,omitempty"`
	ClockOutReason *string          `db:"clock_out_reason" json:"clock_out_reason,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// IsOpen reports whether the attendance has not been clocked out
func (a *Attendance) IsOpen() bool {
	return a.ClockOut == nil
}

// OpenBreak returns the break currently in progress, if any
func (a *Attendance) OpenBreak() *Break {
	if n := len(a.Breaks); n > 0 && a.Breaks[n-1].BreakOut == nil {
		return &a.Breaks[n-1]
	}
	return nil
}

// end is the upper bound used for derived minutes
func (a *Attendance) end(now time.Time) time.Time {
	if a.ClockOut != nil {
		return *a.ClockOut
	}
	return now
}

func (a *Attendance) breakEnd(b Break, now time.Time) time.Time {
	if b.BreakOut != nil {
		return *b.BreakOut
	}
	return a.end(now)
}

// BreakDuration sums all breaks, open breaks ending at now
func (a *Attendance) BreakDuration(now time.Time) time.Duration {
	var total time.Duration
	for _, b := range a.Breaks {
		if d := a.breakEnd(b, now).Sub(b.BreakIn); d > 0 {
			total += d
		}
	}
	return total
}

// Minutes holds the derived minute counters of an attendance
type Minutes struct {
	Elapsed  int `json:"elapsed_minutes"`
	Break    int `json:"break_minutes"`
	Worked   int `json:"worked_minutes"`
	Pending  int `json:"pending_minutes"`
	Overtime int `json:"overtime_minutes"`
	Shift    int `json:"shift_minutes"`
}

// Measure derives worked, pending and overtime minutes against the scheduled minutes
func (a *Attendance) Measure(shiftMinutes int, now time.Time) Minutes {
	m := Minutes{
		Elapsed: FloorMinutes(a.end(now).Sub(a.ClockIn)),
		Break:   FloorMinutes(a.BreakDuration(now)),
		Shift:   shiftMinutes,
	}
	m.Worked = max(0, m.Elapsed-m.Break)
	m.Pending = max(0, shiftMinutes-m.Worked)
	m.Overtime = max(0, m.Worked-shiftMinutes)
	return m
}

// WorkedWithin is the working time (clocked time minus breaks) inside w
func (a *Attendance) WorkedWithin(w Window, now time.Time) time.Duration {
	worked := w.Overlap(a.ClockIn, a.end(now))
	for _, b := range a.Breaks {
		worked -= w.Overlap(b.BreakIn, a.breakEnd(b, now))
	}
	if worked < 0 {
		return 0
	}
	return worked
}
