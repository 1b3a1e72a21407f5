package domain

import "time"

// LeaveStatus is the approval state of a leave
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// Valid reports whether s is a known leave status
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveRejected:
		return true
	}
	return false
}

// Leave is a dated absence request. Only approved leaves count in reconciliation.
type Leave struct {
	ID         string      `db:"id" json:"id"`
	EmployeeID string      `db:"employee_id" json:"employee_id"`
	Date       time.Time   `db:"date" json:"date"`
	DayStatus  DayStatus   `db:"day_status" json:"day_status"`
	Status     LeaveStatus `db:"leave_status" json:"leave_status"`
	Category   string      `db:"category" json:"category"`
	Fraction   float64     `db:"fraction" json:"fraction"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the leave applies to half h
func (l *Leave) Covers(h Half) bool {
	return l.DayStatus == DayFull || l.DayStatus == h.DayStatus()
}

// Cap is the largest worked fraction creditable on a day with this leave
func (l *Leave) Cap() float64 {
	c := 1 - l.Fraction
	if c < 0 {
		return 0
	}
	return c
}
