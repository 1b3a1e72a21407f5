package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Attendance events
	EventClockIn        = "payroll.attendance.clock_in"
	EventClockOut       = "payroll.attendance.clock_out"
	EventBreakStart     = "payroll.attendance.break_start"
	EventBreakEnd       = "payroll.attendance.break_end"
	EventPenaltyCreated = "payroll.penalty.created"

	// Payroll events
	EventPayrollDispatched = "payroll.run.dispatched"
	EventSlipGenerated     = "payroll.slip.generated"

	// Work items
	JobPayrollRun = "payroll.job.run"
)

// Exchange names
const (
	ExchangePayrollEvents = "payroll.events"
	ExchangePayrollJobs   = "payroll.jobs"
)

// Event is the envelope carried by every message
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Attendance Events

// ClockInEvent is published when an attendance opens or a break closes
type ClockInEvent struct {
	AttendanceID string    `json:"attendance_id"`
	EmployeeID   string    `json:"employee_id"`
	ClockIn      time.Time `json:"clock_in"`
	LateMinutes  int       `json:"late_minutes"`
	Reason       string    `json:"reason,omitempty"`
}

// ClockOutEvent is published when an attendance closes
type ClockOutEvent struct {
	AttendanceID    string    `json:"attendance_id"`
	EmployeeID      string    `json:"employee_id"`
	ClockIn         time.Time `json:"clock_in"`
	ClockOut        time.Time `json:"clock_out"`
	WorkedMinutes   int       `json:"worked_minutes"`
	BreakMinutes    int       `json:"break_minutes"`
	EarlyOutMinutes int       `json:"early_out_minutes"`
	OvertimeMinutes int       `json:"overtime_minutes"`
	Reason          string    `json:"reason,omitempty"`
}

// BreakEvent is published on break start and end
type BreakEvent struct {
	AttendanceID string     `json:"attendance_id"`
	EmployeeID   string     `json:"employee_id"`
	BreakIn      time.Time  `json:"break_in"`
	BreakOut     *time.Time `json:"break_out,omitempty"`
	Reason       string     `json:"reason"`
}

// PenaltyCreatedEvent is published when an automatic penalty is recorded
type PenaltyCreatedEvent struct {
	PenaltyID  string  `json:"penalty_id"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	Reason     string  `json:"reason"`
}

// Payroll Events

// PayrollDispatchedEvent is published after the orchestration step has queued its jobs
type PayrollDispatchedEvent struct {
	PeriodID    string `json:"period_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	YearLabel   string `json:"year_label"`
	Queued      int    `json:"queued"`
	Failed      int    `json:"failed"`
}

// SlipGeneratedEvent is published after a salary slip has been persisted
type SlipGeneratedEvent struct {
	SlipID       string `json:"slip_id"`
	EmployeeID   string `json:"employee_id"`
	PayrollMonth string `json:"payroll_month"`
	Gross        string `json:"gross"`
}
