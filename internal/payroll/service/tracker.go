package service

import (
	"context"
	"strings"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// DefaultLateThreshold is the lateness from which a late clock-in is penalised
const DefaultLateThreshold = 30 * time.Minute

// TrackerConfig holds the tracker settings
type TrackerConfig struct {
	Location      *time.Location
	LateThreshold time.Duration
}

// StatusReport is the live attendance state of an employee
type StatusReport struct {
	EmployeeID string                  `json:"employee_id"`
	Status     domain.AttendanceStatus `json:"status"`
	Attendance *domain.Attendance      `json:"attendance,omitempty"`
	Window     *domain.Window          `json:"window,omitempty"`
	Minutes    domain.Minutes          `json:"minutes"`
}

// Tracker owns the live clock-in, break and clock-out state machine
type Tracker struct {
	employees     EmployeeStore
	shifts        ShiftStore
	attendance    AttendanceStore
	policies      PolicyStore
	penalties     PenaltyStore
	publisher     EventPublisher
	loc           *time.Location
	lateThreshold time.Duration
	now           func() time.Time
	logger        *logger.Logger
}

// NewTracker creates a new attendance tracker
func NewTracker(
	employees EmployeeStore,
	shifts ShiftStore,
	attendance AttendanceStore,
	policies PolicyStore,
	penalties PenaltyStore,
	publisher EventPublisher,
	cfg TrackerConfig,
	log *logger.Logger,
) *Tracker {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LateThreshold <= 0 {
		cfg.LateThreshold = DefaultLateThreshold
	}
	return &Tracker{
		employees:     employees,
		shifts:        shifts,
		attendance:    attendance,
		policies:      policies,
		penalties:     penalties,
		publisher:     publisher,
		loc:           cfg.Location,
		lateThreshold: cfg.LateThreshold,
		now:           time.Now,
		logger:        log.WithComponent("tracker"),
	}
}

// SetClock replaces the time source
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

func (t *Tracker) clock() time.Time {
	return t.now().In(t.loc)
}

// current resolves the attendance an employee is acting on and its status.
// An open attendance wins; otherwise a closed one for today means OUT.
func (t *Tracker) current(ctx context.Context, employeeID string, now time.Time) (*domain.Attendance, domain.AttendanceStatus, error) {
	open, err := t.attendance.GetOpen(ctx, employeeID)
	if err != nil {
		return nil, "", err
	}
	if open != nil {
		return open, open.Status, nil
	}

	closed, err := t.attendance.GetByDate(ctx, employeeID, domain.Midnight(now))
	if err != nil {
		return nil, "", err
	}
	if closed != nil {
		return closed, domain.StatusOut, nil
	}
	return nil, domain.StatusNoRecord, nil
}

// ClockIn opens today's attendance, or ends the running break
func (t *Tracker) ClockIn(ctx context.Context, employeeID, reason string) (*domain.Attendance, error) {
	now := t.clock()
	reason = strings.TrimSpace(reason)

	emp, err := t.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	att, status, err := t.current(ctx, employeeID, now)
	if err != nil {
		return nil, err
	}
	switch status {
	case domain.StatusIn:
		return nil, errors.StateConflict("already clocked in")
	case domain.StatusOut:
		return nil, errors.StateConflict("already clocked out for the day")
	case domain.StatusBreak:
		return t.endBreak(ctx, att, now)
	}

	shift, err := t.shifts.GetByID(ctx, emp.ShiftID)
	if err != nil {
		return nil, err
	}
	workday, day, window := anchorDay(shift, now)
	if !workday.Equal(domain.Midnight(now)) {
		// the session belongs to last night's shift, which may already be closed
		prev, err := t.attendance.GetByDate(ctx, employeeID, workday)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			return nil, errors.StateConflict("already clocked out for the day")
		}
	}

	// Early arrivals start counting at the shift start
	clockIn := now
	lateBy := time.Duration(0)
	if day.DayStatus != domain.DayHoliday {
		switch {
		case now.Before(window.Start):
			clockIn = window.Start
		case now.After(window.Start) && now.Before(window.End):
			if reason == "" {
				return nil, errors.Invalid("a reason is required to clock in late")
			}
			lateBy = now.Sub(window.Start)
		}
	}

	att = &domain.Attendance{
		EmployeeID: emp.ID,
		ShiftID:    shift.ID,
		Date:       workday,
		ClockIn:    clockIn,
		Status:     domain.StatusIn,
		Breaks:     domain.Breaks{},
		LateIn:     domain.FloorMinutes(lateBy),
	}
	if reason != "" {
		att.ClockInReason = &reason
	}

	if err := t.attendance.Create(ctx, att); err != nil {
		return nil, err
	}

	t.logger.Info().
		Str("employee_id", emp.ID).
		Time("clock_in", att.ClockIn).
		Int("late_in", att.LateIn).
		Msg("clocked in")
	t.publisher.ClockedIn(ctx, att)

	if lateBy >= t.lateThreshold {
		t.penalize(ctx, emp.ID, att.Date, domain.ReasonLateIn, func(p *domain.Policy) float64 {
			return p.LateInPenalty
		})
	}

	return att, nil
}

// anchorDay picks the shift day a clock-in at now belongs to. A window that
// started yesterday and runs past midnight still owns now until it ends.
func anchorDay(shift *domain.Shift, now time.Time) (time.Time, domain.ShiftDay, domain.Window) {
	today := domain.Midnight(now)
	yesterday := today.AddDate(0, 0, -1)
	if prev := shift.Day(yesterday); prev.DayStatus != domain.DayHoliday {
		if w := prev.Window(yesterday); w.Contains(now) {
			return yesterday, prev, w
		}
	}
	day := shift.Day(today)
	return today, day, day.Window(today)
}

func (t *Tracker) endBreak(ctx context.Context, att *domain.Attendance, now time.Time) (*domain.Attendance, error) {
	open := att.OpenBreak()
	if open == nil {
		return nil, errors.StateConflict("no break in progress")
	}
	open.BreakOut = &now
	att.Status = domain.StatusIn

	if err := t.attendance.UpdateBreaks(ctx, att); err != nil {
		return nil, err
	}
	t.publisher.BreakEnded(ctx, att)

	breakMinutes := domain.FloorMinutes(att.BreakDuration(now))
	t.penalize(ctx, att.EmployeeID, att.Date, domain.ReasonBreakOverrun, func(p *domain.Policy) float64 {
		if p.BreakAllowanceMinutes <= 0 || breakMinutes <= p.BreakAllowanceMinutes {
			return 0
		}
		return p.BreakPenalty
	})
	return att, nil
}

// StartBreak opens a break on the running attendance
func (t *Tracker) StartBreak(ctx context.Context, employeeID, reason string) (*domain.Attendance, error) {
	now := t.clock()

	att, status, err := t.current(ctx, employeeID, now)
	if err != nil {
		return nil, err
	}
	switch status {
	case domain.StatusNoRecord:
		return nil, errors.StateConflict("not clocked in")
	case domain.StatusOut:
		return nil, errors.StateConflict("already clocked out for the day")
	case domain.StatusBreak:
		return nil, errors.StateConflict("already on break")
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.Invalid("a reason is required to start a break")
	}

	att.Breaks = append(att.Breaks, domain.Break{BreakIn: now, Reason: reason})
	att.Status = domain.StatusBreak

	if err := t.attendance.UpdateBreaks(ctx, att); err != nil {
		return nil, err
	}

	t.publisher.BreakStarted(ctx, att)
	return att, nil
}

// ClockOut closes the running attendance. Leaving before the scheduled
// minutes are worked requires a reason.
func (t *Tracker) ClockOut(ctx context.Context, employeeID, reason string) (*domain.Attendance, error) {
	now := t.clock()
	reason = strings.TrimSpace(reason)

	att, status, err := t.current(ctx, employeeID, now)
	if err != nil {
		return nil, err
	}
	switch status {
	case domain.StatusNoRecord:
		return nil, errors.StateConflict("not clocked in")
	case domain.StatusBreak:
		return nil, errors.StateConflict("cannot clock out while on break")
	case domain.StatusOut:
		return nil, errors.StateConflict("already clocked out for the day")
	}

	window, err := t.window(ctx, att)
	if err != nil {
		return nil, err
	}
	shiftMinutes := window.Minutes()

	if m := att.Measure(shiftMinutes, now); m.Worked < shiftMinutes && reason == "" {
		return nil, errors.Invalid("a reason is required to clock out before completing the shift")
	}

	return t.close(ctx, att, window, now, reason)
}

// ResolveAbandoned closes an attendance left open, at the given instant
func (t *Tracker) ResolveAbandoned(ctx context.Context, employeeID string, clockOut time.Time, reason string) (*domain.Attendance, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.Invalid("a reason is required to resolve an attendance")
	}

	att, err := t.attendance.GetOpen(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, errors.StateConflict("no open attendance to resolve")
	}
	clockOut = clockOut.In(t.loc)
	if clockOut.Before(att.ClockIn) {
		return nil, errors.Invalid("clock-out must not precede clock-in")
	}

	if open := att.OpenBreak(); open != nil {
		end := clockOut
		if end.Before(open.BreakIn) {
			end = open.BreakIn
		}
		open.BreakOut = &end
	}

	window, err := t.window(ctx, att)
	if err != nil {
		return nil, err
	}

	t.logger.Warn().
		Str("employee_id", employeeID).
		Str("attendance_id", att.ID).
		Time("clock_out", clockOut).
		Msg("resolving abandoned attendance")

	return t.close(ctx, att, window, clockOut, reason)
}

func (t *Tracker) close(ctx context.Context, att *domain.Attendance, window domain.Window, at time.Time, reason string) (*domain.Attendance, error) {
	att.ClockOut = &at
	att.Status = domain.StatusOut
	att.EarlyOut = 0
	if at.Before(window.End) {
		att.EarlyOut = domain.FloorMinutes(window.End.Sub(at))
	}
	if reason != "" {
		att.ClockOutReason = &reason
	}

	if err := t.attendance.UpdateClockOut(ctx, att); err != nil {
		return nil, err
	}

	m := att.Measure(window.Minutes(), at)
	t.logger.Info().
		Str("employee_id", att.EmployeeID).
		Int("worked_minutes", m.Worked).
		Int("early_out", att.EarlyOut).
		Msg("clocked out")
	t.publisher.ClockedOut(ctx, att, m)

	return att, nil
}

// Status reports the live state and derived minutes of an employee
func (t *Tracker) Status(ctx context.Context, employeeID string) (*StatusReport, error) {
	now := t.clock()

	if _, err := t.employees.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	att, status, err := t.current(ctx, employeeID, now)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{EmployeeID: employeeID, Status: status, Attendance: att}
	if att == nil {
		return report, nil
	}

	window, err := t.window(ctx, att)
	if err != nil {
		return nil, err
	}
	report.Window = &window
	report.Minutes = att.Measure(window.Minutes(), now)
	return report, nil
}

func (t *Tracker) window(ctx context.Context, att *domain.Attendance) (domain.Window, error) {
	shift, err := t.shifts.GetByID(ctx, att.ShiftID)
	if err != nil {
		return domain.Window{}, err
	}
	return shift.Window(domain.DateIn(att.Date, t.loc)), nil
}

// penalize records a dated penalty using the amount picked from the policy.
// Clock events are already persisted, so failures are logged, not returned.
func (t *Tracker) penalize(ctx context.Context, employeeID string, date time.Time, reason string, amount func(*domain.Policy) float64) {
	log := t.logger.WithEmployeeID(employeeID)

	policy, err := t.policies.Get(ctx)
	if err != nil {
		log.Error().Err(err).Str("reason", reason).Msg("failed to load policy for penalty")
		return
	}
	value := amount(policy)
	if value <= 0 {
		return
	}

	penalty := &domain.Penalty{
		EmployeeID: employeeID,
		Date:       date,
		Amount:     value,
		Reason:     reason,
	}
	created, err := t.penalties.Create(ctx, penalty)
	if err != nil {
		log.Error().Err(err).Str("reason", reason).Msg("failed to create penalty")
		return
	}
	if created {
		log.Info().Str("reason", reason).Float64("amount", value).Msg("penalty created")
		t.publisher.PenaltyCreated(ctx, penalty)
	}
}
