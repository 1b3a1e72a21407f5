package service

import (
	"context"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// ReconcileResult summarises one reconciliation run
type ReconcileResult struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Written int       `json:"written"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
}

// Reconciler turns raw attendance into per-day attendance records
type Reconciler struct {
	employees  EmployeeStore
	shifts     ShiftStore
	attendance AttendanceStore
	records    RecordStore
	leaves     LeaveStore
	loc        *time.Location
	now        func() time.Time
	logger     *logger.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(
	employees EmployeeStore,
	shifts ShiftStore,
	attendance AttendanceStore,
	records RecordStore,
	leaves LeaveStore,
	loc *time.Location,
	log *logger.Logger,
) *Reconciler {
	if loc == nil {
		loc = time.UTC
	}
	return &Reconciler{
		employees:  employees,
		shifts:     shifts,
		attendance: attendance,
		records:    records,
		leaves:     leaves,
		loc:        loc,
		now:        time.Now,
		logger:     log.WithComponent("reconciler"),
	}
}

// SetClock replaces the time source
func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// Run reconciles, for each active employee, every day after that
// employee's last record up to yesterday. Today is never reconciled.
// Employees without records start at the oldest last record among the
// others, or yesterday on the first run. Failures for one employee and day
// are logged, and the missing day is picked up again on the next run.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileResult, error) {
	yesterday := domain.Midnight(r.now().In(r.loc)).AddDate(0, 0, -1)

	employees, err := r.employees.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	lasts, err := r.records.LastDates(ctx)
	if err != nil {
		return nil, err
	}

	fallback := yesterday
	for _, emp := range employees {
		if last, ok := lasts[emp.ID]; ok {
			if d := domain.DateIn(last, r.loc); d.Before(fallback) {
				fallback = d
			}
		}
	}

	starts := make(map[string]time.Time, len(employees))
	from := yesterday.AddDate(0, 0, 1)
	for _, emp := range employees {
		start := fallback
		if last, ok := lasts[emp.ID]; ok {
			start = domain.DateIn(last, r.loc).AddDate(0, 0, 1)
		}
		if joined := domain.DateIn(emp.JoinedAt, r.loc); start.Before(joined) {
			start = joined
		}
		starts[emp.ID] = start
		if start.Before(from) {
			from = start
		}
	}

	result := &ReconcileResult{From: from, To: yesterday}
	if from.After(yesterday) {
		r.logger.Debug().Str("through", domain.FormatDate(yesterday)).Msg("attendance already reconciled")
		return result, nil
	}

	for day := from; !day.After(yesterday); day = day.AddDate(0, 0, 1) {
		for _, emp := range employees {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if day.Before(starts[emp.ID]) {
				continue
			}

			written, err := r.ReconcileDay(ctx, emp, day)
			switch {
			case err != nil:
				result.Failed++
				r.logger.Error().
					Err(err).
					Str("employee_id", emp.ID).
					Str("date", domain.FormatDate(day)).
					Msg("failed to reconcile attendance")
			case written:
				result.Written++
			default:
				result.Skipped++
			}
		}
	}

	r.logger.Info().
		Str("from", domain.FormatDate(from)).
		Str("to", domain.FormatDate(yesterday)).
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("attendance reconciled")

	return result, nil
}

// ReconcileDay classifies and stores one employee day. It reports false
// when the day already had a record.
func (r *Reconciler) ReconcileDay(ctx context.Context, emp *domain.Employee, day time.Time) (bool, error) {
	shift, err := r.shifts.GetByID(ctx, emp.ShiftID)
	if err != nil {
		return false, err
	}
	leave, err := r.leaves.GetApproved(ctx, emp.ID, day)
	if err != nil {
		return false, err
	}
	att, err := r.attendance.GetByDate(ctx, emp.ID, day)
	if err != nil {
		return false, err
	}

	rec := Classify(shift, day, leave, att)
	rec.EmployeeID = emp.ID
	return r.records.Insert(ctx, rec)
}

// Classify derives the half-day outcomes of one day. Only closed
// attendances and approved leaves count.
func Classify(shift *domain.Shift, day time.Time, leave *domain.Leave, att *domain.Attendance) *domain.AttendanceRecord {
	if att != nil && att.IsOpen() {
		att = nil
	}
	if leave != nil && leave.Status != domain.LeaveApproved {
		leave = nil
	}

	sd := shift.Day(day)
	window := sd.Window(day)
	total := window.Minutes()

	rec := &domain.AttendanceRecord{
		ShiftID:    shift.ID,
		Date:       day,
		FirstHalf:  domain.OutcomeNoShift,
		SecondHalf: domain.OutcomeNoShift,
	}

	worked := 0
	if att != nil {
		m := att.Measure(total, *att.ClockOut)
		worked = m.Worked
		rec.WorkedMinutes = m.Worked
		rec.OvertimeMinutes = m.Overtime
	}

	usedLeave := false
	switch sd.DayStatus {
	case domain.DayHoliday:
		return rec

	case domain.DayFirstHalf, domain.DaySecondHalf:
		half := domain.FirstHalf
		if sd.DayStatus == domain.DaySecondHalf {
			half = domain.SecondHalf
		}
		outcome, fraction := classifyHalf(half, leave, worked, total)
		// a half-day shift needs a creditable fraction to count as present
		if outcome == domain.OutcomePresent && fraction <= 0 {
			outcome = domain.OutcomeAbsent
		}
		usedLeave = outcome == domain.OutcomePaidLeave
		rec.SetHalf(half, outcome, fraction)

	case domain.DayFull:
		if leave != nil && leave.DayStatus == domain.DayFull {
			f := domain.Fraction(worked, total, leave.Cap())
			rec.SetHalf(domain.FirstHalf, domain.OutcomePaidLeave, f)
			rec.SetHalf(domain.SecondHalf, domain.OutcomePaidLeave, f)
			usedLeave = true
			break
		}

		first, second := window.Split()
		for i, hw := range []domain.Window{first, second} {
			half := domain.Half(i)
			inHalf := 0
			if att != nil {
				inHalf = domain.FloorMinutes(att.WorkedWithin(hw, *att.ClockOut))
			}
			outcome, fraction := classifyHalf(half, leave, inHalf, hw.Minutes())
			if outcome == domain.OutcomePaidLeave {
				usedLeave = true
			}
			rec.SetHalf(half, outcome, fraction)
		}
	}

	if usedLeave {
		category := leave.Category
		rec.LeaveCategory = &category
	}
	return rec
}

func classifyHalf(half domain.Half, leave *domain.Leave, worked, total int) (domain.HalfOutcome, float64) {
	if leave != nil && leave.Covers(half) {
		return domain.OutcomePaidLeave, domain.Fraction(worked, total, leave.Cap())
	}
	if worked <= 0 {
		return domain.OutcomeAbsent, 0
	}
	return domain.OutcomePresent, domain.Fraction(worked, total, 1)
}
