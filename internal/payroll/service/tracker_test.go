package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is a full working day of the office shift
var monday = date(2026, time.April, 6)

type trackerFixture struct {
	tracker    *service.Tracker
	attendance *fakeAttendance
	penalties  *fakePenalties
	events     *recordingPublisher
	now        time.Time
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()
	return newTrackerFixtureWithShift(t, officeShift("shift-1"))
}

func newTrackerFixtureWithShift(t *testing.T, shift *domain.Shift) *trackerFixture {
	t.Helper()

	f := &trackerFixture{
		attendance: &fakeAttendance{},
		penalties:  &fakePenalties{},
		events:     &recordingPublisher{},
	}
	emp := &domain.Employee{ID: "emp-1", ShiftID: "shift-1", BaseSalary: 26000, Active: true, JoinedAt: date(2025, time.January, 1)}
	policy := &domain.Policy{LateInPenalty: 100, BreakPenalty: 50, BreakAllowanceMinutes: 60}

	f.tracker = service.NewTracker(
		newFakeEmployees(emp),
		newFakeShifts(shift),
		f.attendance,
		&fakePolicies{policy: policy},
		f.penalties,
		f.events,
		service.TrackerConfig{Location: ist},
		logger.Nop(),
	)
	f.tracker.SetClock(func() time.Time { return f.now })
	return f
}

func (f *trackerFixture) at(h, m int) {
	f.now = at(monday, h, m)
}

// ============================================================================
// Clock-in Tests
// ============================================================================

func TestClockIn_EarlyArrivalStartsAtShiftStart(t *testing.T) {
	f := newTrackerFixture(t)
	f.at(8, 40)

	att, err := f.tracker.ClockIn(context.Background(), "emp-1", "")
	require.NoError(t, err)

	assert.True(t, att.ClockIn.Equal(at(monday, 9, 0)))
	assert.Equal(t, domain.StatusIn, att.Status)
	assert.Equal(t, 0, att.LateIn)
	assert.NotEmpty(t, att.ID)
	assert.Equal(t, 1, f.events.count("clocked_in"))
	assert.Empty(t, f.penalties.items)
}

func TestClockIn_LateRequiresReason(t *testing.T) {
	f := newTrackerFixture(t)
	f.at(9, 45)

	_, err := f.tracker.ClockIn(context.Background(), "emp-1", "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Empty(t, f.attendance.items)

	att, err := f.tracker.ClockIn(context.Background(), "emp-1", "traffic")
	require.NoError(t, err)
	assert.Equal(t, 45, att.LateIn)
	require.NotNil(t, att.ClockInReason)
	assert.Equal(t, "traffic", *att.ClockInReason)
}

func TestClockIn_LatePenaltyFromThreshold(t *testing.T) {
	tests := []struct {
		name      string
		minute    int
		penalized bool
	}{
		{name: "ten minutes late", minute: 10, penalized: false},
		{name: "exactly at threshold", minute: 30, penalized: true},
		{name: "forty five minutes late", minute: 45, penalized: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTrackerFixture(t)
			f.at(9, tt.minute)

			_, err := f.tracker.ClockIn(context.Background(), "emp-1", "late")
			require.NoError(t, err)

			late := f.penalties.byReason(domain.ReasonLateIn)
			if !tt.penalized {
				assert.Empty(t, late)
				return
			}
			require.Len(t, late, 1)
			assert.Equal(t, 100.0, late[0].Amount)
			assert.True(t, sameDay(late[0].Date, monday))
			assert.Equal(t, 1, f.events.count("penalty_created"))
		})
	}
}

func TestClockIn_AfterShiftEndNeedsNoReason(t *testing.T) {
	f := newTrackerFixture(t)
	f.at(18, 0)

	att, err := f.tracker.ClockIn(context.Background(), "emp-1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, att.LateIn)
	assert.True(t, att.ClockIn.Equal(at(monday, 18, 0)))
	assert.Empty(t, f.penalties.items)
}

func TestClockIn_OnHoliday(t *testing.T) {
	f := newTrackerFixture(t)
	f.now = at(date(2026, time.April, 5), 11, 0)

	att, err := f.tracker.ClockIn(context.Background(), "emp-1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, att.LateIn)
	assert.True(t, att.ClockIn.Equal(f.now))
}

func TestClockIn_RejectsRepeatedAndAfterClockOut(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	f.at(9, 0)
	_, err := f.tracker.ClockIn(ctx, "emp-1", "")
	require.NoError(t, err)

	_, err = f.tracker.ClockIn(ctx, "emp-1", "")
	assert.True(t, errors.Is(err, errors.ErrStateConflict))

	f.at(17, 0)
	_, err = f.tracker.ClockOut(ctx, "emp-1", "")
	require.NoError(t, err)

	f.at(17, 30)
	_, err = f.tracker.ClockIn(ctx, "emp-1", "")
	assert.True(t, errors.Is(err, errors.ErrStateConflict))
	assert.Len(t, f.attendance.items, 1)
}

// nightShift is 22:00-06:00 every day
func nightShift(id string) *domain.Shift {
	s := &domain.Shift{ID: id, Name: "night"}
	for i := range s.Days {
		s.Days[i] = domain.ShiftDay{StartTime: "22:00", EndTime: "06:00", DayStatus: domain.DayFull}
	}
	return s
}

func TestClockIn_AfterMidnightJoinsLastNightsShift(t *testing.T) {
	f := newTrackerFixtureWithShift(t, nightShift("shift-1"))
	ctx := context.Background()
	tuesday := monday.AddDate(0, 0, 1)

	f.now = at(tuesday, 0, 30)
	_, err := f.tracker.ClockIn(ctx, "emp-1", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	att, err := f.tracker.ClockIn(ctx, "emp-1", "bus strike")
	require.NoError(t, err)
	assert.True(t, sameDay(att.Date, monday))
	assert.True(t, att.ClockIn.Equal(f.now))
	assert.Equal(t, 150, att.LateIn)

	late := f.penalties.byReason(domain.ReasonLateIn)
	require.Len(t, late, 1)
	assert.True(t, sameDay(late[0].Date, monday))

	f.now = at(tuesday, 6, 0)
	report, err := f.tracker.Status(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIn, report.Status)
	assert.Equal(t, 330, report.Minutes.Worked)

	_, err = f.tracker.ClockOut(ctx, "emp-1", "short night")
	require.NoError(t, err)

	// a second attempt inside the same window is rejected
	f.now = at(tuesday, 5, 0)
	_, err = f.tracker.ClockIn(ctx, "emp-1", "again")
	assert.True(t, errors.Is(err, errors.ErrStateConflict))
}

func TestClockIn_BeforeNightShiftStartsTonight(t *testing.T) {
	f := newTrackerFixtureWithShift(t, nightShift("shift-1"))
	f.now = at(monday, 21, 30)

	att, err := f.tracker.ClockIn(context.Background(), "emp-1", "")
	require.NoError(t, err)
	assert.True(t, sameDay(att.Date, monday))
	assert.True(t, att.ClockIn.Equal(at(monday, 22, 0)))
	assert.Equal(t, 0, att.LateIn)
}

func TestClockIn_UnknownEmployee(t *testing.T) {
	f := newTrackerFixture(t)
	f.at(9, 0)

	_, err := f.tracker.ClockIn(context.Background(), "nobody", "")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

// ============================================================================
// Break Tests
// ============================================================================

func TestBreak_RoundTripAndOverrunPenalty(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	f.at(9, 0)
	_, err := f.tracker.ClockIn(ctx, "emp-1", "")
	require.NoError(t, err)

	f.at(12, 0)
	_, err = f.tracker.StartBreak(ctx, "emp-1", "")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	att, err := f.tracker.StartBreak(ctx, "emp-1", "lunch")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBreak, att.Status)
	require.NotNil(t, att.OpenBreak())

	_, err = f.tracker.StartBreak(ctx, "emp-1", "again")
	assert.True(t, errors.Is(err, errors.ErrStateConflict))

	_, err = f.tracker.ClockOut(ctx, "emp-1", "leaving")
	assert.True(t, errors.Is(err, errors.ErrStateConflict))

	// clocking in while on break ends the break
	f.at(13, 30)
	att, err = f.tracker.ClockIn(ctx, "emp-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIn, att.Status)
	assert.Nil(t, att.OpenBreak())

	m := att.Measure(480, f.now)
	assert.Equal(t, 90, m.Break)
	assert.Equal(t, 180, m.Worked)

	overrun := f.penalties.byReason(domain.ReasonBreakOverrun)
	require.Len(t, overrun, 1)
	assert.Equal(t, 50.0, overrun[0].Amount)
	assert.Equal(t, 1, f.events.count("break_started"))
	assert.Equal(t, 1, f.events.count("break_ended"))
}

func TestBreak_WithinAllowanceHasNoPenalty(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	f.at(9, 0)
	_, err := f.tracker.ClockIn(ctx, "emp-1", "")
	require.NoError(t, err)

	f.at(12, 0)
	_, err = f.tracker.StartBreak(ctx, "emp-1", "lunch")
	require.NoError(t, err)

	f.at(12, 45)
	_, err = f.tracker.ClockIn(ctx, "emp-1", "")
	require.NoError(t, err)

	assert.Empty(t, f.penalties.byReason(domain.ReasonBreakOverrun))
}

func TestStartBreak_RequiresOpenAttendance(t *testing.T) {
	f := newTrackerFixture(t)
	f.at(10, 0)

	_, err := f.tracker.StartBreak(context.Background(), "emp-1", "tea")
	assert.True(t, errors.Is(err, errors.ErrStateConflict))
}

// ============================================================================
// Clock-out Tests
// ============================================================================

func TestClockOut_EarlyRequiresReason(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	f.at(9, 0)
	_, err := f.tracker.ClockIn(ctx, "emp-1", "")
	require.NoError(t, err)

	f.at(16, 0)
	_, err = f.tracker.ClockOut(ctx, "emp-1", "")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	att, err := f.tracker.ClockOut(ctx, "emp-1", "doctor")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOut, att.Status)
	assert.Equal(t, 60, att.EarlyOut)
	require.NotNil(t, att.ClockOutReason)
	assert.Equal(t, 1, f.events.count("clocked_out"))

	report, err := f.tracker.Status(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOut, report.Status)
	assert.Equal(t, 420, report.Minutes.Worked)
	assert.Equal(t, 60, report.Minutes.Pending)
}

func TestClockOut_FullShiftWithOvertime(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	f.at(9, 0)
	_, err := f.tracker.ClockIn(ctx, "emp-1", "")
	require.NoError(t, err)

	f.at(17, 30)
	att, err := f.tracker.ClockOut(ctx, "emp-1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, att.EarlyOut)

	m := att.Measure(480, f.now)
	assert.Equal(t, 510, m.Worked)
	assert.Equal(t, 30, m.Overtime)
	assert.Equal(t, 0, m.Pending)
}

func TestClockOut_WithoutAttendance(t *testing.T) {
	f := newTrackerFixture(t)
	f.at(17, 0)

	_, err := f.tracker.ClockOut(context.Background(), "emp-1", "")
	assert.True(t, errors.Is(err, errors.ErrStateConflict))
}

// ============================================================================
// Status and Resolution Tests
// ============================================================================

func TestStatus_LiveMinutes(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	f.at(10, 0)
	report, err := f.tracker.Status(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoRecord, report.Status)
	assert.Nil(t, report.Attendance)

	f.at(9, 0)
	_, err = f.tracker.ClockIn(ctx, "emp-1", "")
	require.NoError(t, err)

	f.at(10, 0)
	report, err = f.tracker.Status(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIn, report.Status)
	require.NotNil(t, report.Window)
	assert.Equal(t, 480, report.Minutes.Shift)
	assert.Equal(t, 60, report.Minutes.Worked)
	assert.Equal(t, 420, report.Minutes.Pending)
}

func TestResolveAbandoned(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	f.at(9, 0)
	_, err := f.tracker.ClockIn(ctx, "emp-1", "")
	require.NoError(t, err)
	f.at(15, 0)
	_, err = f.tracker.StartBreak(ctx, "emp-1", "errand")
	require.NoError(t, err)

	// next morning the attendance is still open
	f.now = at(monday.AddDate(0, 0, 1), 8, 0)

	_, err = f.tracker.ResolveAbandoned(ctx, "emp-1", at(monday, 16, 0), "")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = f.tracker.ResolveAbandoned(ctx, "emp-1", at(monday, 8, 0), "forgot")
	assert.True(t, errors.Is(err, errors.ErrValidation))

	att, err := f.tracker.ResolveAbandoned(ctx, "emp-1", at(monday, 16, 0), "forgot to clock out")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOut, att.Status)
	assert.Nil(t, att.OpenBreak())
	assert.Equal(t, 60, att.EarlyOut)

	m := att.Measure(480, f.now)
	assert.Equal(t, 60, m.Break)
	assert.Equal(t, 360, m.Worked)

	_, err = f.tracker.ResolveAbandoned(ctx, "emp-1", at(monday, 16, 0), "again")
	assert.True(t, errors.Is(err, errors.ErrStateConflict))
}
