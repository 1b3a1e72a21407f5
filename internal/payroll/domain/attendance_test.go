package domain_test

import (
	"testing"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestAttendance_Measure(t *testing.T) {
	day := date(2026, time.March, 2)

	att := &domain.Attendance{
		ClockIn: clock(day, 9, 0),
		Breaks: domain.Breaks{
			{BreakIn: clock(day, 12, 0), BreakOut: timePtr(clock(day, 12, 45)), Reason: "lunch"},
		},
	}

	m := att.Measure(480, clock(day, 15, 0))
	assert.Equal(t, 360, m.Elapsed)
	assert.Equal(t, 45, m.Break)
	assert.Equal(t, 315, m.Worked)
	assert.Equal(t, 165, m.Pending)
	assert.Zero(t, m.Overtime)
}

func TestAttendance_Measure_OpenBreakEndsAtNow(t *testing.T) {
	day := date(2026, time.March, 2)

	att := &domain.Attendance{
		ClockIn: clock(day, 9, 0),
		Breaks:  domain.Breaks{{BreakIn: clock(day, 13, 0), Reason: "errand"}},
	}
	require.NotNil(t, att.OpenBreak())

	m := att.Measure(480, clock(day, 13, 20).Add(59*time.Second))
	assert.Equal(t, 20, m.Break)
	assert.Equal(t, 240, m.Worked)
}

func TestAttendance_Measure_ClosedAttendanceIgnoresNow(t *testing.T) {
	day := date(2026, time.March, 2)

	att := &domain.Attendance{
		ClockIn:  clock(day, 8, 0),
		ClockOut: timePtr(clock(day, 18, 30)),
	}

	m := att.Measure(480, clock(day, 23, 0))
	assert.Equal(t, 630, m.Worked)
	assert.Equal(t, 150, m.Overtime)
	assert.Zero(t, m.Pending)
}

func TestAttendance_Measure_ClampsNegativeSpans(t *testing.T) {
	day := date(2026, time.March, 2)

	// clock-in recorded at the shift start, queried before it
	att := &domain.Attendance{ClockIn: clock(day, 9, 0)}
	m := att.Measure(480, clock(day, 8, 0))

	assert.Zero(t, m.Elapsed)
	assert.Zero(t, m.Worked)
	assert.Equal(t, 480, m.Pending)
}

func TestAttendance_WorkedWithin(t *testing.T) {
	day := date(2026, time.March, 2)
	first, second := domain.Window{Start: clock(day, 9, 0), End: clock(day, 17, 0)}.Split()

	att := &domain.Attendance{
		ClockIn:  clock(day, 10, 0),
		ClockOut: timePtr(clock(day, 15, 0)),
		Breaks: domain.Breaks{
			{BreakIn: clock(day, 12, 30), BreakOut: timePtr(clock(day, 13, 30)), Reason: "lunch"},
		},
	}

	assert.Equal(t, 150*time.Minute, att.WorkedWithin(first, clock(day, 20, 0)))
	assert.Equal(t, 90*time.Minute, att.WorkedWithin(second, clock(day, 20, 0)))
}

func TestBreaks_ValueScan(t *testing.T) {
	day := date(2026, time.March, 2)
	in := domain.Breaks{{BreakIn: clock(day, 12, 0).UTC(), Reason: "lunch"}}

	v, err := in.Value()
	require.NoError(t, err)

	var out domain.Breaks
	require.NoError(t, out.Scan(v))
	require.Len(t, out, 1)
	assert.True(t, in[0].BreakIn.Equal(out[0].BreakIn))
	assert.Nil(t, out[0].BreakOut)

	empty, err := domain.Breaks(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), empty)
}
