package domain_test

import (
	"testing"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, ist)
}

func clock(day time.Time, h, m int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

// weekSchedule builds a shift with the same day on every weekday except the holidays
func weekSchedule(day domain.ShiftDay, holidays ...time.Weekday) domain.WeekSchedule {
	var w domain.WeekSchedule
	for i := range w {
		w[i] = day
	}
	for _, h := range holidays {
		w[h] = domain.ShiftDay{DayStatus: domain.DayHoliday}
	}
	return w
}

// ============================================================================
// WINDOW RESOLUTION
// ============================================================================

func TestShiftDay_Window(t *testing.T) {
	day := date(2026, time.March, 2)
	next := day.AddDate(0, 0, 1)

	tests := []struct {
		name      string
		shiftDay  domain.ShiftDay
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "full day",
			shiftDay:  domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFull},
			wantStart: clock(day, 9, 0),
			wantEnd:   clock(day, 17, 0),
		},
		{
			name:      "first half ends at midpoint",
			shiftDay:  domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFirstHalf},
			wantStart: clock(day, 9, 0),
			wantEnd:   clock(day, 13, 0),
		},
		{
			name:      "second half starts at midpoint",
			shiftDay:  domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DaySecondHalf},
			wantStart: clock(day, 13, 0),
			wantEnd:   clock(day, 17, 0),
		},
		{
			name:      "overnight full day",
			shiftDay:  domain.ShiftDay{StartTime: "22:00", EndTime: "06:00", DayStatus: domain.DayFull},
			wantStart: clock(day, 22, 0),
			wantEnd:   clock(next, 6, 0),
		},
		{
			name:      "overnight first half crosses midnight",
			shiftDay:  domain.ShiftDay{StartTime: "22:00", EndTime: "06:00", DayStatus: domain.DayFirstHalf},
			wantStart: clock(day, 22, 0),
			wantEnd:   clock(next, 2, 0),
		},
		{
			name:      "overnight second half lies on the next day",
			shiftDay:  domain.ShiftDay{StartTime: "22:00", EndTime: "06:00", DayStatus: domain.DaySecondHalf},
			wantStart: clock(next, 2, 0),
			wantEnd:   clock(next, 6, 0),
		},
		{
			name:      "evening shift whose second half starts before midnight",
			shiftDay:  domain.ShiftDay{StartTime: "18:00", EndTime: "02:00", DayStatus: domain.DaySecondHalf},
			wantStart: clock(day, 22, 0),
			wantEnd:   clock(next, 2, 0),
		},
		{
			name:      "holiday is empty at midnight",
			shiftDay:  domain.ShiftDay{DayStatus: domain.DayHoliday},
			wantStart: day,
			wantEnd:   day,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.shiftDay.Window(clock(day, 15, 30))
			assert.True(t, tt.wantStart.Equal(w.Start), "start: want %s got %s", tt.wantStart, w.Start)
			assert.True(t, tt.wantEnd.Equal(w.End), "end: want %s got %s", tt.wantEnd, w.End)
		})
	}
}

func TestShiftDay_Window_HalvesMeetAtMidpoint(t *testing.T) {
	day := date(2026, time.June, 10)
	spans := [][2]string{{"09:00", "17:00"}, {"08:30", "17:30"}, {"22:00", "06:00"}, {"20:15", "04:45"}, {"06:00", "06:00"}}

	for _, span := range spans {
		full := domain.ShiftDay{StartTime: span[0], EndTime: span[1], DayStatus: domain.DayFull}.Window(day)
		first := domain.ShiftDay{StartTime: span[0], EndTime: span[1], DayStatus: domain.DayFirstHalf}.Window(day)
		second := domain.ShiftDay{StartTime: span[0], EndTime: span[1], DayStatus: domain.DaySecondHalf}.Window(day)

		mid := full.Midpoint()
		assert.True(t, mid.Equal(first.End), "%v first half end", span)
		assert.True(t, mid.Equal(second.Start), "%v second half start", span)
		assert.True(t, full.Start.Equal(first.Start), "%v first half start", span)
		assert.True(t, full.End.Equal(second.End), "%v second half end", span)
	}
}

func TestShiftDay_Window_Overnight(t *testing.T) {
	day := date(2026, time.January, 31)

	w := domain.ShiftDay{StartTime: "23:00", EndTime: "07:00", DayStatus: domain.DayFull}.Window(day)
	assert.Equal(t, time.February, w.End.Month())
	assert.Equal(t, 1, w.End.Day())
	assert.Equal(t, 8*time.Hour, w.Duration())

	// Equal start and end is a full 24 hour shift
	w = domain.ShiftDay{StartTime: "08:00", EndTime: "08:00", DayStatus: domain.DayFull}.Window(day)
	assert.Equal(t, 24*time.Hour, w.End.Sub(w.Start))
}

func TestShiftDay_Window_UsesDateLocation(t *testing.T) {
	// 20:00 UTC on March 1 is already March 2 in IST
	instant := time.Date(2026, time.March, 1, 20, 0, 0, 0, time.UTC).In(ist)

	w := domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFull}.Window(instant)
	assert.Equal(t, 2, w.Start.Day())
	assert.Equal(t, ist, w.Start.Location())
}

func TestShiftDay_Validate(t *testing.T) {
	assert.NoError(t, domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFull}.Validate())
	assert.NoError(t, domain.ShiftDay{DayStatus: domain.DayHoliday}.Validate())
	assert.Error(t, domain.ShiftDay{StartTime: "9am", EndTime: "17:00", DayStatus: domain.DayFull}.Validate())
	assert.Error(t, domain.ShiftDay{StartTime: "09:00", EndTime: "25:00", DayStatus: domain.DayFirstHalf}.Validate())
	assert.Error(t, domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: "night"}.Validate())
}

func TestParseClock(t *testing.T) {
	m, err := domain.ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, 465, m)

	_, err = domain.ParseClock("7:45pm")
	assert.Error(t, err)
}

// ============================================================================
// SHIFT COUNT
// ============================================================================

func TestShift_ShiftCount(t *testing.T) {
	shift := &domain.Shift{
		ID:   "shift-1",
		Days: weekSchedule(domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFull}, time.Sunday),
	}

	// April 2026 has 30 days and 4 Sundays
	count := shift.ShiftCount(date(2026, time.April, 1), date(2026, time.April, 30))
	assert.Equal(t, 52, count)
	assert.InDelta(t, 500.0, 26000.0/float64(count), 1e-9)
}

func TestShift_ShiftCount_HalfDays(t *testing.T) {
	days := weekSchedule(domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFull}, time.Sunday)
	days[time.Saturday] = domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFirstHalf}
	shift := &domain.Shift{Days: days}

	// One week: five full days, one half day, one holiday
	assert.Equal(t, 11, shift.ShiftCount(date(2026, time.April, 5), date(2026, time.April, 11)))
	assert.Zero(t, shift.ShiftCount(date(2026, time.April, 11), date(2026, time.April, 10)))
}

func TestShift_UnitMinutes(t *testing.T) {
	shift := &domain.Shift{
		Days: weekSchedule(domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFull}, time.Sunday),
	}
	assert.Equal(t, 240, shift.UnitMinutes())

	half := &domain.Shift{
		Days: weekSchedule(domain.ShiftDay{StartTime: "22:00", EndTime: "06:00", DayStatus: domain.DaySecondHalf}),
	}
	assert.Equal(t, 240, half.UnitMinutes())

	assert.Zero(t, (&domain.Shift{Days: weekSchedule(domain.ShiftDay{DayStatus: domain.DayHoliday})}).UnitMinutes())
}

func TestWindow_Overlap(t *testing.T) {
	day := date(2026, time.March, 2)
	w := domain.Window{Start: clock(day, 9, 0), End: clock(day, 13, 0)}

	assert.Equal(t, 2*time.Hour, w.Overlap(clock(day, 11, 0), clock(day, 18, 0)))
	assert.Equal(t, 4*time.Hour, w.Overlap(clock(day, 8, 0), clock(day, 18, 0)))
	assert.Zero(t, w.Overlap(clock(day, 14, 0), clock(day, 18, 0)))
	assert.Zero(t, w.Overlap(clock(day, 12, 0), clock(day, 10, 0)))
}
