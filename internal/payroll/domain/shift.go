package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DayStatus tags a weekday of a shift
type DayStatus string

const (
	DayFull       DayStatus = "full_day"
	DayFirstHalf  DayStatus = "first_half"
	DaySecondHalf DayStatus = "second_half"
	DayHoliday    DayStatus = "holiday"
)

// Valid reports whether s is a known day status
func (s DayStatus) Valid() bool {
	switch s {
	case DayFull, DayFirstHalf, DaySecondHalf, DayHoliday:
		return true
	}
	return false
}

// Score is the number of half-day shift units the status is worth
func (s DayStatus) Score() int {
	switch s {
	case DayFull:
		return 2
	case DayFirstHalf, DaySecondHalf:
		return 1
	}
	return 0
}

// ShiftDay is the schedule of one weekday
type ShiftDay struct {
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	DayStatus DayStatus `json:"day_status"`
}

// WeekSchedule is indexed by time.Weekday (Sunday first)
type WeekSchedule [7]ShiftDay

// Value implements driver.Valuer for JSONB storage
func (w WeekSchedule) Value() (driver.Value, error) {
	return json.Marshal(w)
}

// Scan implements sql.Scanner for JSONB storage
func (w *WeekSchedule) Scan(src interface{}) error {
	return scanJSON(src, w)
}

// Shift is a named weekly schedule
type Shift struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Days      WeekSchedule `db:"days" json:"days"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// Day returns the schedule for the weekday of date
func (s *Shift) Day(date time.Time) ShiftDay {
	return s.Days[date.Weekday()]
}

// Window returns the resolved window of the shift on date
func (s *Shift) Window(date time.Time) Window {
	return s.Day(date).Window(date)
}

// UnitMinutes is the length of one half-day unit, taken from the first
// working weekday. Zero for a shift without working days.
func (s *Shift) UnitMinutes() int {
	ref := time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC) // a Sunday
	for i, d := range s.Days {
		switch d.DayStatus {
		case DayFull:
			return d.Window(ref.AddDate(0, 0, i)).Minutes() / 2
		case DayFirstHalf, DaySecondHalf:
			return d.Window(ref.AddDate(0, 0, i)).Minutes()
		}
	}
	return 0
}

// ShiftCount sums the unit score of every calendar day in [from, to]
func (s *Shift) ShiftCount(from, to time.Time) int {
	count := 0
	for d := Midnight(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		count += s.Day(d).DayStatus.Score()
	}
	return count
}

// Window is a resolved span of absolute instants
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration is the window length, never negative
func (w Window) Duration() time.Duration {
	if w.End.Before(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start)
}

// Minutes is the floored window length
func (w Window) Minutes() int {
	return FloorMinutes(w.Duration())
}

// Midpoint is the instant halfway through the window
func (w Window) Midpoint() time.Time {
	return w.Start.Add(w.Duration() / 2)
}

// Split cuts the window at its midpoint
func (w Window) Split() (first, second Window) {
	mid := w.Midpoint()
	return Window{Start: w.Start, End: mid}, Window{Start: mid, End: w.End}
}

// Contains reports whether t lies within [Start, End)
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Overlap is the part of [start, end] that falls inside the window
func (w Window) Overlap(start, end time.Time) time.Duration {
	if start.Before(w.Start) {
		start = w.Start
	}
	if end.After(w.End) {
		end = w.End
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// Window resolves the day against the calendar date of date (in date's location).
//
// Half days are cut at the midpoint of the full span. A span whose end is not
// after its start crosses midnight, so halves falling past midnight land on the
// following calendar day. Holidays resolve to an empty window at midnight.
// Start and end strings must be valid HH:MM.
func (d ShiftDay) Window(date time.Time) Window {
	day := Midnight(date)
	if d.DayStatus == DayHoliday {
		return Window{Start: day, End: day}
	}

	start := clockOffset(d.StartTime)
	end := clockOffset(d.EndTime)
	if end <= start {
		end += minutesPerDay
	}
	mid := start + (end-start)/2

	switch d.DayStatus {
	case DayFirstHalf:
		end = mid
	case DaySecondHalf:
		start = mid
	}

	// offsets past 1440 normalise into the next day
	return Window{Start: at(day, start), End: at(day, end)}
}

// Minutes is the scheduled length of the day on date
func (d ShiftDay) Minutes(date time.Time) int {
	return d.Window(date).Minutes()
}

// Validate checks the day definition
func (d ShiftDay) Validate() error {
	if !d.DayStatus.Valid() {
		return fmt.Errorf("invalid day status %q", d.DayStatus)
	}
	if d.DayStatus == DayHoliday {
		return nil
	}
	if _, err := ParseClock(d.StartTime); err != nil {
		return err
	}
	if _, err := ParseClock(d.EndTime); err != nil {
		return err
	}
	return nil
}

const minutesPerDay = 24 * 60

// ParseClock parses an HH:MM time of day into minutes after midnight
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func clockOffset(s string) int {
	m, _ := ParseClock(s)
	return m
}

func at(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, 0, 0, day.Location())
}

// Midnight truncates t to the start of its calendar day in t's location
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateIn reinterprets the calendar date of t as midnight in loc.
// DATE columns scan as UTC midnight; this keeps their day intact.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FloorMinutes floors d to whole minutes; negative spans count as zero
func FloorMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON source type %T", src)
	}
}
