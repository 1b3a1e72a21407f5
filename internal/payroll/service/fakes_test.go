package service_test

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

// ============================================================================
// Calendar helpers
// ============================================================================

var ist = time.FixedZone("IST", 5*3600+1800)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, ist)
}

func at(day time.Time, h, m int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, ist)
}

func sameDay(a, b time.Time) bool {
	return domain.FormatDate(a) == domain.FormatDate(b)
}

func inRange(t, from, to time.Time) bool {
	return domain.DateRange{From: from, To: to}.Contains(t)
}

// officeShift is 09:00-17:00 Monday to Saturday with Sunday off
func officeShift(id string) *domain.Shift {
	s := &domain.Shift{ID: id, Name: "office"}
	for i := range s.Days {
		s.Days[i] = domain.ShiftDay{StartTime: "09:00", EndTime: "17:00", DayStatus: domain.DayFull}
	}
	s.Days[time.Sunday] = domain.ShiftDay{DayStatus: domain.DayHoliday}
	return s
}

func strPtr(s string) *string { return &s }

// ============================================================================
// Stores
// ============================================================================

type fakeEmployees struct {
	m map[string]*domain.Employee
}

func newFakeEmployees(emps ...*domain.Employee) *fakeEmployees {
	f := &fakeEmployees{m: make(map[string]*domain.Employee)}
	for _, e := range emps {
		f.m[e.ID] = e
	}
	return f
}

func (f *fakeEmployees) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	e, ok := f.m[id]
	if !ok {
		return nil, errors.NotFound("employee")
	}
	c := *e
	return &c, nil
}

func (f *fakeEmployees) Create(_ context.Context, emp *domain.Employee) error {
	if _, ok := f.m[emp.ID]; ok {
		return errors.Conflict("employee already exists")
	}
	c := *emp
	f.m[emp.ID] = &c
	return nil
}

func (f *fakeEmployees) list(keep func(*domain.Employee) bool) []*domain.Employee {
	var out []*domain.Employee
	for _, e := range f.m {
		if keep(e) {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeEmployees) ListActive(_ context.Context) ([]*domain.Employee, error) {
	return f.list(func(e *domain.Employee) bool { return e.Active }), nil
}

func (f *fakeEmployees) ListByTemplate(_ context.Context, templateID string) ([]*domain.Employee, error) {
	return f.list(func(e *domain.Employee) bool {
		return e.TemplateID != nil && *e.TemplateID == templateID
	}), nil
}

type fakeShifts struct {
	m map[string]*domain.Shift
}

func newFakeShifts(shifts ...*domain.Shift) *fakeShifts {
	f := &fakeShifts{m: make(map[string]*domain.Shift)}
	for _, s := range shifts {
		f.m[s.ID] = s
	}
	return f
}

func (f *fakeShifts) GetByID(_ context.Context, id string) (*domain.Shift, error) {
	s, ok := f.m[id]
	if !ok {
		return nil, errors.NotFound("shift")
	}
	c := *s
	return &c, nil
}

func (f *fakeShifts) Create(_ context.Context, shift *domain.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.New().String()
	}
	c := *shift
	f.m[shift.ID] = &c
	return nil
}

type fakeAttendance struct {
	items []*domain.Attendance
}

func copyAttendance(a *domain.Attendance) *domain.Attendance {
	c := *a
	c.Breaks = append(domain.Breaks{}, a.Breaks...)
	return &c
}

func (f *fakeAttendance) GetOpen(_ context.Context, employeeID string) (*domain.Attendance, error) {
	for _, a := range f.items {
		if a.EmployeeID == employeeID && a.ClockOut == nil {
			return copyAttendance(a), nil
		}
	}
	return nil, nil
}

func (f *fakeAttendance) GetByDate(_ context.Context, employeeID string, d time.Time) (*domain.Attendance, error) {
	for _, a := range f.items {
		if a.EmployeeID == employeeID && sameDay(a.Date, d) {
			return copyAttendance(a), nil
		}
	}
	return nil, nil
}

func (f *fakeAttendance) ListByRange(_ context.Context, employeeID string, from, to time.Time) ([]*domain.Attendance, error) {
	var out []*domain.Attendance
	for _, a := range f.items {
		if a.EmployeeID == employeeID && inRange(a.Date, from, to) {
			out = append(out, copyAttendance(a))
		}
	}
	return out, nil
}

func (f *fakeAttendance) Create(_ context.Context, att *domain.Attendance) error {
	for _, a := range f.items {
		if a.EmployeeID == att.EmployeeID && sameDay(a.Date, att.Date) {
			return errors.Conflict("attendance already exists for the day")
		}
	}
	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	f.items = append(f.items, copyAttendance(att))
	return nil
}

func (f *fakeAttendance) replace(att *domain.Attendance) error {
	for i, a := range f.items {
		if a.ID == att.ID {
			f.items[i] = copyAttendance(att)
			return nil
		}
	}
	return errors.NotFound("attendance")
}

func (f *fakeAttendance) UpdateBreaks(_ context.Context, att *domain.Attendance) error {
	return f.replace(att)
}

func (f *fakeAttendance) UpdateClockOut(_ context.Context, att *domain.Attendance) error {
	return f.replace(att)
}

type fakeRecords struct {
	items   []*domain.AttendanceRecord
	failFor map[string]bool
}

func (f *fakeRecords) MostRecentDate(_ context.Context) (*time.Time, error) {
	var last *time.Time
	for _, r := range f.items {
		if last == nil || r.Date.After(*last) {
			d := r.Date
			last = &d
		}
	}
	return last, nil
}

func (f *fakeRecords) LastDates(_ context.Context) (map[string]time.Time, error) {
	dates := make(map[string]time.Time)
	for _, r := range f.items {
		if last, ok := dates[r.EmployeeID]; !ok || r.Date.After(last) {
			dates[r.EmployeeID] = r.Date
		}
	}
	return dates, nil
}

func (f *fakeRecords) Insert(_ context.Context, rec *domain.AttendanceRecord) (bool, error) {
	if f.failFor[rec.EmployeeID] {
		return false, fmt.Errorf("insert failed")
	}
	for _, r := range f.items {
		if r.EmployeeID == rec.EmployeeID && sameDay(r.Date, rec.Date) {
			return false, nil
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	c := *rec
	f.items = append(f.items, &c)
	return true, nil
}

func (f *fakeRecords) ListByEmployeeRange(_ context.Context, employeeID string, from, to time.Time) ([]*domain.AttendanceRecord, error) {
	var out []*domain.AttendanceRecord
	for _, r := range f.items {
		if r.EmployeeID == employeeID && inRange(r.Date, from, to) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeRecords) get(employeeID string, d time.Time) *domain.AttendanceRecord {
	for _, r := range f.items {
		if r.EmployeeID == employeeID && sameDay(r.Date, d) {
			return r
		}
	}
	return nil
}

type fakeLeaves struct {
	items []*domain.Leave
}

func (f *fakeLeaves) GetApproved(_ context.Context, employeeID string, d time.Time) (*domain.Leave, error) {
	for _, l := range f.items {
		if l.EmployeeID == employeeID && l.Status == domain.LeaveApproved && sameDay(l.Date, d) {
			c := *l
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeLeaves) GetByID(_ context.Context, id string) (*domain.Leave, error) {
	for _, l := range f.items {
		if l.ID == id {
			c := *l
			return &c, nil
		}
	}
	return nil, errors.NotFound("leave")
}

func (f *fakeLeaves) Create(_ context.Context, leave *domain.Leave) error {
	if leave.ID == "" {
		leave.ID = uuid.New().String()
	}
	c := *leave
	f.items = append(f.items, &c)
	return nil
}

func (f *fakeLeaves) UpdateStatus(_ context.Context, id string, status domain.LeaveStatus) error {
	for _, l := range f.items {
		if l.ID == id {
			l.Status = status
			return nil
		}
	}
	return errors.NotFound("leave")
}

type fakeTemplates struct {
	byID       map[string]*domain.SalaryTemplate
	byEmployee map[string]string
	saved      int
}

func newFakeTemplates() *fakeTemplates {
	return &fakeTemplates{
		byID:       make(map[string]*domain.SalaryTemplate),
		byEmployee: make(map[string]string),
	}
}

func (f *fakeTemplates) assign(employeeID string, tmpl *domain.SalaryTemplate) {
	f.byID[tmpl.ID] = tmpl
	f.byEmployee[employeeID] = tmpl.ID
}

func (f *fakeTemplates) GetForEmployee(ctx context.Context, employeeID string) (*domain.SalaryTemplate, error) {
	id, ok := f.byEmployee[employeeID]
	if !ok {
		return nil, errors.NotFound("salary template")
	}
	return f.GetByID(ctx, id)
}

func (f *fakeTemplates) GetByID(_ context.Context, id string) (*domain.SalaryTemplate, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, errors.NotFound("salary template")
	}
	c := *t
	return &c, nil
}

func (f *fakeTemplates) Save(_ context.Context, tmpl *domain.SalaryTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	c := *tmpl
	f.byID[tmpl.ID] = &c
	f.saved++
	return nil
}

type fakePolicies struct {
	policy *domain.Policy
	err    error
}

func (f *fakePolicies) Get(_ context.Context) (*domain.Policy, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.policy == nil {
		return &domain.Policy{}, nil
	}
	c := *f.policy
	return &c, nil
}

type fakeBonuses struct {
	items []*domain.Bonus
}

func (f *fakeBonuses) Create(_ context.Context, bonus *domain.Bonus) error {
	if bonus.ID == "" {
		bonus.ID = uuid.New().String()
	}
	c := *bonus
	f.items = append(f.items, &c)
	return nil
}

func (f *fakeBonuses) SumByDateRange(_ context.Context, employeeID string, from, to time.Time) (float64, error) {
	var sum float64
	for _, b := range f.items {
		if b.EmployeeID == employeeID && inRange(b.Date, from, to) {
			sum += b.Amount
		}
	}
	return sum, nil
}

type fakePenalties struct {
	items []*domain.Penalty
}

func (f *fakePenalties) Create(_ context.Context, penalty *domain.Penalty) (bool, error) {
	for _, p := range f.items {
		if p.EmployeeID == penalty.EmployeeID && p.Reason == penalty.Reason && sameDay(p.Date, penalty.Date) {
			return false, nil
		}
	}
	if penalty.ID == "" {
		penalty.ID = uuid.New().String()
	}
	c := *penalty
	f.items = append(f.items, &c)
	return true, nil
}

func (f *fakePenalties) SumByDateRange(_ context.Context, employeeID string, from, to time.Time, except ...string) (float64, error) {
	var sum float64
	for _, p := range f.items {
		if p.EmployeeID == employeeID && inRange(p.Date, from, to) && !slices.Contains(except, p.Reason) {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (f *fakePenalties) byReason(reason string) []*domain.Penalty {
	var out []*domain.Penalty
	for _, p := range f.items {
		if p.Reason == reason {
			out = append(out, p)
		}
	}
	return out
}

type fakeAdvances struct {
	items []*domain.AdvancePayroll
}

func (f *fakeAdvances) GetPending(_ context.Context) (*domain.AdvancePayroll, error) {
	for _, a := range f.items {
		if a.Status == domain.AdvancePending {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

type fakePeriods struct {
	items    []*domain.PayrollPeriod
	advances *fakeAdvances
}

func (f *fakePeriods) MostRecentEndDate(_ context.Context) (*time.Time, error) {
	var last *time.Time
	for _, p := range f.items {
		if last == nil || p.EndDate.After(*last) {
			d := p.EndDate
			last = &d
		}
	}
	return last, nil
}

func (f *fakePeriods) GetByRange(_ context.Context, start, end time.Time) (*domain.PayrollPeriod, error) {
	for _, p := range f.items {
		if sameDay(p.StartDate, start) && sameDay(p.EndDate, end) {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakePeriods) LatestYear(_ context.Context) (string, int, error) {
	if len(f.items) == 0 {
		return "", 0, nil
	}
	label := f.items[len(f.items)-1].YearLabel
	count := 0
	for _, p := range f.items {
		if p.YearLabel == label {
			count++
		}
	}
	return label, count, nil
}

func (f *fakePeriods) Open(_ context.Context, period *domain.PayrollPeriod, advance *domain.AdvancePayroll) error {
	for _, a := range f.advances.items {
		if a.Status == domain.AdvancePending {
			a.Status = domain.AdvanceResolved
		}
	}
	if advance != nil {
		if advance.ID == "" {
			advance.ID = uuid.New().String()
		}
		c := *advance
		f.advances.items = append(f.advances.items, &c)
	}
	if period.ID == "" {
		period.ID = uuid.New().String()
	}
	c := *period
	f.items = append(f.items, &c)
	return nil
}

type fakeSlips struct {
	m map[string]*domain.SalarySlip
}

func (f *fakeSlips) Replace(_ context.Context, slip *domain.SalarySlip) error {
	if f.m == nil {
		f.m = make(map[string]*domain.SalarySlip)
	}
	if slip.ID == "" {
		slip.ID = uuid.New().String()
	}
	c := *slip
	f.m[slip.EmployeeID+"|"+slip.PayrollMonth] = &c
	return nil
}

func (f *fakeSlips) Get(_ context.Context, employeeID, month string) (*domain.SalarySlip, error) {
	s, ok := f.m[employeeID+"|"+month]
	if !ok {
		return nil, errors.NotFound("salary slip")
	}
	c := *s
	return &c, nil
}

// ============================================================================
// Queue and events
// ============================================================================

type fakeQueue struct {
	jobs    []domain.PayrollJob
	failFor map[string]bool
}

func (q *fakeQueue) Enqueue(_ context.Context, job domain.PayrollJob) error {
	if q.failFor[job.EmployeeID] {
		return fmt.Errorf("broker unavailable")
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) record(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
}

func (p *recordingPublisher) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == name {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) ClockedIn(context.Context, *domain.Attendance) { p.record("clocked_in") }
func (p *recordingPublisher) ClockedOut(context.Context, *domain.Attendance, domain.Minutes) {
	p.record("clocked_out")
}
func (p *recordingPublisher) BreakStarted(context.Context, *domain.Attendance) {
	p.record("break_started")
}
func (p *recordingPublisher) BreakEnded(context.Context, *domain.Attendance) { p.record("break_ended") }
func (p *recordingPublisher) PenaltyCreated(context.Context, *domain.Penalty) {
	p.record("penalty_created")
}
func (p *recordingPublisher) PayrollDispatched(context.Context, *domain.PayrollPeriod, int, int) {
	p.record("payroll_dispatched")
}
func (p *recordingPublisher) SlipGenerated(context.Context, *domain.SalarySlip) {
	p.record("slip_generated")
}

var _ service.EventPublisher = (*recordingPublisher)(nil)
