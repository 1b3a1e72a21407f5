package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/formula"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// Period bounds in calendar days
const (
	MinPeriodDays = 29
	MaxPeriodDays = 31
)

// PayrollStores groups the stores the payroll engine reads and writes
type PayrollStores struct {
	Employees EmployeeStore
	Shifts    ShiftStore
	Records   RecordStore
	Templates TemplateStore
	Policies  PolicyStore
	Bonuses   BonusStore
	Penalties PenaltyStore
	Advances  AdvanceStore
	Periods   PeriodStore
	Slips     SlipStore
}

// PayrollConfig holds the payroll engine settings
type PayrollConfig struct {
	Location     *time.Location
	Amortization domain.AmortizationWindow
}

// PayrollService dispatches payroll runs and computes salary slips
type PayrollService struct {
	stores       PayrollStores
	queue        JobQueue
	publisher    EventPublisher
	loc          *time.Location
	amortization domain.AmortizationWindow
	logger       *logger.Logger
}

// NewPayrollService creates a new payroll service
func NewPayrollService(stores PayrollStores, queue JobQueue, publisher EventPublisher, cfg PayrollConfig, log *logger.Logger) *PayrollService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Amortization == "" {
		cfg.Amortization = domain.AmortizeStartMonth
	}
	return &PayrollService{
		stores:       stores,
		queue:        queue,
		publisher:    publisher,
		loc:          cfg.Location,
		amortization: cfg.Amortization,
		logger:       log.WithComponent("payroll"),
	}
}

// ValidatePeriod enforces the 29 to 31 day payroll period
func ValidatePeriod(start, end time.Time) error {
	days := domain.DateRange{From: start, To: end}.Days()
	if days < MinPeriodDays || days > MaxPeriodDays {
		return errors.Validation(map[string]string{
			"period": fmt.Sprintf("payroll period must span %d to %d days, got %d", MinPeriodDays, MaxPeriodDays, days),
		})
	}
	return nil
}

// ShiftCount scores the amortization window of [start, end] for shift
func (s *PayrollService) ShiftCount(shift *domain.Shift, start, end time.Time) int {
	r := s.amortization.Range(start, end)
	return shift.ShiftCount(r.From, r.To)
}

// GetSlip returns the stored slip of an employee for a YYYY-MM month
func (s *PayrollService) GetSlip(ctx context.Context, employeeID, month string) (*domain.SalarySlip, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, errors.Invalid("invalid month format, expected YYYY-MM")
	}
	return s.stores.Slips.Get(ctx, employeeID, month)
}

// shiftRate is the per-shift split of the monthly components for one shift
type shiftRate struct {
	shift        *domain.Shift
	count        int
	perShift     map[string]decimal.Decimal
	perShiftSum  decimal.Decimal
	overtimeRate decimal.Decimal
}

// rateBook computes shift rates lazily; records switching shift id pick up
// a freshly amortized rate from that record on.
type rateBook struct {
	svc      *PayrollService
	monthly  formula.Values
	period   domain.DateRange
	overtime *formula.Expression
	rates    map[string]*shiftRate
}

func (b *rateBook) get(ctx context.Context, shiftID string) (*shiftRate, error) {
	if r, ok := b.rates[shiftID]; ok {
		return r, nil
	}

	shift, err := b.svc.stores.Shifts.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	count := b.svc.ShiftCount(shift, b.period.From, b.period.To)
	if count == 0 {
		return nil, errors.Invalid(fmt.Sprintf("shift %s has no working days to amortize over", shiftID))
	}

	units := decimal.NewFromInt(int64(count))
	r := &shiftRate{shift: shift, count: count, perShift: make(map[string]decimal.Decimal, len(b.monthly))}
	for name, amount := range b.monthly {
		r.perShift[name] = decimal.NewFromFloat(amount).Div(units)
		r.perShiftSum = r.perShiftSum.Add(r.perShift[name])
	}

	if unit := shift.UnitMinutes(); unit > 0 {
		hourly := r.perShiftSum.Mul(minutesPerHour).Div(decimal.NewFromInt(int64(unit)))
		r.overtimeRate = hourly
		if b.overtime != nil {
			rate, err := formula.EvaluateOvertimeRate(b.overtime, hourly.InexactFloat64())
			if err != nil {
				return nil, err
			}
			r.overtimeRate = decimal.NewFromFloat(rate)
		}
	}

	b.rates[shiftID] = r
	return r, nil
}

var minutesPerHour = decimal.NewFromInt(60)

func (r *shiftRate) overtimeWage(minutes int) decimal.Decimal {
	return r.overtimeRate.Mul(decimal.NewFromInt(int64(minutes))).Div(minutesPerHour)
}

// adjustmentRanges are the date spans whose bonuses and penalties land on
// this slip: the period minus its advance tail, plus the replayed tail of
// the previous period. Advance days settle on the next slip.
func adjustmentRanges(w domain.JobWindows) []domain.DateRange {
	var ranges []domain.DateRange
	if w.Replay != nil {
		ranges = append(ranges, *w.Replay)
	}
	own := w.Period
	if w.Advance != nil {
		own.To = domain.Midnight(w.Advance.From).AddDate(0, 0, -1)
	}
	if own.Days() > 0 {
		ranges = append(ranges, own)
	}
	return ranges
}

// ProcessEmployee computes and stores the salary slip of one employee for
// one queued job. Re-running the same job replaces the slip.
func (s *PayrollService) ProcessEmployee(ctx context.Context, job domain.PayrollJob) (*domain.SalarySlip, error) {
	w, err := job.Windows(s.loc)
	if err != nil {
		return nil, errors.Invalid(err.Error())
	}
	if err := ValidatePeriod(w.Period.From, w.Period.To); err != nil {
		return nil, err
	}

	log := s.logger.WithEmployeeID(job.EmployeeID).WithPeriod(job.PeriodStart, job.PeriodEnd)
	st := s.stores

	emp, err := st.Employees.GetByID(ctx, job.EmployeeID)
	if err != nil {
		return nil, err
	}

	// 1. monthly component amounts
	tmpl, err := st.Templates.GetForEmployee(ctx, emp.ID)
	if err != nil {
		return nil, err
	}
	program, err := formula.Compile(tmpl.Components)
	if err != nil {
		return nil, err
	}
	monthly, err := program.Evaluate(emp.BaseSalary)
	if err != nil {
		return nil, err
	}

	book := &rateBook{svc: s, monthly: monthly, period: w.Period, rates: make(map[string]*shiftRate)}
	if tmpl.OvertimeExpression != nil && *tmpl.OvertimeExpression != "" {
		if book.overtime, err = formula.CompileOvertime(*tmpl.OvertimeExpression); err != nil {
			return nil, err
		}
	}

	policy, err := st.Policies.Get(ctx)
	if err != nil {
		return nil, err
	}

	var (
		earnings            = make(map[string]decimal.Decimal, len(monthly))
		advanceEarnings     = make(map[string]decimal.Decimal, len(monthly))
		presentShift        int
		paidLeaveShift      int
		absentShift         int
		advanceShift        int
		advanceCredit       decimal.Decimal
		overtimeMinutes     int
		overtimeWage        decimal.Decimal
		advanceOvertimeWage decimal.Decimal
		advancePenalty      decimal.Decimal
	)
	for name := range monthly {
		earnings[name] = decimal.Zero
	}

	// 3. settle the pending advance window
	if w.Replay != nil {
		records, err := st.Records.ListByEmployeeRange(ctx, emp.ID, w.Replay.From, w.Replay.To)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			rate, err := book.get(ctx, rec.ShiftID)
			if err != nil {
				return nil, err
			}
			advanceOvertimeWage = advanceOvertimeWage.Add(rate.overtimeWage(rec.OvertimeMinutes))

			absent := 0
			for _, o := range rec.Halves() {
				if o == domain.OutcomeAbsent {
					absent++
				}
			}
			if absent == 0 {
				continue
			}
			amount := rate.perShiftSum.Mul(decimal.NewFromInt(int64(absent)))
			penalty := &domain.Penalty{
				EmployeeID: emp.ID,
				Date:       domain.DateIn(rec.Date, s.loc),
				Amount:     amount.InexactFloat64(),
				Reason:     domain.ReasonAdvanceAbsence,
			}
			created, err := st.Penalties.Create(ctx, penalty)
			if err != nil {
				return nil, err
			}
			if created {
				s.publisher.PenaltyCreated(ctx, penalty)
			}
			advancePenalty = advancePenalty.Add(amount)
		}
	}

	// 4. reconciled days of the period, except those paid in advance
	records, err := st.Records.ListByEmployeeRange(ctx, emp.ID, w.Period.From, w.Period.To)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if w.Advance != nil && w.Advance.Contains(domain.DateIn(rec.Date, s.loc)) {
			continue
		}
		rate, err := book.get(ctx, rec.ShiftID)
		if err != nil {
			return nil, err
		}
		for _, o := range rec.Halves() {
			switch o {
			case domain.OutcomePresent:
				presentShift++
			case domain.OutcomePaidLeave:
				paidLeaveShift++
			case domain.OutcomeAbsent:
				absentShift++
				continue
			default:
				continue
			}
			for name, amount := range rate.perShift {
				earnings[name] = earnings[name].Add(amount)
			}
		}
		overtimeMinutes += rec.OvertimeMinutes
		overtimeWage = overtimeWage.Add(rate.overtimeWage(rec.OvertimeMinutes))
	}

	// 5. credit the days paid ahead of reconciliation, per component so
	// the statutory base sees them
	if w.Advance != nil {
		rate, err := book.get(ctx, emp.ShiftID)
		if err != nil {
			return nil, err
		}
		w.Advance.Each(func(day time.Time) {
			units := rate.shift.Day(day).DayStatus.Score()
			advanceShift += units
			n := decimal.NewFromInt(int64(units))
			for name, amount := range rate.perShift {
				share := amount.Mul(n)
				advanceEarnings[name] = advanceEarnings[name].Add(share)
				advanceCredit = advanceCredit.Add(share)
			}
		})
	}

	// 6. adjustments; the engine's own advance absences are counted above
	var bonus, penalty decimal.Decimal
	for _, r := range adjustmentRanges(w) {
		b, err := st.Bonuses.SumByDateRange(ctx, emp.ID, r.From, r.To)
		if err != nil {
			return nil, err
		}
		p, err := st.Penalties.SumByDateRange(ctx, emp.ID, r.From, r.To, domain.ReasonAdvanceAbsence)
		if err != nil {
			return nil, err
		}
		bonus = bonus.Add(decimal.NewFromFloat(b))
		penalty = penalty.Add(decimal.NewFromFloat(p))
	}

	// 7. gross
	statutory := policy.Statutory(
		earnings["basic"].Add(advanceEarnings["basic"]),
		earnings["da"].Add(advanceEarnings["da"]),
	)
	componentTotal := decimal.Zero
	for _, amount := range earnings {
		componentTotal = componentTotal.Add(amount)
	}
	gross := componentTotal.
		Add(advanceCredit).
		Add(overtimeWage).
		Add(advanceOvertimeWage).
		Add(bonus).
		Sub(penalty).
		Sub(advancePenalty).
		Sub(statutory)

	// 8. persist, rounding only here
	slip := &domain.SalarySlip{
		EmployeeID:          emp.ID,
		PayrollMonth:        domain.PayrollMonth(w.Period.From),
		PeriodStart:         w.Period.From,
		PeriodEnd:           w.Period.To,
		Earnings:            make(domain.Earnings, len(earnings)),
		PresentShift:        presentShift,
		PaidLeaveShift:      paidLeaveShift,
		AbsentShift:         absentShift,
		AdvanceShift:        advanceShift,
		AdvanceCredit:       money(advanceCredit),
		OvertimeMinutes:     overtimeMinutes,
		OvertimeWage:        money(overtimeWage),
		AdvanceOvertimeWage: money(advanceOvertimeWage),
		Bonus:               money(bonus),
		Penalty:             money(penalty),
		AdvancePenalty:      money(advancePenalty),
		Statutory:           money(statutory),
		Gross:               money(gross),
	}
	for name, amount := range earnings {
		slip.Earnings[name] = money(amount)
	}

	if err := st.Slips.Replace(ctx, slip); err != nil {
		return nil, err
	}

	log.Info().
		Str("payroll_month", slip.PayrollMonth).
		Int("present_shift", presentShift).
		Int("absent_shift", absentShift).
		Str("gross", slip.Gross.String()).
		Msg("salary slip generated")
	s.publisher.SlipGenerated(ctx, slip)

	return slip, nil
}

func money(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
