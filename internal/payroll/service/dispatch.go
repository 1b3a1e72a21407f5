package service

import (
	"context"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
)

// DispatchResult reports a payroll fan-out
type DispatchResult struct {
	Period *domain.PayrollPeriod `json:"period"`
	Queued int                   `json:"queued"`
	Failed int                   `json:"failed"`
	// Reused is set when the period had been dispatched before
	Reused bool `json:"reused"`
}

// Dispatch opens the payroll period [start, end] and queues one job per
// active employee. It returns once the jobs are queued; slips are computed
// by the workers. Dispatching the same period again rebuilds the same jobs.
func (s *PayrollService) Dispatch(ctx context.Context, start, end time.Time) (*DispatchResult, error) {
	start, end = domain.DateIn(start, s.loc), domain.DateIn(end, s.loc)
	if err := ValidatePeriod(start, end); err != nil {
		return nil, err
	}

	period, err := s.stores.Periods.GetByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	result := &DispatchResult{Reused: period != nil}
	if period == nil {
		if period, err = s.openPeriod(ctx, start, end); err != nil {
			return nil, err
		}
	}
	result.Period = period

	employees, err := s.stores.Employees.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	base := s.jobFor(period)
	for _, emp := range employees {
		job := base
		job.EmployeeID = emp.ID
		if err := s.queue.Enqueue(ctx, job); err != nil {
			result.Failed++
			s.logger.Error().Err(err).Str("employee_id", emp.ID).Msg("failed to queue payroll job")
			continue
		}
		result.Queued++
	}

	s.logger.Info().
		Str("period_start", domain.FormatDate(start)).
		Str("period_end", domain.FormatDate(end)).
		Str("year_label", period.YearLabel).
		Bool("reused", result.Reused).
		Int("queued", result.Queued).
		Int("failed", result.Failed).
		Msg("payroll dispatched")
	s.publisher.PayrollDispatched(ctx, period, result.Queued, result.Failed)

	return result, nil
}

// openPeriod settles the pending advance, opens a new one when the period
// ends after the last reconciled date, and records the period marker.
func (s *PayrollService) openPeriod(ctx context.Context, start, end time.Time) (*domain.PayrollPeriod, error) {
	period := &domain.PayrollPeriod{StartDate: start, EndDate: end}

	pending, err := s.stores.Advances.GetPending(ctx)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		from, to := domain.DateIn(pending.StartDate, s.loc), domain.DateIn(pending.EndDate, s.loc)
		period.ReplayStart, period.ReplayEnd = &from, &to
	}

	last, err := s.stores.Records.MostRecentDate(ctx)
	if err != nil {
		return nil, err
	}
	var advance *domain.AdvancePayroll
	if last == nil || domain.DateIn(*last, s.loc).Before(end) {
		from := start
		if last != nil {
			if next := domain.DateIn(*last, s.loc).AddDate(0, 0, 1); next.After(start) {
				from = next
			}
		}
		to := end
		advance = &domain.AdvancePayroll{StartDate: from, EndDate: to, Status: domain.AdvancePending}
		period.AdvanceStart, period.AdvanceEnd = &from, &to
	}

	if period.YearLabel, err = s.yearLabel(ctx, start); err != nil {
		return nil, err
	}

	if err := s.stores.Periods.Open(ctx, period, advance); err != nil {
		return nil, err
	}
	return period, nil
}

// yearLabel keeps filling the newest financial year until it holds twelve periods
func (s *PayrollService) yearLabel(ctx context.Context, start time.Time) (string, error) {
	label, count, err := s.stores.Periods.LatestYear(ctx)
	if err != nil {
		return "", err
	}
	switch {
	case label == "":
		return domain.FinancialYearLabel(start), nil
	case count >= domain.MaxPeriodsPerYear:
		return domain.NextYearLabel(label)
	}
	return label, nil
}

func (s *PayrollService) jobFor(period *domain.PayrollPeriod) domain.PayrollJob {
	job := domain.PayrollJob{
		PeriodStart: domain.FormatDate(domain.DateIn(period.StartDate, s.loc)),
		PeriodEnd:   domain.FormatDate(domain.DateIn(period.EndDate, s.loc)),
	}
	if period.ReplayStart != nil && period.ReplayEnd != nil {
		job.ReplayStart = domain.FormatDate(*period.ReplayStart)
		job.ReplayEnd = domain.FormatDate(*period.ReplayEnd)
	}
	if period.AdvanceStart != nil && period.AdvanceEnd != nil {
		job.AdvanceStart = domain.FormatDate(*period.AdvanceStart)
		job.AdvanceEnd = domain.FormatDate(*period.AdvanceEnd)
	}
	return job
}
