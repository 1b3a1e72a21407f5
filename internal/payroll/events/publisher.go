package events

import (
	"context"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/shiftpay/shiftpay-backend/pkg/messaging"
)

const source = "payroll-service"

// Sink publishes a typed payload. *messaging.Publisher satisfies it.
type Sink interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// PayrollEventPublisher publishes attendance and payroll events.
// Failures are logged and never surface to the caller.
type PayrollEventPublisher struct {
	sink   Sink
	logger *logger.Logger
}

// NewPayrollEventPublisher creates a publisher on the payroll events exchange
func NewPayrollEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*PayrollEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangePayrollEvents, source, log)
	if err != nil {
		return nil, err
	}
	return NewPayrollEventPublisherWithSink(publisher, log), nil
}

// NewPayrollEventPublisherWithSink creates a publisher over an existing sink
func NewPayrollEventPublisherWithSink(sink Sink, log *logger.Logger) *PayrollEventPublisher {
	return &PayrollEventPublisher{sink: sink, logger: log}
}

func (p *PayrollEventPublisher) publish(ctx context.Context, eventType, key string, data interface{}) {
	if p == nil {
		return
	}
	if err := p.sink.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Str("key", key).Msg("failed to publish event")
	}
}

// ClockedIn publishes a clock-in, including a return from break
func (p *PayrollEventPublisher) ClockedIn(ctx context.Context, att *domain.Attendance) {
	data := messaging.ClockInEvent{
		AttendanceID: att.ID,
		EmployeeID:   att.EmployeeID,
		ClockIn:      att.ClockIn,
		LateMinutes:  att.LateIn,
	}
	if att.ClockInReason != nil {
		data.Reason = *att.ClockInReason
	}
	p.publish(ctx, messaging.EventClockIn, att.ID, data)
}

// ClockedOut publishes a closed attendance with its measured minutes
func (p *PayrollEventPublisher) ClockedOut(ctx context.Context, att *domain.Attendance, m domain.Minutes) {
	data := messaging.ClockOutEvent{
		AttendanceID:    att.ID,
		EmployeeID:      att.EmployeeID,
		ClockIn:         att.ClockIn,
		WorkedMinutes:   m.Worked,
		BreakMinutes:    m.Break,
		EarlyOutMinutes: att.EarlyOut,
		OvertimeMinutes: m.Overtime,
	}
	if att.ClockOut != nil {
		data.ClockOut = *att.ClockOut
	}
	if att.ClockOutReason != nil {
		data.Reason = *att.ClockOutReason
	}
	p.publish(ctx, messaging.EventClockOut, att.ID, data)
}

// BreakStarted publishes the break just opened
func (p *PayrollEventPublisher) BreakStarted(ctx context.Context, att *domain.Attendance) {
	p.publishBreak(ctx, messaging.EventBreakStart, att)
}

// BreakEnded publishes the break just closed
func (p *PayrollEventPublisher) BreakEnded(ctx context.Context, att *domain.Attendance) {
	p.publishBreak(ctx, messaging.EventBreakEnd, att)
}

func (p *PayrollEventPublisher) publishBreak(ctx context.Context, eventType string, att *domain.Attendance) {
	if len(att.Breaks) == 0 {
		return
	}
	last := att.Breaks[len(att.Breaks)-1]
	p.publish(ctx, eventType, att.ID, messaging.BreakEvent{
		AttendanceID: att.ID,
		EmployeeID:   att.EmployeeID,
		BreakIn:      last.BreakIn,
		BreakOut:     last.BreakOut,
		Reason:       last.Reason,
	})
}

// PenaltyCreated publishes an automatic penalty
func (p *PayrollEventPublisher) PenaltyCreated(ctx context.Context, penalty *domain.Penalty) {
	p.publish(ctx, messaging.EventPenaltyCreated, penalty.ID, messaging.PenaltyCreatedEvent{
		PenaltyID:  penalty.ID,
		EmployeeID: penalty.EmployeeID,
		Date:       domain.FormatDate(penalty.Date),
		Amount:     penalty.Amount,
		Reason:     penalty.Reason,
	})
}

// PayrollDispatched publishes the outcome of a dispatch
func (p *PayrollEventPublisher) PayrollDispatched(ctx context.Context, period *domain.PayrollPeriod, queued, failed int) {
	p.publish(ctx, messaging.EventPayrollDispatched, period.ID, messaging.PayrollDispatchedEvent{
		PeriodID:    period.ID,
		PeriodStart: domain.FormatDate(period.StartDate),
		PeriodEnd:   domain.FormatDate(period.EndDate),
		YearLabel:   period.YearLabel,
		Queued:      queued,
		Failed:      failed,
	})
}

// SlipGenerated publishes a persisted salary slip
func (p *PayrollEventPublisher) SlipGenerated(ctx context.Context, slip *domain.SalarySlip) {
	p.publish(ctx, messaging.EventSlipGenerated, slip.ID, messaging.SlipGeneratedEvent{
		SlipID:       slip.ID,
		EmployeeID:   slip.EmployeeID,
		PayrollMonth: slip.PayrollMonth,
		Gross:        slip.Gross.StringFixed(2),
	})
}
