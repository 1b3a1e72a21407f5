package consumers

import (
	"context"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/events"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/shiftpay/shiftpay-backend/pkg/messaging"
)

// SlipProcessor computes the salary slip of one payroll job
type SlipProcessor interface {
	ProcessEmployee(ctx context.Context, job domain.PayrollJob) (*domain.SalarySlip, error)
}

// PayrollJobConsumer runs queued payroll jobs. Jobs failing with a
// retryable error are redelivered and end up in the dead letter queue
// once the delivery budget is spent.
type PayrollJobConsumer struct {
	consumer  *messaging.Consumer
	processor SlipProcessor
	logger    *logger.Logger
}

// NewPayrollJobConsumer creates a consumer on the payroll job queue
func NewPayrollJobConsumer(rmq *messaging.RabbitMQ, queue string, processor SlipProcessor, maxDeliveries int, log *logger.Logger) (*PayrollJobConsumer, error) {
	if queue == "" {
		queue = events.DefaultJobQueue
	}
	consumer, err := messaging.NewConsumer(rmq, queue, log)
	if err != nil {
		return nil, err
	}
	consumer.SetMaxDeliveries(maxDeliveries)

	if err := consumer.Subscribe(messaging.ExchangePayrollJobs, messaging.JobPayrollRun); err != nil {
		return nil, err
	}

	c := &PayrollJobConsumer{
		consumer:  consumer,
		processor: processor,
		logger:    log,
	}
	consumer.RegisterHandler(messaging.JobPayrollRun, c.handleJob)

	return c, nil
}

// Start starts consuming jobs
func (c *PayrollJobConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *PayrollJobConsumer) handleJob(ctx context.Context, event *messaging.Event) error {
	var job domain.PayrollJob
	if err := event.UnmarshalData(&job); err != nil {
		return errors.Invalid("malformed payroll job: " + err.Error())
	}

	log := c.logger.
		WithEmployeeID(job.EmployeeID).
		WithPeriod(job.PeriodStart, job.PeriodEnd).
		WithCorrelationID(event.CorrelationID)
	log.Info().Msg("received payroll job")

	slip, err := c.processor.ProcessEmployee(ctx, job)
	if err != nil {
		log.Error().Err(err).Bool("retryable", errors.IsRetryable(err)).Msg("payroll job failed")
		return err
	}

	log.Info().
		Str("payroll_month", slip.PayrollMonth).
		Str("gross", slip.Gross.StringFixed(2)).
		Msg("payroll job completed")
	return nil
}
