package events

import (
	"context"
	"fmt"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/shiftpay/shiftpay-backend/pkg/messaging"
)

// DefaultJobQueue is the durable queue holding per-employee payroll jobs
const DefaultJobQueue = "payroll.jobs"

// JobQueue enqueues payroll jobs on the jobs exchange
type JobQueue struct {
	sink   Sink
	logger *logger.Logger
}

// NewJobQueue declares the jobs exchange and queue so jobs published before
// any worker starts are kept
func NewJobQueue(rmq *messaging.RabbitMQ, queue string, log *logger.Logger) (*JobQueue, error) {
	if queue == "" {
		queue = DefaultJobQueue
	}
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangePayrollJobs, source, log)
	if err != nil {
		return nil, err
	}
	if err := rmq.DeclareDeadLetterQueue(queue); err != nil {
		return nil, err
	}
	if _, err := rmq.DeclareQueue(queue); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := rmq.BindQueue(queue, messaging.ExchangePayrollJobs, messaging.JobPayrollRun); err != nil {
		return nil, fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}
	return NewJobQueueWithSink(publisher, log), nil
}

// NewJobQueueWithSink creates a queue over an existing sink
func NewJobQueueWithSink(sink Sink, log *logger.Logger) *JobQueue {
	return &JobQueue{sink: sink, logger: log}
}

// Enqueue publishes one job. Unlike domain events, failures are returned so
// the dispatcher can count them.
func (q *JobQueue) Enqueue(ctx context.Context, job domain.PayrollJob) error {
	if err := q.sink.Publish(ctx, messaging.JobPayrollRun, job); err != nil {
		return fmt.Errorf("failed to enqueue payroll job for %s: %w", job.EmployeeID, err)
	}
	q.logger.Debug().
		Str("employee_id", job.EmployeeID).
		Str("period_start", job.PeriodStart).
		Msg("payroll job enqueued")
	return nil
}
