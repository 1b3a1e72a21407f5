package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// RetryHeader counts redeliveries performed by the consumer
const RetryHeader = "x-retry-count"

const defaultMaxDeliveries = 3

// MessageHandler is a function that handles a message
type MessageHandler func(ctx context.Context, event *Event) error

// Consumer handles consuming events from RabbitMQ
type Consumer struct {
	rmq           *RabbitMQ
	queueName     string
	handlers      map[string]MessageHandler
	maxDeliveries int
	logger        *logger.Logger

	// republish puts a failed message back on the queue with its retry count
	republish func(ctx context.Context, msg amqp.Delivery, retries int) error
}

// NewConsumer creates a new consumer for the given queue, together with its dead letter queue
func NewConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) (*Consumer, error) {
	if err := rmq.DeclareDeadLetterQueue(queueName); err != nil {
		return nil, err
	}

	if _, err := rmq.DeclareQueue(queueName); err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	c := &Consumer{
		rmq:           rmq,
		queueName:     queueName,
		handlers:      make(map[string]MessageHandler),
		maxDeliveries: defaultMaxDeliveries,
		logger:        log,
	}
	c.republish = c.requeueWithCount
	return c, nil
}

// SetMaxDeliveries bounds how many times a message is attempted before dead-lettering
func (c *Consumer) SetMaxDeliveries(n int) {
	if n > 0 {
		c.maxDeliveries = n
	}
}

// Subscribe subscribes to an exchange with a routing key pattern
func (c *Consumer) Subscribe(exchange, routingKeyPattern string) error {
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := c.rmq.BindQueue(c.queueName, exchange, routingKeyPattern); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.logger.Info().
		Str("queue", c.queueName).
		Str("exchange", exchange).
		Str("routing_key", routingKeyPattern).
		Msg("subscribed to exchange")

	return nil
}

// RegisterHandler registers a handler for a specific event type
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
}

// Start starts consuming messages from the queue
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.rmq.Channel().Consume(
		c.queueName, // queue
		"",          // consumer tag (auto-generated)
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info().Str("queue", c.queueName).Msg("consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Str("queue", c.queueName).Msg("consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn().Msg("message channel closed")
					return
				}
				c.handleMessage(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error().Err(err).Msg("failed to unmarshal event")
		msg.Reject(false)
		return
	}

	ctx = WithCorrelationID(ctx, event.CorrelationID)

	handler, ok := c.handlers[event.Type]
	if !ok {
		c.logger.Debug().
			Str("event_type", event.Type).
			Msg("no handler registered for event type")
		msg.Ack(false)
		return
	}

	retries := retryCount(msg)

	c.logger.Debug().
		Str("event_type", event.Type).
		Str("event_id", event.ID).
		Int("retry_count", retries).
		Msg("processing event")

	err := handler(ctx, &event)
	if err == nil {
		msg.Ack(false)
		return
	}

	log := c.logger.Error().
		Err(err).
		Str("event_type", event.Type).
		Str("event_id", event.ID).
		Int("retry_count", retries)

	if !errors.IsRetryable(err) {
		log.Msg("permanent failure, sending to DLQ")
		msg.Reject(false)
		return
	}

	if retries+1 >= c.maxDeliveries {
		log.Msg("max retries exceeded, sending to DLQ")
		msg.Reject(false)
		return
	}

	log.Msg("failed to process event, retrying")
	if err := c.republish(ctx, msg, retries+1); err != nil {
		c.logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to republish, requeueing")
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

func (c *Consumer) requeueWithCount(ctx context.Context, msg amqp.Delivery, retries int) error {
	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[RetryHeader] = int32(retries)

	return c.rmq.Channel().PublishWithContext(ctx,
		"",          // default exchange routes by queue name
		c.queueName, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:   msg.ContentType,
			DeliveryMode:  amqp.Persistent,
			MessageId:     msg.MessageId,
			CorrelationId: msg.CorrelationId,
			Headers:       headers,
			Body:          msg.Body,
		},
	)
}

func retryCount(msg amqp.Delivery) int {
	if msg.Headers == nil {
		return 0
	}

	switch v := msg.Headers[RetryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}

	if deaths, ok := msg.Headers["x-death"].([]interface{}); ok {
		for _, death := range deaths {
			if d, ok := death.(amqp.Table); ok {
				if count, ok := d["count"].(int64); ok {
					return int(count)
				}
			}
		}
	}

	return 0
}
