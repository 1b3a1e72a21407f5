package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/consumers"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/events"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/repository"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/config"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/shiftpay/shiftpay-backend/pkg/messaging"
)

// payroll-worker computes salary slips from the per-employee jobs
// enqueued by a payroll dispatch.
func main() {
	cfg, err := config.LoadWithValidation("payroll-worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("payroll-worker", cfg.Server.Environment)
	log.Info().Int("max_deliveries", cfg.RabbitMQ.MaxDeliveries).Msg("starting Payroll Worker")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := events.NewPayrollEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// The worker never dispatches, so it gets no job queue.
	payroll := service.NewPayrollService(repository.New(db).PayrollStores(), nil, publisher, service.PayrollConfig{
		Location:     cfg.Payroll.Location(),
		Amortization: domain.AmortizationWindow(cfg.Payroll.AmortizationWindow),
	}, log)

	consumer, err := consumers.NewPayrollJobConsumer(rmq, cfg.RabbitMQ.PayrollQueue, payroll, cfg.RabbitMQ.MaxDeliveries, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create payroll job consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start payroll job consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Let in-flight jobs settle before the deferred closes run
	time.Sleep(2 * time.Second)
	log.Info().Msg("worker stopped")
}
