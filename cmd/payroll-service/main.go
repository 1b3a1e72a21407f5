package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/consumers"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/events"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/handler"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/repository"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/migrations"
	"github.com/shiftpay/shiftpay-backend/pkg/config"
	"github.com/shiftpay/shiftpay-backend/pkg/database"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
	"github.com/shiftpay/shiftpay-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("payroll-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("payroll-service", cfg.Server.Environment)
	log.Info().Str("timezone", cfg.Payroll.Timezone).Msg("starting Payroll Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(context.Background(), migrations.FS); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := events.NewPayrollEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}
	queue, err := events.NewJobQueue(rmq, cfg.RabbitMQ.PayrollQueue, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create payroll job queue")
	}

	loc := cfg.Payroll.Location()
	repos := repository.New(db)

	// Services
	tracker := service.NewTracker(repos.Employees, repos.Shifts, repos.Attendance, repos.Policies, repos.Penalties,
		publisher, service.TrackerConfig{
			Location:      loc,
			LateThreshold: time.Duration(cfg.Payroll.LateThresholdMinutes) * time.Minute,
		}, log)
	reconciler := service.NewReconciler(repos.Employees, repos.Shifts, repos.Attendance, repos.Records, repos.Leaves, loc, log)
	payroll := service.NewPayrollService(repos.PayrollStores(), queue, publisher, service.PayrollConfig{
		Location:     loc,
		Amortization: domain.AmortizationWindow(cfg.Payroll.AmortizationWindow),
	}, log)
	scheduler := service.NewReconciliationScheduler(reconciler, cfg.Payroll.ReconcileInterval, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start(ctx, cfg.Payroll.ReconcileOnStart)
	defer scheduler.Stop()

	if cfg.Payroll.EmbeddedWorker {
		worker, err := consumers.NewPayrollJobConsumer(rmq, cfg.RabbitMQ.PayrollQueue, payroll, cfg.RabbitMQ.MaxDeliveries, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create payroll job consumer")
		}
		if err := worker.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start payroll job consumer")
		}
	}

	// Handlers
	h := handler.Handlers{
		Attendance: handler.NewAttendanceHandler(tracker,
			service.NewProjectionService(repos.Employees, repos.Records, repos.Attendance, loc), loc, log),
		Payroll:     handler.NewPayrollHandler(payroll, scheduler, loc, log),
		Templates:   handler.NewTemplateHandler(service.NewTemplateService(repos.Templates, repos.Employees, log), log),
		Leaves:      handler.NewLeaveHandler(service.NewLeaveService(repos.Leaves, repos.Employees, loc, log), loc, log),
		Adjustments: handler.NewAdjustmentHandler(service.NewAdjustmentService(repos.Bonuses, repos.Penalties, repos.Employees, publisher, loc, log), loc, log),
		Shifts:      handler.NewShiftHandler(service.NewShiftService(repos.Shifts, log), log),
		Employees:   handler.NewEmployeeHandler(service.NewEmployeeService(repos.Employees, repos.Templates, log), loc, log),
		Policy:      handler.NewPolicyHandler(repos.Policies, log),
		Health: func(w http.ResponseWriter, r *http.Request) {
			httputil.JSON(w, http.StatusOK, map[string]interface{}{
				"status":   "healthy",
				"service":  "payroll-service",
				"database": db.Health(r.Context()),
				"rabbitmq": rmq.Health(),
			})
		},
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, cfg.Server.AllowedOrigins, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the scheduler and the embedded worker before draining requests
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
