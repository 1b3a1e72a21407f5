package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// Handlers groups the HTTP handlers of the payroll service
type Handlers struct {
	Attendance  *AttendanceHandler
	Payroll     *PayrollHandler
	Templates   *TemplateHandler
	Leaves      *LeaveHandler
	Adjustments *AdjustmentHandler
	Shifts      *ShiftHandler
	Employees   *EmployeeHandler
	Policy      *PolicyHandler
	Health      http.HandlerFunc
}

// NewRouter mounts every payroll route under /api/v1/payroll
func NewRouter(h Handlers, allowedOrigins []string, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	if h.Health != nil {
		r.Get("/health", h.Health)
	}

	r.Route("/api/v1/payroll", func(r chi.Router) {
		r.Route("/attendance/{employeeID}", func(r chi.Router) {
			r.Post("/clock-in", h.Attendance.ClockIn)
			r.Post("/break", h.Attendance.StartBreak)
			r.Post("/clock-out", h.Attendance.ClockOut)
			r.Post("/resolve", h.Attendance.Resolve)
			r.Get("/status", h.Attendance.Status)
			r.Get("/sheet", h.Attendance.Sheet)
		})

		r.Post("/dispatch", h.Payroll.Dispatch)
		r.Post("/reconcile", h.Payroll.Reconcile)
		r.Get("/slips/{employeeID}/{month}", h.Payroll.GetSlip)
		r.Get("/slips/{employeeID}/{month}/projection", h.Payroll.GetSlipProjection)

		r.Route("/templates", func(r chi.Router) {
			r.Post("/", h.Templates.Create)
			r.Post("/validate", h.Templates.Validate)
			r.Get("/{id}", h.Templates.Get)
			r.Put("/{id}", h.Templates.Update)
		})

		r.Post("/leaves", h.Leaves.Create)
		r.Put("/leaves/{id}/status", h.Leaves.UpdateStatus)

		r.Post("/bonuses", h.Adjustments.AddBonus)
		r.Post("/penalties", h.Adjustments.AddPenalty)

		r.Post("/shifts", h.Shifts.Create)
		r.Get("/shifts/{id}", h.Shifts.Get)

		r.Post("/employees", h.Employees.Sync)
		r.Get("/employees/{id}", h.Employees.Get)

		r.Get("/policy", h.Policy.Get)
		r.Put("/policy", h.Policy.Update)
	})

	return r
}
