package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// PayrollHandler handles payroll runs, slips and reconciliation triggers
type PayrollHandler struct {
	payroll   *service.PayrollService
	scheduler *service.ReconciliationScheduler
	loc       *time.Location
	logger    *logger.Logger
}

// NewPayrollHandler creates a new payroll handler
func NewPayrollHandler(payroll *service.PayrollService, scheduler *service.ReconciliationScheduler, loc *time.Location, log *logger.Logger) *PayrollHandler {
	return &PayrollHandler{
		payroll:   payroll,
		scheduler: scheduler,
		loc:       loc,
		logger:    log,
	}
}

// Dispatch opens a payroll period and queues its jobs
// POST /payroll/dispatch
func (h *PayrollHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	start, err := httputil.ParseDate(req.Start, h.loc)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	end, err := httputil.ParseDate(req.End, h.loc)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.payroll.Dispatch(r.Context(), start, end)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Accepted(w, result)
}

// GetSlip returns a stored salary slip
// GET /payroll/slips/{employeeID}/{month}
func (h *PayrollHandler) GetSlip(w http.ResponseWriter, r *http.Request) {
	slip, err := h.payroll.GetSlip(r.Context(), chi.URLParam(r, "employeeID"), chi.URLParam(r, "month"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, slip)
}

// GetSlipProjection returns the flat key/value rendering of a slip
// GET /payroll/slips/{employeeID}/{month}/projection
func (h *PayrollHandler) GetSlipProjection(w http.ResponseWriter, r *http.Request) {
	slip, err := h.payroll.GetSlip(r.Context(), chi.URLParam(r, "employeeID"), chi.URLParam(r, "month"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, service.SlipProjection(slip))
}

// Reconcile runs a reconciliation cycle immediately
// POST /payroll/reconcile
func (h *PayrollHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.scheduler.RunNow(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
