package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// LeaveHandler handles leave requests and their approval
type LeaveHandler struct {
	leaves *service.LeaveService
	loc    *time.Location
	logger *logger.Logger
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(leaves *service.LeaveService, loc *time.Location, log *logger.Logger) *LeaveHandler {
	return &LeaveHandler{leaves: leaves, loc: loc, logger: log}
}

// Create submits a leave
// POST /leaves
func (h *LeaveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	date, err := httputil.ParseDate(req.Date, h.loc)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	leave := &domain.Leave{
		EmployeeID: req.EmployeeID,
		Date:       date,
		DayStatus:  domain.DayStatus(req.DayStatus),
		Category:   req.Category,
		Fraction:   req.Fraction,
	}
	if err := h.leaves.Create(r.Context(), leave); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, leave)
}

// UpdateStatus approves or rejects a pending leave
// PUT /leaves/{id}/status
func (h *LeaveHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req LeaveStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	leave, err := h.leaves.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.LeaveStatus(req.Status))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, leave)
}
