package handler

import (
	"net/http"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/internal/payroll/service"
	"github.com/shiftpay/shiftpay-backend/pkg/httputil"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// AdjustmentHandler records bonuses and manual penalties
type AdjustmentHandler struct {
	adjustments *service.AdjustmentService
	loc         *time.Location
	logger      *logger.Logger
}

// NewAdjustmentHandler creates a new adjustment handler
func NewAdjustmentHandler(adjustments *service.AdjustmentService, loc *time.Location, log *logger.Logger) *AdjustmentHandler {
	return &AdjustmentHandler{adjustments: adjustments, loc: loc, logger: log}
}

func (h *AdjustmentHandler) decode(r *http.Request) (*AdjustmentRequest, time.Time, error) {
	var req AdjustmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return nil, time.Time{}, err
	}
	if err := httputil.Validate(&req); err != nil {
		return nil, time.Time{}, err
	}
	date, err := httputil.ParseDate(req.Date, h.loc)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &req, date, nil
}

// AddBonus records a bonus
// POST /bonuses
func (h *AdjustmentHandler) AddBonus(w http.ResponseWriter, r *http.Request) {
	req, date, err := h.decode(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	bonus := &domain.Bonus{EmployeeID: req.EmployeeID, Date: date, Amount: req.Amount, Reason: req.Reason}
	if err := h.adjustments.AddBonus(r.Context(), bonus); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, bonus)
}

// AddPenalty records a manual penalty
// POST /penalties
func (h *AdjustmentHandler) AddPenalty(w http.ResponseWriter, r *http.Request) {
	req, date, err := h.decode(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	penalty := &domain.Penalty{EmployeeID: req.EmployeeID, Date: date, Amount: req.Amount, Reason: req.Reason}
	if err := h.adjustments.AddPenalty(r.Context(), penalty); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, penalty)
}
