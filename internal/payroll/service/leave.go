package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// LeaveService handles leave requests and their approval
type LeaveService struct {
	leaves    LeaveStore
	employees EmployeeStore
	loc       *time.Location
	logger    *logger.Logger
}

// NewLeaveService creates a new leave service
func NewLeaveService(leaves LeaveStore, employees EmployeeStore, loc *time.Location, log *logger.Logger) *LeaveService {
	if loc == nil {
		loc = time.UTC
	}
	return &LeaveService{
		leaves:    leaves,
		employees: employees,
		loc:       loc,
		logger:    log.WithComponent("leaves"),
	}
}

// Create records a pending leave
func (s *LeaveService) Create(ctx context.Context, leave *domain.Leave) error {
	details := make(map[string]string)
	switch leave.DayStatus {
	case domain.DayFull, domain.DayFirstHalf, domain.DaySecondHalf:
	default:
		details["day_status"] = "must be full_day, first_half or second_half"
	}
	if strings.TrimSpace(leave.Category) == "" {
		details["category"] = "is required"
	}
	if leave.Fraction <= 0 || leave.Fraction > 1 {
		details["fraction"] = "must be greater than 0 and at most 1"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}

	if _, err := s.employees.GetByID(ctx, leave.EmployeeID); err != nil {
		return err
	}

	leave.Date = domain.DateIn(leave.Date, s.loc)
	leave.Status = domain.LeavePending
	if err := s.leaves.Create(ctx, leave); err != nil {
		return err
	}

	s.logger.Info().
		Str("employee_id", leave.EmployeeID).
		Str("date", domain.FormatDate(leave.Date)).
		Str("category", leave.Category).
		Msg("leave requested")
	return nil
}

// UpdateStatus approves or rejects a pending leave
func (s *LeaveService) UpdateStatus(ctx context.Context, id string, status domain.LeaveStatus) (*domain.Leave, error) {
	if status != domain.LeaveApproved && status != domain.LeaveRejected {
		return nil, errors.Invalid("leave status must be approved or rejected")
	}

	leave, err := s.leaves.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != domain.LeavePending {
		return nil, errors.StateConflict(fmt.Sprintf("leave is already %s", leave.Status))
	}

	if err := s.leaves.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	leave.Status = status

	s.logger.Info().Str("leave_id", id).Str("status", string(status)).Msg("leave status updated")
	return leave, nil
}
