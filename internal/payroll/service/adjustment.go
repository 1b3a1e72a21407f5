package service

import (
	"context"
	"strings"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// AdjustmentService records manual bonuses and penalties
type AdjustmentService struct {
	bonuses   BonusStore
	penalties PenaltyStore
	employees EmployeeStore
	publisher EventPublisher
	loc       *time.Location
	logger    *logger.Logger
}

// NewAdjustmentService creates a new adjustment service
func NewAdjustmentService(
	bonuses BonusStore,
	penalties PenaltyStore,
	employees EmployeeStore,
	publisher EventPublisher,
	loc *time.Location,
	log *logger.Logger,
) *AdjustmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &AdjustmentService{
		bonuses:   bonuses,
		penalties: penalties,
		employees: employees,
		publisher: publisher,
		loc:       loc,
		logger:    log.WithComponent("adjustments"),
	}
}

func validateAdjustment(amount float64, reason string) error {
	details := make(map[string]string)
	if amount <= 0 {
		details["amount"] = "must be positive"
	}
	if strings.TrimSpace(reason) == "" {
		details["reason"] = "is required"
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	return nil
}

// AddBonus records a dated bonus
func (s *AdjustmentService) AddBonus(ctx context.Context, bonus *domain.Bonus) error {
	if err := validateAdjustment(bonus.Amount, bonus.Reason); err != nil {
		return err
	}
	if _, err := s.employees.GetByID(ctx, bonus.EmployeeID); err != nil {
		return err
	}

	bonus.Date = domain.DateIn(bonus.Date, s.loc)
	if err := s.bonuses.Create(ctx, bonus); err != nil {
		return err
	}

	s.logger.Info().Str("employee_id", bonus.EmployeeID).Float64("amount", bonus.Amount).Msg("bonus added")
	return nil
}

// AddPenalty records a dated penalty. A second penalty with the same date
// and reason is a conflict.
func (s *AdjustmentService) AddPenalty(ctx context.Context, penalty *domain.Penalty) error {
	if err := validateAdjustment(penalty.Amount, penalty.Reason); err != nil {
		return err
	}
	if _, err := s.employees.GetByID(ctx, penalty.EmployeeID); err != nil {
		return err
	}

	penalty.Date = domain.DateIn(penalty.Date, s.loc)
	created, err := s.penalties.Create(ctx, penalty)
	if err != nil {
		return err
	}
	if !created {
		return errors.Conflict("a penalty with this reason already exists for the date")
	}

	s.logger.Info().Str("employee_id", penalty.EmployeeID).Float64("amount", penalty.Amount).Msg("penalty added")
	s.publisher.PenaltyCreated(ctx, penalty)
	return nil
}
