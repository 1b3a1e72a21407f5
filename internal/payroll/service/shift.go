package service

import (
	"context"
	"strings"
	"time"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// ShiftService manages shift definitions. Shifts are never edited in place;
// a changed schedule is a new shift assigned going forward.
type ShiftService struct {
	shifts ShiftStore
	logger *logger.Logger
}

// NewShiftService creates a new shift service
func NewShiftService(shifts ShiftStore, log *logger.Logger) *ShiftService {
	return &ShiftService{shifts: shifts, logger: log.WithComponent("shifts")}
}

// Get returns a shift by id
func (s *ShiftService) Get(ctx context.Context, id string) (*domain.Shift, error) {
	return s.shifts.GetByID(ctx, id)
}

// Create validates and stores a shift
func (s *ShiftService) Create(ctx context.Context, shift *domain.Shift) error {
	details := make(map[string]string)
	if strings.TrimSpace(shift.Name) == "" {
		details["name"] = "is required"
	}
	for i, day := range shift.Days {
		if err := day.Validate(); err != nil {
			details[strings.ToLower(time.Weekday(i).String())] = err.Error()
		}
	}
	if len(details) > 0 {
		return errors.Validation(details)
	}
	if shift.UnitMinutes() == 0 {
		return errors.Invalid("shift must have at least one working day")
	}

	if err := s.shifts.Create(ctx, shift); err != nil {
		return err
	}

	s.logger.Info().
		Str("shift_id", shift.ID).
		Str("name", shift.Name).
		Int("unit_minutes", shift.UnitMinutes()).
		Msg("shift created")
	return nil
}
