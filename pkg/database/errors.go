package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23514":
		return mapCheckConstraint(pqErr)

	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	case "23503":
		return errors.BadRequest("referenced record does not exist")

	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// IsUniqueViolation reports whether err is a unique constraint violation
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "day_status"):
		return errors.Validation(map[string]string{
			"day_status": "must be one of: full_day, first_half, second_half, holiday",
		})

	case strings.Contains(constraint, "leave_status"):
		return errors.Validation(map[string]string{
			"status": "must be one of: pending, approved, rejected",
		})

	case strings.Contains(constraint, "fraction"):
		return errors.Validation(map[string]string{
			"fraction": "must be between 0 and 1",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "attendances_open"):
		return "employee already has an open attendance"
	case strings.Contains(constraint, "attendances_employee_date"):
		return "employee already has an attendance for this day"
	case strings.Contains(constraint, "attendance_records"):
		return "attendance record already exists for this day"
	case strings.Contains(constraint, "advance_payrolls_pending"):
		return "a pending advance payroll already exists"
	case strings.Contains(constraint, "payroll_periods_range"):
		return "payroll period has already been dispatched"
	default:
		return "a record with these values already exists"
	}
}
