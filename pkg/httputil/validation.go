package httputil

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

var (
	validate  = validator.New()
	clockExpr = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

func init() {
	validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockExpr.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
}

// Validate validates a struct using go-playground/validator
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.BadRequest(err.Error())
		}
		details := make(map[string]string)

		for _, e := range validationErrors {
			details[e.Field()] = formatValidationError(e)
		}

		return errors.Validation(details)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	case "clock":
		return "must be a time of day in HH:MM format"
	case "isodate":
		return "invalid date format, expected YYYY-MM-DD"
	default:
		return "invalid value"
	}
}

// ParseDate parses a YYYY-MM-DD date in loc
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, errors.Invalid("invalid date format, expected YYYY-MM-DD")
	}
	return t, nil
}
