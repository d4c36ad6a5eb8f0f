package api

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type requestValidator struct {
	validate *validator.Validate
}

func NewValidator() echo.Validator {
	return &requestValidator{validate: validator.New()}
}

// Validate turns validator errors into one readable message.
func (v *requestValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, field+" must have at least "+fe.Param()+" items")
		case "oneof":
			msgs = append(msgs, field+" must be one of "+fe.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, ", "))
}
