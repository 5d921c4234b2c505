// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/labstack/echo/v4"
)

// Validator adapts validator/v10 to echo. Failures are reported as
// ValidationError naming the first offending field.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return apperr.New(apperr.KindValidation, "Invalid request payload")
	}

	first := validationErrors[0]
	field := first.Field()
	var message string
	switch first.Tag() {
	case "required", "notblank":
		message = fmt.Sprintf("Please add a %s", field)
	case "email":
		message = "Please add a valid email"
	case "max":
		message = fmt.Sprintf("%s cannot be more than %s characters", field, first.Param())
	case "min":
		message = fmt.Sprintf("%s must be at least %s characters", field, first.Param())
	case "oneof":
		message = fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(first.Param(), " ", ", "))
	case "gt":
		message = fmt.Sprintf("%s must be greater than %s", field, first.Param())
	default:
		message = fmt.Sprintf("Invalid %s", field)
	}
	return apperr.Wrap(apperr.KindValidation, message, err)
}

// bindAndValidate decodes the request into dst and validates it.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "Invalid JSON body", err)
	}
	return c.Validate(dst)
}

// paramID parses a numeric path parameter. Malformed ids are reported as
// missing resources.
func paramID(c echo.Context, name string, notFound error) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}
