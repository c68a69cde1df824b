// RouteHub - Real-time Traffic and Construction Advisory Hub
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/routehub

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide so struct metadata is cached
// once. Besides the built-in tags it registers:
//
//   - lonlat: a two-element [longitude, latitude] slice within WGS84 bounds
//   - transportmode: one of driving, walking, cycling, transit
//
// Inbound websocket frames and the loaded configuration are both checked here:
//
//	if err := validation.ValidateStruct(msg); err != nil {
//	    logging.Warn().Err(err).Msg("Dropping invalid subscribe message")
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/routehub/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	field   string
	tag     string
	param   string
	value   interface{}
	message string
}

// Field returns the struct field name that failed validation.
func (e *ValidationError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string { return e.tag }

// Param returns the tag parameter (e.g. "0" for "gt=0").
func (e *ValidationError) Param() string { return e.param }

// Value returns the value that failed validation.
func (e *ValidationError) Value() interface{} { return e.value }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects every field failure for one struct.
type RequestValidationError struct {
	errors []ValidationError
}

// Errors returns the individual field failures.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

// Error joins every field message.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.errors))
	for i := range ve.errors {
		messages = append(messages, ve.errors[i].Error())
	}
	return strings.Join(messages, "; ")
}

// Fields returns field name to message, suitable for structured log fields.
func (ve *RequestValidationError) Fields() map[string]string {
	out := make(map[string]string, len(ve.errors))
	for i := range ve.errors {
		out[ve.errors[i].field] = ve.errors[i].message
	}
	return out
}

// GetValidator returns the shared validator, registering custom tags on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report names as they appear on the wire or in YAML.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"json", "koanf"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})

		mustRegister("lonlat", validateLonLat)
		mustRegister("transportmode", validateTransportMode)
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func validateLonLat(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
		return false
	}
	if field.Len() != 2 {
		return false
	}
	lon, lat := field.Index(0), field.Index(1)
	if !lon.CanFloat() || !lat.CanFloat() {
		return false
	}
	return models.NewCoordinate(lon.Float(), lat.Float()).Valid()
}

func validateTransportMode(fl validator.FieldLevel) bool {
	_, ok := models.ParseTransportMode(fl.Field().String())
	return ok
}

// ValidateStruct validates s with the shared validator.
// It returns nil on success or a *RequestValidationError describing every failure.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []ValidationError{{field: "unknown", tag: "unknown", message: err.Error()}},
		}
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fieldErr := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldErr.Field(),
			tag:     fieldErr.Tag(),
			param:   fieldErr.Param(),
			value:   fieldErr.Value(),
			message: translateError(fieldErr),
		}
	}
	return &RequestValidationError{errors: fieldErrors}
}

var errorMessageTemplates = map[string]string{
	"required":      "%s is required",
	"lonlat":        "%s must be a [longitude, latitude] pair within range",
	"transportmode": "%s must be one of driving, walking, cycling, transit",
	"url":           "%s must be a valid URL",
	"hostname_port": "%s must be a host:port address",
}

var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"len":   "%s must have length %s",
}

func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
