// Package validation checks inbound request payloads against their struct tags
// and reports every offending field in a single ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/patric-chuzhbe/twitterapi/internal/models"
)

// FieldError describes one field that failed validation. Field is the JSON
// path of the field, e.g. "by.user_id".
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed or out-of-range input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Field+" "+field.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator wraps a configured validator.Validate instance.
type Validator struct {
	validate *validator.Validate
}

func validateISODate(fieldLevel validator.FieldLevel) bool {
	_, err := models.ParseDate(fieldLevel.Field().String())

	return err == nil
}

func validateRFC3339(fieldLevel validator.FieldLevel) bool {
	_, err := time.Parse(time.RFC3339, fieldLevel.Field().String())

	return err == nil
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}

	return name
}

// New creates a Validator with the custom rules used by the request models.
func New() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	if err := validate.RegisterValidation("isodate", validateISODate); err != nil {
		return nil, err
	}

	if err := validate.RegisterValidation("rfc3339", validateRFC3339); err != nil {
		return nil, err
	}

	return &Validator{validate: validate}, nil
}

// Struct validates s. It returns a *ValidationError when one or more fields
// are invalid and nil otherwise.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	result := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrors))}
	for _, fieldError := range fieldErrors {
		result.Fields = append(result.Fields, FieldError{
			Field:   fieldPath(fieldError.Namespace()),
			Rule:    fieldError.Tag(),
			Param:   fieldError.Param(),
			Message: describe(fieldError.Tag(), fieldError.Param()),
		})
	}

	return result
}

// UUID parses an identifier coming from the URL path.
func (v *Validator) UUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, &ValidationError{
			Fields: []FieldError{{
				Field:   field,
				Rule:    "uuid",
				Message: describe("uuid", ""),
			}},
		}
	}

	return id, nil
}

// Namespace looks like "CreatePostRequest.by.user_id"; the root type name is
// of no use to API clients.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}

	return namespace
}

func describe(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", param)
	case "max":
		return fmt.Sprintf("must be at most %s characters long", param)
	case "uuid":
		return "must be a valid UUID"
	case "isodate":
		return "must be a calendar date in YYYY-MM-DD format"
	case "rfc3339":
		return "must be an RFC 3339 timestamp"
	}

	return fmt.Sprintf("failed on the %q rule", rule)
}
