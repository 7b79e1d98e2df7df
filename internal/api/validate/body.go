// Package validate decodes and checks request bodies and query strings.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/leadflow/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			tag = strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
		}
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// DecodeJSONBody strictly decodes the request body into dest and runs
// struct validation.
func DecodeJSONBody(c *fiber.Ctx, dest any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return apperrors.NewValidationError("request body is required", nil)
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperrors.NewValidationError("invalid request body", map[string]any{"error": err.Error()})
	}
	return Struct(dest)
}

// Query parses the query string into dest and validates it.
func Query(c *fiber.Ctx, dest any) error {
	if err := c.QueryParser(dest); err != nil {
		return apperrors.NewValidationError("invalid query parameters", map[string]any{"error": err.Error()})
	}
	return Struct(dest)
}

// Struct runs the validator over an already populated value.
func Struct(dest any) error {
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]any{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return apperrors.NewValidationError("validation failed", details)
	}
	return apperrors.NewValidationError("validation failed", map[string]any{"error": err.Error()})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}
