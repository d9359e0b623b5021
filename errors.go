// Package bindgen generates JerryScript bindings for C and C++ APIs.
//
// The pipeline loads an AST snapshot of the API headers, builds the
// declaration model, resolves macros, synthesizes marshalling for each
// declaration, and writes one binding source file:
//
//	res, err := bindgen.FromFile("geo.snapshot.yaml").
//	    Module("geo").
//	    APIHeaders("include/*.h").
//	    ToDir(ctx, "./gen")
package bindgen

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorCode is a machine-readable category for fatal generation errors.
type ErrorCode string

const (
	CodeInvalidConfig   ErrorCode = "invalid_config"
	CodeInvalidSnapshot ErrorCode = "invalid_snapshot"
	CodeInvalidModule   ErrorCode = "invalid_module"
	CodeWriteFailed     ErrorCode = "write_failed"
	CodeCanceled        ErrorCode = "canceled"
)

// Error is a fatal generation error. Non-fatal issues are reported as
// ir.Warning values on the Result instead.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an error with no cause.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an error with a formatted message. A %w verb also sets
// the cause.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	e := &Error{Code: code, Message: err.Error()}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		e.Message = strings.TrimSuffix(strings.TrimSuffix(e.Message, u.Unwrap().Error()), ": ")
		e.Cause = u.Unwrap()
	}
	return e
}

// formatValidationError converts a validator.FieldError to a short message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "cident":
		return "must be a C identifier"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
