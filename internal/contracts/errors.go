package contracts

import (
	"errors"
	"fmt"
)

// ErrorCode classifies recoverable prediction errors
type ErrorCode string

const (
	CodeMissingField     ErrorCode = "missing_field"
	CodeInvalidField     ErrorCode = "invalid_field"
	CodeInvalidDateRange ErrorCode = "invalid_date_range"
	CodeServiceError     ErrorCode = "service_error"
)

var (
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidField     = errors.New("invalid field value")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrService          = errors.New("prediction service error")
	ErrSubmitInFlight   = errors.New("a prediction is already in flight")
	ErrSuperseded       = errors.New("prediction superseded by a newer request")
	ErrNoResult         = errors.New("no prediction result")
	ErrSessionNotFound  = errors.New("session not found")
	ErrTooManySessions  = errors.New("session limit reached")
)

// ValidationError reports a rejected PredictionRequest
type ValidationError struct {
	Code    ErrorCode
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches the sentinel of the error's code
func (e *ValidationError) Is(target error) bool {
	switch e.Code {
	case CodeMissingField:
		return target == ErrMissingField
	case CodeInvalidField:
		return target == ErrInvalidField
	case CodeInvalidDateRange:
		return target == ErrInvalidDateRange
	}
	return false
}

// ServiceError wraps any fault raised at the PredictionService boundary
type ServiceError struct {
	Cause error
}

// NewServiceError maps err to a ServiceError. An existing ServiceError is returned as-is.
func NewServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return &ServiceError{Cause: err}
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return ErrService.Error()
	}
	return fmt.Sprintf("%s: %v", ErrService, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func (e *ServiceError) Is(target error) bool { return target == ErrService }

// ErrorInfoFrom converts an error into the ErrorInfo stored on a Failed session
func ErrorInfoFrom(err error) ErrorInfo {
	info := ErrorInfo{Code: CodeServiceError, Message: err.Error()}
	var ve *ValidationError
	if errors.As(err, &ve) {
		info.Code = ve.Code
	}
	return info
}
