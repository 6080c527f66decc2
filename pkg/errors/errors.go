package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation         = NewError("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrInternal           = NewError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	ErrServiceUnavailable = NewError("SERVICE_UNAVAILABLE", "service unavailable", http.StatusServiceUnavailable)
)

var (
	ErrMissingPhone     = NewError("MISSING_PHONE", "no phone number found in message", http.StatusUnprocessableEntity)
	ErrMissingProtocol  = NewError("MISSING_PROTOCOL", "no protocol found in message text", http.StatusUnprocessableEntity)
	ErrMalformedPayload = NewError("MALFORMED_PAYLOAD", "payload does not have the expected shape", http.StatusBadRequest)
	ErrUnknownPartner   = NewError("UNKNOWN_PARTNER", "partner is not registered", http.StatusNotFound)
)

type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Code so sentinels survive WithCause/WithDetail copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	err.Details = details
	return &err
}

func IsUnknownPartner(err error) bool {
	return hasCode(err, ErrUnknownPartner.Code)
}

// IsExtractionMiss reports whether err is one of the recoverable "nothing to
// extract" outcomes rather than a structural failure.
func IsExtractionMiss(err error) bool {
	return hasCode(err, ErrMissingPhone.Code) || hasCode(err, ErrMissingProtocol.Code)
}

func hasCode(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body written for a failed request.
type ErrorResponse struct {
	Error     string                 `json:"error" example:"partner is not registered"`
	ErrorCode string                 `json:"error_code" example:"UNKNOWN_PARTNER"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

func ToErrorResponse(err error) ErrorResponse {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	return ErrorResponse{
		Error:     appErr.Message,
		ErrorCode: appErr.Code,
		Details:   appErr.Details,
	}
}
