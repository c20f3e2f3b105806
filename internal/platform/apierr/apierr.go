package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From converts any service error into an *Error with an HTTP status.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	code := domainagg.CodeOf(err)
	return &Error{Status: statusFor(code), Code: codeString(code), Err: err}
}

func statusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodePreconditionFailed, domainagg.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeString(code domainagg.ErrorCode) string {
	if code == "" {
		return string(domainagg.CodeInternal)
	}
	return string(code)
}
