package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode classifies a write failure; HTTP and metrics map from it.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeUnauthenticated    ErrorCode = "unauthenticated"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// ErrUnauthenticated is returned when an operation runs without a resolved user.
// Progress operations treat it as a no-op: nothing is read or written.
var ErrUnauthenticated = NewError(CodeUnauthenticated, "", "user identity required", nil)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		if e.Message != "" {
			b.WriteString(": ")
		}
	}
	b.WriteString(e.Message)
	if b.Len() == 0 {
		return string(e.Code)
	}
	b.WriteString(" (")
	b.WriteString(string(e.Code))
	b.WriteString(")")
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// WithOp returns a copy tagged with op when the error has none; the original stays in the chain.
func (e *Error) WithOp(op string) *Error {
	op = strings.TrimSpace(op)
	if e == nil || e.Op != "" || op == "" {
		return e
	}
	return &Error{Code: e.Code, Op: op, Message: e.Message, Cause: e}
}

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap tags err with code and op, keeping err as the cause. Wrap(nil) is nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	return code != "" && CodeOf(err) == code
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if errors.As(err, &aggErr) {
		return aggErr.Code
	}
	return ""
}
