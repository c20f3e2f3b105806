package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
)

// Write bodies return these; MapError stamps the operation name on them.

func ValidationError(msg string) error {
	return domainagg.NewError(domainagg.CodeValidation, "", msg, nil)
}

func InvariantError(msg string) error {
	return domainagg.NewError(domainagg.CodeInvariantViolation, "", msg, nil)
}

func ConflictError(msg string) error {
	return domainagg.NewError(domainagg.CodeConflict, "", msg, nil)
}

func RetryableError(msg string) error {
	return domainagg.NewError(domainagg.CodeRetryable, "", msg, nil)
}

var pgErrorCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodePreconditionFailed, // foreign_key_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

// sqlite reports constraint and locking failures only through the message text.
var driverMessageHints = []struct {
	fragment string
	code     domainagg.ErrorCode
}{
	{"unique constraint failed", domainagg.CodeConflict},
	{"duplicate key", domainagg.CodeConflict},
	{"already exists", domainagg.CodeConflict},
	{"foreign key constraint failed", domainagg.CodePreconditionFailed},
	{"database is locked", domainagg.CodeRetryable},
	{"deadlock", domainagg.CodeRetryable},
	{"serialization", domainagg.CodeRetryable},
	{"timeout", domainagg.CodeRetryable},
	{"temporar", domainagg.CodeRetryable},
}

// MapError classifies a failed write. Aggregate errors keep their code and gain op when untagged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		if aggErr.Op == "" && err == error(aggErr) {
			return aggErr.WithOp(op)
		}
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.CodeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.CodeRetryable
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgErrorCodes[strings.TrimSpace(pgErr.Code)]; ok {
			return code
		}
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range driverMessageHints {
		if strings.Contains(msg, hint.fragment) {
			return hint.code
		}
	}
	return domainagg.CodeInternal
}
