package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeHelpers(t *testing.T) {
	base := errors.New("db down")
	err := Wrap(CodeRetryable, "Learning.Enrollment.SyncProgress", base)
	if !IsCode(err, CodeRetryable) {
		t.Fatalf("IsCode: want retryable got=%s", CodeOf(err))
	}
	if !errors.Is(err, base) {
		t.Fatalf("errors.Is: want cause preserved")
	}
	wrapped := fmt.Errorf("service: %w", err)
	if CodeOf(wrapped) != CodeRetryable {
		t.Fatalf("CodeOf wrapped: want=%s got=%s", CodeRetryable, CodeOf(wrapped))
	}
	if IsCode(base, "") {
		t.Fatalf("IsCode with empty code should be false")
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil): want nil")
	}
}

func TestErrUnauthenticated(t *testing.T) {
	if !IsCode(fmt.Errorf("tracker: %w", ErrUnauthenticated), CodeUnauthenticated) {
		t.Fatalf("want unauthenticated code")
	}
	if ErrUnauthenticated.Error() != "user identity required (unauthenticated)" {
		t.Fatalf("message: got=%q", ErrUnauthenticated.Error())
	}
}

func TestWithOpKeepsOriginalInChain(t *testing.T) {
	var base *Error
	if !errors.As(ErrUnauthenticated, &base) {
		t.Fatalf("sentinel should be *Error")
	}
	tagged := base.WithOp("tracker.update")
	if tagged.Op != "tracker.update" {
		t.Fatalf("op: want=%q got=%q", "tracker.update", tagged.Op)
	}
	if !errors.Is(tagged, ErrUnauthenticated) {
		t.Fatalf("errors.Is: want sentinel in chain")
	}
	if again := tagged.WithOp("other"); again != tagged {
		t.Fatalf("WithOp on tagged error should be a no-op")
	}
	if got := tagged.Error(); got != "tracker.update: user identity required (unauthenticated)" {
		t.Fatalf("message: got=%q", got)
	}
}
