package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	blocked := Blocked("You blocked the user. You will not be able to take any action with each other.")
	wrapped := fmt.Errorf("comment: %w", blocked)

	if !errors.Is(wrapped, ErrBlocked) {
		t.Error("wrapped blocked error should match ErrBlocked")
	}
	if errors.Is(wrapped, ErrNestedReplyNotAllowed) {
		t.Error("blocked error should not match nested reply sentinel")
	}
	if KindOf(wrapped) != KindForbidden {
		t.Errorf("KindOf = %s, want forbidden", KindOf(wrapped))
	}

	page := OutOfRangePage(5, 2)
	if !errors.Is(page, ErrOutOfRangePage) {
		t.Error("OutOfRangePage should match ErrOutOfRangePage")
	}
	if page.Message != "Requested page 5 exceeds the maximum page 2" {
		t.Errorf("unexpected message: %s", page.Message)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("db down")) != KindInternal {
		t.Error("plain errors are internal")
	}
	if Is(nil, KindInternal) {
		t.Error("nil is not an error of any kind")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindOutOfRangePage, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindForbidden, http.StatusForbidden},
		{KindConflict, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("unique violation")
	err := &Error{Kind: KindConflict, Code: "CONFLICT", Message: "already exists", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}
	if err.Error() != "already exists: unique violation" {
		t.Errorf("unexpected Error(): %s", err.Error())
	}
}
