package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", E(KindInvalid, "bad input"), http.StatusBadRequest},
		{"not found", E(KindNotFound, "missing"), http.StatusNotFound},
		{"unauthorized", E(KindUnauthorized, "no token"), http.StatusUnauthorized},
		{"forbidden", E(KindForbidden, "not yours"), http.StatusForbidden},
		{"insufficient balance maps to forbidden", E(KindInsufficientBalance, "top up"), http.StatusForbidden},
		{"conflict", E(KindConflict, "taken"), http.StatusConflict},
		{"external", E(KindExternal, "gateway down"), http.StatusBadGateway},
		{"internal", E(KindInternal, "boom"), http.StatusInternalServerError},
		{"plain error defaults to 500", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	inner := E(KindInsufficientBalance, "top up")
	wrapped := fmt.Errorf("accept job: %w", inner)
	assert.Equal(t, KindInsufficientBalance, KindOf(wrapped))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindExternal, "paystack is unreachable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "paystack is unreachable: connection refused", err.Error())
}
