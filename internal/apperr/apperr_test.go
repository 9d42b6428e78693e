package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad input"), http.StatusBadRequest},
		{"conflict", Conflict("session full"), http.StatusBadRequest},
		{"not found", NotFound("session %d", 3), http.StatusNotFound},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"signature", Signature(errors.New("mismatch")), http.StatusBadRequest},
		{"transaction", Transaction(errors.New("commit"), "order"), http.StatusInternalServerError},
		{"gateway override", Gateway("card_declined", http.StatusPaymentRequired, "declined", nil), http.StatusPaymentRequired},
		{"gateway default", Gateway("x", 0, "x", nil), http.StatusBadGateway},
		{"foreign", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("create booking: %w", Conflict("session full"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(nil, KindConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("deadlock")
	err := Transaction(cause, "create order")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "deadlock")
}
