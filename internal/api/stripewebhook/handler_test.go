package stripewebhooks

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"venue-backend/internal/apperr"
	"venue-backend/internal/service/reconcile"
)

func init() { gin.SetMode(gin.TestMode) }

type mockReconciler struct{ mock.Mock }

func (m *mockReconciler) HandleEvent(ctx context.Context, payload []byte, signature string) (*reconcile.Result, error) {
	args := m.Called(ctx, payload, signature)
	r, _ := args.Get(0).(*reconcile.Result)
	return r, args.Error(1)
}

func deliver(h *Handler, body []byte, sig string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/webhook/stripe", h.StripeWebhook)
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", sig)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookPassesRawBody(t *testing.T) {
	rec := new(mockReconciler)
	body := []byte(`{"id":"evt_1"}`)
	rec.On("HandleEvent", mock.Anything, body, "t=1,v1=abc").
		Return(&reconcile.Result{EventID: "evt_1", Outcome: reconcile.OutcomeApplied}, nil)

	w := deliver(NewHandler(rec), body, "t=1,v1=abc")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)
	assert.Contains(t, w.Body.String(), `"outcome":"applied"`)
	rec.AssertExpectations(t)
}

func TestWebhookDuplicateIsAcknowledged(t *testing.T) {
	rec := new(mockReconciler)
	rec.On("HandleEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(&reconcile.Result{EventID: "evt_1", Outcome: reconcile.OutcomeDuplicate}, nil)

	w := deliver(NewHandler(rec), []byte(`{}`), "sig")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookBadSignature(t *testing.T) {
	rec := new(mockReconciler)
	rec.On("HandleEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperr.Signature(errors.New("no valid signature")))

	w := deliver(NewHandler(rec), []byte(`{}`), "bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "signature_error")
}

func TestWebhookCascadeFailureAsksForRetry(t *testing.T) {
	rec := new(mockReconciler)
	rec.On("HandleEvent", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperr.Transaction(errors.New("deadlock"), "apply webhook"))

	w := deliver(NewHandler(rec), []byte(`{}`), "sig")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookOversizedBody(t *testing.T) {
	rec := new(mockReconciler)
	body := []byte(strings.Repeat("x", maxBodyBytes+1))

	w := deliver(NewHandler(rec), body, "sig")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	rec.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything, mock.Anything)
}
