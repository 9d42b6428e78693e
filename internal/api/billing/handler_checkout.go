package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venue-backend/internal/api/httpx"
	"venue-backend/internal/service/payments"
)

type checkoutRequest struct {
	httpx.GuestContact
	EntityType         string `json:"entity_type" binding:"required"`
	EntityID           uint   `json:"entity_id" binding:"required"`
	AmountCents        int64  `json:"amount_cents" binding:"required"`
	ConnectedAccountID string `json:"connected_account_id"`
}

func (r checkoutRequest) request(c *gin.Context) payments.Request {
	return payments.Request{
		Purchaser:          r.Purchaser(c),
		EntityType:         r.EntityType,
		EntityID:           r.EntityID,
		AmountCents:        r.AmountCents,
		ConnectedAccountID: r.ConnectedAccountID,
	}
}

// CreatePaymentIntent serves POST /payments/intent for users and guests.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	res, err := h.svc.CreatePaymentIntent(c.Request.Context(), body.request(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "payment intent created", res)
}

// CreateCheckoutSession serves POST /payments/checkout-session.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	res, err := h.svc.CreateCheckoutSession(c.Request.Context(), body.request(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "checkout session created", res)
}
