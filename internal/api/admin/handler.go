package admin

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"venue-backend/internal/api/httpx"
	"venue-backend/internal/domain/billing"
)

type PaymentLister interface {
	AllPayments(ctx context.Context) ([]billing.Payment, error)
}

type Handler struct {
	payments PaymentLister
}

func NewHandler(payments PaymentLister) *Handler {
	return &Handler{payments: payments}
}

type AdminPayment struct {
	ID                uint                  `json:"id"`
	UserID            *uint                 `json:"user_id,omitempty"`
	EntityType        billing.EntityType    `json:"entity_type"`
	EntityID          uint                  `json:"entity_id"`
	Amount            string                `json:"amount"`
	PlatformFee       string                `json:"platform_fee"`
	Currency          string                `json:"currency"`
	Status            billing.PaymentStatus `json:"status"`
	PaymentIntentID   *string               `json:"payment_intent_id,omitempty"`
	CheckoutSessionID *string               `json:"checkout_session_id,omitempty"`
	CreatedAt         string                `json:"created_at"`
}

func toAdminPayment(p billing.Payment) AdminPayment {
	return AdminPayment{
		ID:                p.ID,
		UserID:            p.UserID,
		EntityType:        p.EntityType,
		EntityID:          p.EntityID,
		Amount:            formatCents(p.AmountCents),
		PlatformFee:       formatCents(p.PlatformFeeCents),
		Currency:          p.Currency,
		Status:            p.Status,
		PaymentIntentID:   p.PaymentIntentID,
		CheckoutSessionID: p.CheckoutSessionID,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func (h *Handler) ListAllPayments(c *gin.Context) {
	list, err := h.payments.AllPayments(c.Request.Context())
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	out := make([]AdminPayment, 0, len(list))
	for _, p := range list {
		out = append(out, toAdminPayment(p))
	}
	httpx.OK(c, http.StatusOK, "payments listed", out)
}
