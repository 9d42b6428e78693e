package billing

import (
	"context"

	"venue-backend/internal/domain/billing"
	"venue-backend/internal/service/payments"
)

type Service interface {
	CreatePaymentIntent(ctx context.Context, req payments.Request) (*payments.IntentResult, error)
	CreateCheckoutSession(ctx context.Context, req payments.Request) (*payments.SessionResult, error)
	PaymentHistory(ctx context.Context, userID uint) ([]billing.Payment, error)
	AllPayments(ctx context.Context) ([]billing.Payment, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}
