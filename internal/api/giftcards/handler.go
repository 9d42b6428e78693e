package giftcards

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"venue-backend/internal/api/httpx"
	"venue-backend/internal/domain/giftcards"
)

type Service interface {
	Redeem(ctx context.Context, userID, holdingID uint, amount int64) (*giftcards.UserGiftCard, error)
	ListUserGiftCards(ctx context.Context, userID uint) ([]giftcards.UserGiftCard, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.ListUserGiftCards(c.Request.Context(), httpx.Actor(c).UserID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "gift cards listed", list)
}

// Redeem debits the caller's holding :id.
func (h *Handler) Redeem(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	holding, err := h.svc.Redeem(c.Request.Context(), httpx.Actor(c).UserID, id, req.AmountCents)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "gift card redeemed", holding)
}
