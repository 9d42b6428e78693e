package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venue-backend/internal/api/httpx"
)

func (h *Handler) GetPaymentHistory(c *gin.Context) {
	userID := httpx.UserID(c)
	if userID == nil {
		httpx.Unauthorized(c, "user not identified")
		return
	}

	list, err := h.svc.PaymentHistory(c.Request.Context(), *userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "payments listed", list)
}
