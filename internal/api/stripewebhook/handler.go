package stripewebhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"venue-backend/internal/api/httpx"
	"venue-backend/internal/apperr"
	"venue-backend/internal/logging"
	"venue-backend/internal/service/reconcile"
)

// Stripe caps payloads well below this.
const maxBodyBytes = 65536

type Reconciler interface {
	HandleEvent(ctx context.Context, payload []byte, signature string) (*reconcile.Result, error)
}

type Handler struct {
	reconciler Reconciler
}

func NewHandler(r Reconciler) *Handler {
	return &Handler{reconciler: r}
}

// StripeWebhook acknowledges every verified event it could apply or chose to
// ignore. A 500 makes Stripe redeliver, which is safe because events are
// deduplicated by id.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		httpx.Fail(c, apperr.Validation("error reading request body"))
		return
	}

	res, err := h.reconciler.HandleEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	logging.FromGin(c).WithFields(logrus.Fields{
		"event_id":   res.EventID,
		"event_type": res.EventType,
		"outcome":    res.Outcome,
	}).Info("stripe webhook handled")

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "webhook received",
		"received": true,
		"outcome":  res.Outcome,
	})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
