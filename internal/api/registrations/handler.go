package registrations

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"venue-backend/internal/api/httpx"
	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/registrations"
	"venue-backend/internal/domain/users"
	regsvc "venue-backend/internal/service/registrations"
)

type Service interface {
	Register(ctx context.Context, in regsvc.RegisterInput) (*registrations.Registration, error)
	CancelRegistration(ctx context.Context, kind registrations.Kind, id uint, actor users.Actor) (*registrations.Registration, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	httpx.GuestContact
	PaymentOption registrations.PaymentOption `json:"payment_option"`
}

// Register returns the handler for one target kind, so the tournament and
// event routes share the body handling.
func (h *Handler) Register(kind registrations.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.ParamID(c, "id")
		if !ok {
			return
		}
		var req registerRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				httpx.BadRequest(c, err)
				return
			}
		}

		reg, err := h.svc.Register(c.Request.Context(), regsvc.RegisterInput{
			Kind:          kind,
			TargetID:      id,
			Purchaser:     req.Purchaser(c),
			PaymentOption: req.PaymentOption,
		})
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusCreated, "registration created", reg)
	}
}

func (h *Handler) Cancel(c *gin.Context) {
	kind, err := registrations.ParseKind(c.Param("kind"))
	if err != nil {
		httpx.Fail(c, apperr.Validation("%s", err.Error()))
		return
	}
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	reg, err := h.svc.CancelRegistration(c.Request.Context(), kind, id, httpx.Actor(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "registration cancelled", reg)
}
