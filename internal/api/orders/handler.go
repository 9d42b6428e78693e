package orders

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"venue-backend/internal/api/httpx"
	"venue-backend/internal/domain/orders"
	"venue-backend/internal/domain/users"
	ordersvc "venue-backend/internal/service/orders"
)

type Service interface {
	CreateOrder(ctx context.Context, in ordersvc.CreateInput) (*orders.Order, error)
	ListOrders(ctx context.Context, actor users.Actor, f ordersvc.ListFilter) ([]orders.Order, error)
	GetOrder(ctx context.Context, id uint, actor users.Actor) (*orders.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, next orders.Status) (*orders.Order, error)
	DeleteOrder(ctx context.Context, id uint) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type itemRequest struct {
	ItemType   orders.ItemType `json:"item_type"`
	ItemID     uint            `json:"item_id"`
	Quantity   int             `json:"quantity"`
	PriceCents int64           `json:"price_cents"`
}

type createRequest struct {
	httpx.GuestContact
	Items             []itemRequest          `json:"items" binding:"required"`
	ShippingAddress   orders.ShippingAddress `json:"shipping_address"`
	ShippingCostCents int64                  `json:"shipping_cost_cents"`
	TotalAmountCents  int64                  `json:"total_amount_cents"`
	PaymentMethod     orders.PaymentMethod   `json:"payment_method"`
}

func (r createRequest) input(c *gin.Context) ordersvc.CreateInput {
	in := ordersvc.CreateInput{
		Purchaser:         r.Purchaser(c),
		ShippingAddress:   r.ShippingAddress,
		ShippingCostCents: r.ShippingCostCents,
		TotalAmountCents:  r.TotalAmountCents,
		PaymentMethod:     r.PaymentMethod,
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, ordersvc.ItemInput{
			ItemType:   it.ItemType,
			ItemID:     it.ItemID,
			Quantity:   it.Quantity,
			PriceCents: it.PriceCents,
		})
	}
	return in
}

// Create serves POST /orders and POST /guest/orders.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	o, err := h.svc.CreateOrder(c.Request.Context(), req.input(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "order created", o)
}

func (h *Handler) List(c *gin.Context) {
	f := ordersvc.ListFilter{Status: orders.Status(c.Query("status"))}
	list, err := h.svc.ListOrders(c.Request.Context(), httpx.Actor(c), f)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "orders listed", list)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.GetOrder(c.Request.Context(), id, httpx.Actor(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "order found", o)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status orders.Status `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	o, err := h.svc.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "order status updated", o)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(c.Request.Context(), id); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "order deleted", nil)
}
