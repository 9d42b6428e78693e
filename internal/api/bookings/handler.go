package bookings

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"venue-backend/internal/api/httpx"
	"venue-backend/internal/apperr"
	"venue-backend/internal/domain/booking"
	"venue-backend/internal/domain/users"
	bookingsvc "venue-backend/internal/service/booking"
)

type Service interface {
	CheckCapacity(ctx context.Context, sessionID uint, userID *uint) (*bookingsvc.Capacity, error)
	CreateBooking(ctx context.Context, in bookingsvc.CreateInput) (*booking.Booking, error)
	ListBookings(ctx context.Context, actor users.Actor, f bookingsvc.ListFilter) ([]booking.Booking, error)
	GetBooking(ctx context.Context, id uint, actor users.Actor) (*booking.Booking, error)
	GetBookingByReference(ctx context.Context, ref, email string) (*booking.Booking, error)
	UpdateBooking(ctx context.Context, id uint, actor users.Actor, in bookingsvc.UpdateInput) (*booking.Booking, error)
	CancelBooking(ctx context.Context, id uint, actor users.Actor) (*booking.Booking, error)
	DeleteBooking(ctx context.Context, id uint) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	httpx.GuestContact
	SessionID     uint                  `json:"session_id" binding:"required"`
	MachineType   string                `json:"machine_type"`
	StartTime     time.Time             `json:"start_time"`
	EndTime       time.Time             `json:"end_time"`
	PaymentStatus booking.PaymentStatus `json:"payment_status"`
}

type updateRequest struct {
	MachineType   *string                `json:"machine_type"`
	StartTime     *time.Time             `json:"start_time"`
	EndTime       *time.Time             `json:"end_time"`
	PaymentStatus *booking.PaymentStatus `json:"payment_status"`
}

// Availability answers GET /sessions/:id/availability for the caller.
func (h *Handler) Availability(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	capacity, err := h.svc.CheckCapacity(c.Request.Context(), id, httpx.UserID(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "availability checked", capacity)
}

// Create serves both the signed in and the guest route.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}

	in := bookingsvc.CreateInput{
		Purchaser:   req.Purchaser(c),
		SessionID:   req.SessionID,
		MachineType: req.MachineType,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	if req.PaymentStatus != "" {
		if !httpx.Actor(c).IsAdmin() {
			httpx.Fail(c, apperr.Forbidden("only staff can set payment_status"))
			return
		}
		in.PaymentStatus = req.PaymentStatus
	}

	b, err := h.svc.CreateBooking(c.Request.Context(), in)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "booking created", b)
}

func (h *Handler) GetByReference(c *gin.Context) {
	b, err := h.svc.GetBookingByReference(c.Request.Context(), c.Param("reference"), c.Query("email"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "booking found", b)
}

// List returns the caller's bookings; admins see everything and may filter.
func (h *Handler) List(c *gin.Context) {
	var f bookingsvc.ListFilter
	if raw := c.Query("session_id"); raw != "" {
		id, ok := httpx.QueryID(c, "session_id")
		if !ok {
			return
		}
		f.SessionID = &id
	}
	if raw := c.Query("user_id"); raw != "" {
		id, ok := httpx.QueryID(c, "user_id")
		if !ok {
			return
		}
		f.UserID = &id
	}
	f.PaymentStatus = booking.PaymentStatus(c.Query("payment_status"))

	list, err := h.svc.ListBookings(c.Request.Context(), httpx.Actor(c), f)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "bookings listed", list)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.GetBooking(c.Request.Context(), id, httpx.Actor(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "booking found", b)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, err)
		return
	}
	b, err := h.svc.UpdateBooking(c.Request.Context(), id, httpx.Actor(c), bookingsvc.UpdateInput{
		MachineType:   req.MachineType,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "booking updated", b)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.CancelBooking(c.Request.Context(), id, httpx.Actor(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "booking cancelled", b)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := httpx.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteBooking(c.Request.Context(), id); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "booking deleted", nil)
}
