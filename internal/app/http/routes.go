package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	adminapi "venue-backend/internal/api/admin"
	"venue-backend/internal/api/billing"
	bookingsapi "venue-backend/internal/api/bookings"
	giftcardsapi "venue-backend/internal/api/giftcards"
	ordersapi "venue-backend/internal/api/orders"
	registrationsapi "venue-backend/internal/api/registrations"
	stripewebhooks "venue-backend/internal/api/stripewebhook"
	"venue-backend/internal/app/http/middleware"
	"venue-backend/internal/domain/registrations"
	"venue-backend/internal/domain/users"
)

// Handlers is everything RegisterRoutes mounts. Filled in by fx.
type Handlers struct {
	fx.In

	Bookings      *bookingsapi.Handler
	Orders        *ordersapi.Handler
	Billing       *billing.Handler
	Webhook       *stripewebhooks.Handler
	Registrations *registrationsapi.Handler
	GiftCards     *giftcardsapi.Handler
	Admin         *adminapi.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers, jwtSecret string) {
	// Signature verification needs the raw body, so no sanitizer here.
	r.POST("/webhook/stripe", h.Webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok", "status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.GET("/guest/bookings/:reference", h.Bookings.GetByReference)
	public.POST("/guest/bookings", h.Bookings.Create)
	public.POST("/guest/orders", h.Orders.Create)
	public.POST("/guest/tournaments/:id/register", h.Registrations.Register(registrations.KindTournament))
	public.POST("/guest/events/:id/register", h.Registrations.Register(registrations.KindEvent))

	// Guests and users both pay; a token only changes who the purchaser is.
	optional := r.Group("/")
	optional.Use(middleware.OptionalAuth(jwtSecret), middleware.SanitizeAndCleanInputMiddleware())
	optional.GET("/sessions/:id/availability", h.Bookings.Availability)
	optional.POST("/payments/intent", h.Billing.CreatePaymentIntent)
	optional.POST("/payments/checkout-session", h.Billing.CreateCheckoutSession)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(jwtSecret), middleware.SanitizeAndCleanInputMiddleware())
	auth.GET("/payments", h.Billing.GetPaymentHistory)

	auth.POST("/bookings", h.Bookings.Create)
	auth.GET("/bookings", h.Bookings.List)
	auth.GET("/bookings/:id", h.Bookings.Get)
	auth.PUT("/bookings/:id", h.Bookings.Update)
	auth.POST("/bookings/:id/cancel", h.Bookings.Cancel)

	auth.POST("/orders", h.Orders.Create)
	auth.GET("/orders", h.Orders.List)
	auth.GET("/orders/:id", h.Orders.Get)

	auth.POST("/tournaments/:id/register", h.Registrations.Register(registrations.KindTournament))
	auth.POST("/events/:id/register", h.Registrations.Register(registrations.KindEvent))
	auth.POST("/registrations/:kind/:id/cancel", h.Registrations.Cancel)

	auth.GET("/gift-cards", h.GiftCards.List)
	auth.POST("/gift-cards/:id/redeem", h.GiftCards.Redeem)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.RequireRole(users.RoleAdmin), middleware.SanitizeAndCleanInputMiddleware())
	admin.GET("/payments", h.Admin.ListAllPayments)
	admin.GET("/bookings", h.Bookings.List)
	admin.DELETE("/bookings/:id", h.Bookings.Delete)
	admin.GET("/orders", h.Orders.List)
	admin.PUT("/orders/:id/status", h.Orders.UpdateStatus)
	admin.DELETE("/orders/:id", h.Orders.Delete)
}
