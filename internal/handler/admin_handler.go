package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/estatehub/service-scheduling/internal/application"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/middleware"
	"github.com/estatehub/service-scheduling/internal/platform/response"
)

// AdminBookingHandler serves the back-office booking views.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers the admin-only booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/number/:number", h.GetByNumber)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings. It takes the same
// filters as GET /api/v1/bookings without scoping to the caller.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	q, ok := bookingListQuery(c)
	if !ok {
		return
	}

	result, err := h.service.ListBookings(c.Request.Context(), actor, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetByNumber handles GET /api/v1/admin/bookings/number/:number.
func (h *AdminBookingHandler) GetByNumber(c *gin.Context) {
	result, err := h.service.GetBookingByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
