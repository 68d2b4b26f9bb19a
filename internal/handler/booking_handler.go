package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/estatehub/service-scheduling/internal/application"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/middleware"
	"github.com/estatehub/service-scheduling/internal/platform/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.PUT("", h.UpdateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateBooking handles PUT /api/v1/bookings (status transitions).
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateStatus(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBookings handles GET /api/v1/bookings. Results are scoped to the caller.
func (h *BookingHandler) ListBookings(c *gin.Context) {
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

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// bookingListQuery reads the list filters shared by the booking and admin
// listings. It writes a 400 and returns false on malformed input.
func bookingListQuery(c *gin.Context) (application.BookingListQuery, bool) {
	providerID, err := optionalUUID(c, "provider_id")
	if err != nil {
		response.BadRequest(c, err.Error())
		return application.BookingListQuery{}, false
	}
	from, err := optionalTime(c, "from")
	if err != nil {
		response.BadRequest(c, err.Error())
		return application.BookingListQuery{}, false
	}
	to, err := optionalTime(c, "to")
	if err != nil {
		response.BadRequest(c, err.Error())
		return application.BookingListQuery{}, false
	}
	if from != nil && to != nil && to.Before(*from) {
		response.BadRequest(c, "to must not be before from")
		return application.BookingListQuery{}, false
	}
	page, limit := parsePagination(c)

	return application.BookingListQuery{
		ProviderID: providerID,
		Status:     c.Query("status"),
		From:       from,
		To:         to,
		Page:       page,
		Limit:      limit,
	}, true
}
