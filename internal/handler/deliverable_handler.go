package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/estatehub/service-scheduling/internal/application"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/middleware"
	"github.com/estatehub/service-scheduling/internal/platform/response"
)

// DeliverableHandler handles HTTP requests for booking deliverables.
type DeliverableHandler struct {
	service *application.DeliverableService
}

// NewDeliverableHandler creates a new DeliverableHandler.
func NewDeliverableHandler(service *application.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{service: service}
}

// RegisterRoutes registers deliverable routes under /bookings/:id.
func (h *DeliverableHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	deliverables := r.Group("/api/v1/bookings/:id/deliverables")
	deliverables.Use(authMW)
	{
		deliverables.POST("", middleware.RequireRole(auth.RoleProvider, auth.RoleAdmin), h.Attach)
		deliverables.GET("", h.List)
	}
}

// Attach handles POST /api/v1/bookings/:id/deliverables.
func (h *DeliverableHandler) Attach(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	var req application.AttachDeliverableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AttachDeliverable(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// List handles GET /api/v1/bookings/:id/deliverables.
func (h *DeliverableHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "booking")
	if !ok {
		return
	}

	result, err := h.service.ListDeliverables(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
