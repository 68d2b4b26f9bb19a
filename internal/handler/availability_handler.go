package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estatehub/service-scheduling/internal/application"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/middleware"
	"github.com/estatehub/service-scheduling/internal/platform/response"
)

// AvailabilityHandler handles HTTP requests for provider availability.
type AvailabilityHandler struct {
	service *application.AvailabilityService
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(service *application.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// RegisterRoutes registers availability routes. Writes need the admin or
// provider role; ownership is checked by the service.
func (h *AvailabilityHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	writers := middleware.RequireRole(auth.RoleAdmin, auth.RoleProvider)

	availability := r.Group("/api/v1/availability")
	availability.Use(authMW)
	{
		availability.GET("", h.GetAvailability)
		availability.POST("", writers, h.UpsertWindow)
		availability.PUT("", writers, h.UpdateWindow)
		availability.DELETE("", writers, h.DeleteWindow)
	}
}

// GetAvailability handles GET /api/v1/availability.
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	providerID, err := optionalUUID(c, "provider_id")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	q := application.AvailabilityQuery{
		ProviderID:    providerID,
		AvailableOnly: c.Query("available_only") == "true",
	}
	if raw := c.Query("day_of_week"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "day_of_week must be an integer")
			return
		}
		q.DayOfWeek = &day
	}

	result, err := h.service.GetAvailability(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpsertWindow handles POST /api/v1/availability.
func (h *AvailabilityHandler) UpsertWindow(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.UpsertWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpsertWindow(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateWindow handles PUT /api/v1/availability.
func (h *AvailabilityHandler) UpdateWindow(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req application.UpdateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateWindow(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteWindow handles DELETE /api/v1/availability?availability_id=.
func (h *AvailabilityHandler) DeleteWindow(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Query("availability_id"))
	if err != nil {
		response.BadRequest(c, "availability_id is required")
		return
	}

	if err := h.service.DeleteWindow(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "availability deleted"})
}
