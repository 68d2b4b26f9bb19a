package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/estatehub/service-scheduling/internal/application"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/middleware"
	"github.com/estatehub/service-scheduling/internal/platform/response"
)

// ProviderHandler handles HTTP requests for the provider registry.
type ProviderHandler struct {
	service *application.ProviderService
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(service *application.ProviderService) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// RegisterRoutes registers all provider routes.
func (h *ProviderHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	providers := r.Group("/api/v1/providers")
	providers.Use(authMW)
	{
		providers.POST("", adminRole, h.CreateProvider)
		providers.GET("", h.ListProviders)
		providers.GET("/:id", h.GetProvider)
		providers.PUT("/:id", h.UpdateProvider)
		providers.DELETE("/:id", adminRole, h.DeactivateProvider)
	}
}

// CreateProvider registers a provider profile.
func (h *ProviderHandler) CreateProvider(c *gin.Context) {
	var req application.CreateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateProvider(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListProviders lists providers, optionally filtered by kind.
func (h *ProviderHandler) ListProviders(c *gin.Context) {
	page, limit := parsePagination(c)
	result, err := h.service.ListProviders(c.Request.Context(), application.ProviderListQuery{
		Kind:       c.Query("kind"),
		ActiveOnly: c.Query("active_only") == "true",
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetProvider returns a single provider.
func (h *ProviderHandler) GetProvider(c *gin.Context) {
	id, ok := pathID(c, "provider")
	if !ok {
		return
	}

	result, err := h.service.GetProvider(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateProvider updates a profile. Providers may edit their own.
func (h *ProviderHandler) UpdateProvider(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "provider")
	if !ok {
		return
	}

	var req application.UpdateProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateProvider(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeactivateProvider takes a provider out of assignment.
func (h *ProviderHandler) DeactivateProvider(c *gin.Context) {
	id, ok := pathID(c, "provider")
	if !ok {
		return
	}

	if err := h.service.DeactivateProvider(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "provider deactivated"})
}
