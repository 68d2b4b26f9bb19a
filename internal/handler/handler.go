package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/domain"
	"github.com/estatehub/service-scheduling/internal/platform/middleware"
	"github.com/estatehub/service-scheduling/internal/platform/response"
)

var errUnauthorized = domain.NewUnauthorizedError("unauthorized")

// actorFrom returns the caller resolved by the auth middleware. It writes a
// 401 when no caller is present.
func actorFrom(c *gin.Context) (auth.Context, bool) {
	actor, ok := middleware.GetAuthContext(c)
	if !ok {
		response.Error(c, errUnauthorized)
		return auth.Context{}, false
	}
	return actor, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}

// optionalUUID parses an optional UUID query parameter.
func optionalUUID(c *gin.Context, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	return &id, nil
}

// optionalTime parses an optional RFC 3339 query parameter.
func optionalTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}
