package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler serves liveness and readiness probes.
type Handler struct {
	db      *gorm.DB
	redis   *redis.Client
	service string
}

// NewHandler creates a health Handler. db and rdb may be nil when the
// corresponding backend is not configured.
func NewHandler(db *gorm.DB, rdb *redis.Client, service string) *Handler {
	return &Handler{db: db, redis: rdb, service: service}
}

// RegisterRoutes registers /health and /health/ready.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Live)
	r.GET("/health/ready", h.Ready)
}

// Live always reports ok while the process is serving.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready pings every configured backend.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if h.db != nil {
		status := "ok"
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status = "unavailable"
			healthy = false
		}
		checks["database"] = status
	}
	if h.redis != nil {
		status := "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status = "unavailable"
			healthy = false
		}
		checks["redis"] = status
	}

	code := http.StatusOK
	overall := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(code, gin.H{"status": overall, "service": h.service, "checks": checks})
}
