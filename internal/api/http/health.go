package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness and the state of the backing stores.
// Postgres is required: a failed ping fails readiness. The kanban
// cache is optional, so an absent or unreachable redis only shows up
// as a degraded component.
type HealthHandler struct {
	service string
	version string
	db      *pgxpool.Pool
	cache   *redis.Client
}

func NewHealthHandler(service, version string, db *pgxpool.Pool, cache *redis.Client) *HealthHandler {
	return &HealthHandler{service: service, version: version, db: db, cache: cache}
}

// Live answers as long as the process runs.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": h.service, "version": h.version})
}

// Ready pings both stores within a one-second budget and reports the
// result per component.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "up"
		if err := h.db.Ping(ctx); err != nil {
			dbStatus = "down"
		}
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "up"
		if err := h.cache.Ping(ctx).Err(); err != nil {
			cacheStatus = "down"
		}
	}

	ok := dbStatus != "down"
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ok":         ok,
		"service":    h.service,
		"version":    h.version,
		"checked_at": time.Now().UTC(),
		"components": gin.H{
			"postgres":     dbStatus,
			"kanban_cache": cacheStatus,
		},
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Live)
	r.GET("/health", h.Ready)
}
