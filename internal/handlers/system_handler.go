package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pokedex-api/internal/logging"
	"pokedex-api/internal/middleware"
)

// isoMillis matches the timestamp layout browsers produce with toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func timestamp() string {
	return time.Now().UTC().Format(isoMillis)
}

// Health reports that the process is serving.
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": timestamp(),
	})
}

// UpstreamHealth pings the catalog API without touching the cache.
// GET /health/upstream
func (h *Handler) UpstreamHealth(c *gin.Context) {
	if err := h.Upstream.Ping(c.Request.Context()); err != nil {
		logging.With(h.logger().Warn(),
			logging.RequestID(middleware.GetRequestID(c)),
			logging.ErrorField(err),
		).Msg("upstream ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "UNAVAILABLE",
			"upstream":  "unreachable",
			"timestamp": timestamp(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"upstream":  "reachable",
		"timestamp": timestamp(),
	})
}

// CacheStats returns the cache counters.
// GET /api/cache/stats
func (h *Handler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Cache.Stats())
}

// ClearCache drops every cached entry, including the name snapshot.
// DELETE /api/cache
func (h *Handler) ClearCache(c *gin.Context) {
	h.Cache.FlushAll()
	logging.With(h.logger().Info(), logging.RequestID(middleware.GetRequestID(c))).Msg("cache flushed")
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared successfully"})
}
