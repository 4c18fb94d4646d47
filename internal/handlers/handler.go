package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/felixgeelhaar/bolt/v3"
	"github.com/gin-gonic/gin"

	"pokedex-api/internal/cache"
	"pokedex-api/internal/favorites"
	"pokedex-api/internal/logging"
	"pokedex-api/internal/middleware"
	"pokedex-api/internal/models"
	"pokedex-api/internal/realtime"
	"pokedex-api/internal/upstream"
)

const (
	defaultOffset = 0
	defaultLimit  = 20
)

// Catalog serves list, search and detail lookups.
type Catalog interface {
	ListPage(ctx context.Context, offset, limit int) (models.Page, error)
	Search(ctx context.Context, query string) (models.SearchResult, error)
	Detail(ctx context.Context, nameOrID string) (models.Pokemon, error)
	Records(ctx context.Context, ids []int) []models.DetailRecord
}

// Favorites manages per-identity favorites.
type Favorites interface {
	List(ctx context.Context, user string) ([]int, error)
	IsFavorite(ctx context.Context, user string, id int) (bool, error)
	Add(ctx context.Context, user string, id int) (favorites.Result, error)
	Remove(ctx context.Context, user string, id int) (favorites.Result, error)
	Toggle(ctx context.Context, user string, id int) (favorites.Result, error)
}

// CacheAdmin exposes cache statistics and flushing.
type CacheAdmin interface {
	Stats() cache.Stats
	FlushAll()
}

// Pinger checks upstream liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TokenIssuer issues identity tokens.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// Handler carries the dependencies of every HTTP endpoint.
type Handler struct {
	Catalog      Catalog
	Favorites    Favorites
	Cache        CacheAdmin
	Upstream     Pinger
	Hub          *realtime.Hub
	Identity     TokenIssuer
	MaxPageLimit int
	Log          *bolt.Logger
}

func (h *Handler) logger() *bolt.Logger {
	if h.Log == nil {
		return logging.Get()
	}
	return h.Log
}

// respondError maps pipeline errors onto status codes. Anything not recognized
// is logged and answered with 500 and the endpoint's fallback message.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query must be at least 2 characters"})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid pokemonId is required"})
	case upstream.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Pokémon not found"})
	default:
		logging.With(h.logger().Error(),
			logging.RequestID(middleware.GetRequestID(c)),
			logging.ErrorField(err),
		).Str("path", c.Request.URL.Path).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// queryInt parses a non-negative integer query param, falling back on anything else.
func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// pathID parses a positive integer path param.
func pathID(c *gin.Context, key string) (int, bool) {
	n, err := strconv.Atoi(c.Param(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
