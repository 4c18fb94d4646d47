package routes

import (
	"net/http"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/gin-gonic/gin"

	"pokedex-api/internal/handlers"
	"pokedex-api/internal/middleware"
)

// SetupRoutes builds the router for every endpoint of the service.
func SetupRoutes(h *handlers.Handler, tokens middleware.TokenParser, log *bolt.Logger) *gin.Engine {
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(log))

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	ginRouter.GET("/health", h.Health)
	ginRouter.GET("/health/upstream", h.UpstreamHealth)

	api := ginRouter.Group("/api")
	{
		api.GET("/pokemon", h.ListPokemon)
		api.GET("/pokemon/:nameOrId", h.GetPokemon)
		api.GET("/search", h.SearchPokemon)
		api.GET("/search/:query", h.SearchPokemon)

		api.POST("/identity", h.IssueIdentity)

		api.GET("/cache/stats", h.CacheStats)
		api.DELETE("/cache", h.ClearCache)
	}

	// Favorites are partitioned by the caller's identity
	favoriteRoutes := api.Group("/favorites")
	favoriteRoutes.Use(middleware.Identity(tokens))
	{
		favoriteRoutes.GET("", h.ListFavorites)
		favoriteRoutes.POST("", h.AddFavorite)
		favoriteRoutes.POST("/toggle", h.ToggleFavorite)
		favoriteRoutes.DELETE("/:pokemonId", h.RemoveFavorite)
		favoriteRoutes.GET("/check/:pokemonId", h.CheckFavorite)
		favoriteRoutes.GET("/ws", h.FavoritesStream)
	}

	ginRouter.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return ginRouter
}
