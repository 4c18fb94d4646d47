package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pokedex-api/internal/middleware"
)

// FavoriteRequest is the body of the favorites mutations.
type FavoriteRequest struct {
	PokemonID int    `json:"pokemonId" binding:"required"`
	UserID    string `json:"userId"`
}

// bodyUser lets an unverified caller name its partition in the body.
func bodyUser(c *gin.Context, req FavoriteRequest) string {
	if !middleware.Verified(c) {
		if u := strings.TrimSpace(req.UserID); u != "" {
			return u
		}
	}
	return middleware.UserID(c)
}

func bindFavorite(c *gin.Context) (FavoriteRequest, bool) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid pokemonId is required"})
		return req, false
	}
	return req, true
}

// ListFavorites returns the caller's favorites, enriched.
// GET /api/favorites
func (h *Handler) ListFavorites(c *gin.Context) {
	ids, err := h.Favorites.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, err, "Error fetching favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(ids),
		"results": h.Catalog.Records(c.Request.Context(), ids),
	})
}

// AddFavorite adds an item to the caller's favorites.
// POST /api/favorites
func (h *Handler) AddFavorite(c *gin.Context) {
	req, ok := bindFavorite(c)
	if !ok {
		return
	}
	res, err := h.Favorites.Add(c.Request.Context(), bodyUser(c, req), req.PokemonID)
	if err != nil {
		h.respondError(c, err, "Error adding favorite")
		return
	}
	c.JSON(http.StatusOK, res)
}

// RemoveFavorite removes an item from the caller's favorites.
// DELETE /api/favorites/:pokemonId
func (h *Handler) RemoveFavorite(c *gin.Context) {
	id, ok := pathID(c, "pokemonId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid pokemonId is required"})
		return
	}
	res, err := h.Favorites.Remove(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.respondError(c, err, "Error removing favorite")
		return
	}
	c.JSON(http.StatusOK, res)
}

// ToggleFavorite flips an item in the caller's favorites.
// POST /api/favorites/toggle
func (h *Handler) ToggleFavorite(c *gin.Context) {
	req, ok := bindFavorite(c)
	if !ok {
		return
	}
	res, err := h.Favorites.Toggle(c.Request.Context(), bodyUser(c, req), req.PokemonID)
	if err != nil {
		h.respondError(c, err, "Error toggling favorite")
		return
	}
	c.JSON(http.StatusOK, res)
}

// CheckFavorite reports whether an item is in the caller's favorites.
// GET /api/favorites/check/:pokemonId
func (h *Handler) CheckFavorite(c *gin.Context) {
	id, ok := pathID(c, "pokemonId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid pokemonId is required"})
		return
	}
	fav, err := h.Favorites.IsFavorite(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.respondError(c, err, "Error checking favorite status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pokemonId": id, "isFavorite": fav})
}
