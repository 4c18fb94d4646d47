package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListPokemon returns one enriched page of the catalog.
// GET /api/pokemon?offset=0&limit=20
func (h *Handler) ListPokemon(c *gin.Context) {
	offset := queryInt(c, "offset", defaultOffset)
	limit := queryInt(c, "limit", defaultLimit)
	if limit == 0 {
		limit = defaultLimit
	}
	if h.MaxPageLimit > 0 && limit > h.MaxPageLimit {
		limit = h.MaxPageLimit
	}

	page, err := h.Catalog.ListPage(c.Request.Context(), offset, limit)
	if err != nil {
		h.respondError(c, err, "Error fetching Pokémon list")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetPokemon returns the full record of one item.
// GET /api/pokemon/:nameOrId
func (h *Handler) GetPokemon(c *gin.Context) {
	p, err := h.Catalog.Detail(c.Request.Context(), c.Param("nameOrId"))
	if err != nil {
		h.respondError(c, err, "Error fetching Pokémon details")
		return
	}
	c.JSON(http.StatusOK, p)
}

// SearchPokemon matches names by substring.
// GET /api/search/:query, the q query param takes precedence
func (h *Handler) SearchPokemon(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		query = c.Param("query")
	}

	res, err := h.Catalog.Search(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err, "Error searching Pokémon")
		return
	}
	c.JSON(http.StatusOK, res)
}
