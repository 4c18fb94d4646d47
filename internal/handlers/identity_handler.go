package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// IdentityRequest represents the identity request payload
type IdentityRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// IdentityResponse represents the identity response
type IdentityResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssueIdentity signs a token naming the caller's favorites partition.
// There is no password: the token only pins a partition key.
// POST /api/identity
func (h *Handler) IssueIdentity(c *gin.Context) {
	var req IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. userId is required.",
		})
		return
	}

	token, expires, err := h.Identity.Issue(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. userId is required.",
		})
		return
	}

	c.JSON(http.StatusOK, IdentityResponse{
		Token:     token,
		UserID:    req.UserID,
		ExpiresAt: expires.UTC(),
	})
}
