package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/karanveer09/unilink/backend/internal/models"
)

// getUserIDFromContext returns the authenticated user's id set by the JWT
// middleware, or "" when the request is unauthenticated.
func getUserIDFromContext(c echo.Context) string {
	if id, ok := c.Get("userID").(string); ok {
		return id
	}
	return ""
}

// getClaimsFromContext returns the full JWT claims, or nil when absent.
func getClaimsFromContext(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get("user").(*models.JwtCustomClaims)
	return claims
}
