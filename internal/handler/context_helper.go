package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/middleware"
	"github.com/noah-isme/mannsetu-api/internal/models"
	appErrors "github.com/noah-isme/mannsetu-api/pkg/errors"
	"github.com/noah-isme/mannsetu-api/pkg/response"
)

// claimsFromContext returns the caller set by middleware.JWT, or nil on public
// routes. Services reject nil claims as unauthorized.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, _ := c.Get(middleware.ContextUserKey)
	typed, _ := claims.(*models.JWTClaims)
	return typed
}

// bindJSON decodes the body into dst. On failure it writes a 400 with message
// and returns false.
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// clientMeta captures the caller's address and agent for audit rows.
func clientMeta(c *gin.Context) (ip, userAgent string) {
	return c.ClientIP(), c.GetHeader("User-Agent")
}
