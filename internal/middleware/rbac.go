package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/vidyalaya/exam-api/internal/models"
	"github.com/vidyalaya/exam-api/internal/service"
	appErrors "github.com/vidyalaya/exam-api/pkg/errors"
	"github.com/vidyalaya/exam-api/pkg/response"
)

// RequireCapability rejects callers whose role does not hold the capability.
// The services re-check authorization themselves; this guard exists so
// unauthorized requests fail at the edge without touching the datastore.
func RequireCapability(capabilities ...service.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		for _, capability := range capabilities {
			if service.Allowed(capability, claims.Role) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
