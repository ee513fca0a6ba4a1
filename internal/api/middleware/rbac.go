package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
)

// RequireAdmin rejects callers that are not administrators. It must run
// after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c.Request.Context())
		if !ok {
			abortWithError(c, http.StatusUnauthorized, apperrors.CodeUnauthorized, "authentication required")
			return
		}
		if !actor.IsAdmin {
			abortWithError(c, http.StatusForbidden, apperrors.CodeForbidden, "administrator role required")
			return
		}
		c.Next()
	}
}
