package middleware

import (
	"github.com/gin-gonic/gin"

	appauth "github.com/qbankhq/qbank/internal/app/auth"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
	"github.com/qbankhq/qbank/internal/pkg/auth"
	"github.com/qbankhq/qbank/internal/pkg/session"
)

// principalKey is where the authenticated principal lives in the gin context
const principalKey = "principal"

// AuthMiddleware validates the bearer token and requires a live session
// record; a logged-out token is rejected even before it expires. On
// success the principal is attached to the request context.
func AuthMiddleware(jwtService *auth.JWTService, sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		record, err := sessions.Get(c.Request.Context(), claims.ID)
		if err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		SetPrincipal(c, appauth.Principal{
			UserID:    record.UserID,
			Username:  record.Username,
			Role:      record.Role,
			SessionID: claims.ID,
		})

		c.Next()
	}
}

// RequireRole rejects requests whose principal does not meet the given
// role in the user < superuser < supremeuser hierarchy
func RequireRole(required models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			HandleAPIError(c, apperrors.ErrTokenInvalid)
			c.Abort()
			return
		}

		if !appauth.RoleAtLeast(principal.Role, required) {
			HandleAPIError(c, apperrors.ErrPermissionDenied)
			c.Abort()
			return
		}

		c.Next()
	}
}

// SetPrincipal attaches a principal to the request context
func SetPrincipal(c *gin.Context, principal appauth.Principal) {
	c.Set(principalKey, principal)
}

// GetPrincipal returns the principal set by AuthMiddleware
func GetPrincipal(c *gin.Context) (appauth.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return appauth.Principal{}, false
	}
	principal, ok := value.(appauth.Principal)
	return principal, ok
}
