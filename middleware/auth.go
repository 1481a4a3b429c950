package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

const principalKey = "principal"

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Principal, error)
}

// Authenticate rejects requests without a valid session token.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			utils.AbortJSONError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token := strings.TrimSpace(authz[len("bearer "):])

		p, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				utils.AbortJSONError(c, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			LoggerFrom(c).Error("authenticate", zap.Error(err))
			utils.AbortJSONError(c, http.StatusInternalServerError, "internal server error")
			return
		}

		c.Set(principalKey, p)
		c.Set(loggerKey, LoggerFrom(c).With(zap.Uint("user_id", p.ID)))
		c.Next()
	}
}

// CurrentPrincipal returns the caller set by Authenticate.
func CurrentPrincipal(c *gin.Context) (*services.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*services.Principal)
	return p, ok
}

// RequireRoles lets through callers holding one of roles; no roles means any
// authenticated caller.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			utils.AbortJSONError(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if len(roles) == 0 {
			c.Next()
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		utils.AbortJSONError(c, http.StatusForbidden, "you are not allowed to perform this action")
	}
}

// RequirePasswordRotated blocks users still on a temporary password from
// everything outside the auth and self-service routes.
func RequirePasswordRotated(allowedPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok || !p.MustChangePassword {
			c.Next()
			return
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		for _, prefix := range allowedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}
		utils.AbortJSONError(c, http.StatusForbidden, services.ErrPasswordChangeRequired.Code)
	}
}
