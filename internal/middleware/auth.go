package middleware

import (
	"net/http"
	"strings"

	"surveillance/internal/auth"
	"surveillance/pkg/apperror"
	"surveillance/pkg/response"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// bearerToken reads the Authorization header, falling back to the access_token cookie.
func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
			return cookie, ""
		}
		return "", "Authorization is missing"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireAuth validates the access token and stores the caller identity on the context.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := bearerToken(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.KindError(apperror.KindUnauthorized, problem))
			return
		}

		identity, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.KindError(apperror.KindUnauthorized, "Invalid token"))
			return
		}

		c.Set(identityKey, identity)
		c.Set("userID", identity.UserID.String())
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.KindError(apperror.KindUnauthorized, "Authorization is missing"))
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, response.KindError(apperror.KindPermission, "Access denied: admin privileges required"))
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by RequireAuth.
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}
