package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"safepath/internal/apierr"
)

const (
	CtxClaimsKey = "auth_claims"
	// CtxNGOIDKey is read by the request logger.
	CtxNGOIDKey = "ngo_id"
)

func AuthMiddleware(tokens TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			apierr.Respond(c, apierr.Unauthorized("Not authenticated"))
			return
		}

		raw := strings.TrimSpace(h[len("Bearer "):])
		claims, err := tokens.Parse(raw)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				apierr.Respond(c, apierr.Unauthorized("Token has expired"))
				return
			}
			apierr.Respond(c, apierr.Unauthorized("Invalid authentication token"))
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxNGOIDKey, claims.Subject)
		c.Next()
	}
}

// RequireNGO must run after AuthMiddleware.
func RequireNGO() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := MustGetClaims(c)
		if claims == nil {
			apierr.Respond(c, apierr.Unauthorized("Not authenticated"))
			return
		}
		if claims.Role != RoleNGO {
			apierr.Respond(c, apierr.Forbidden("Only NGO accounts can access this resource"))
			return
		}
		c.Next()
	}
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
