package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/handbook/internal/response"
	"github.com/stemsi/handbook/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
)

var errTokenMissing = errors.New("authorization bearer token required")

// RequireAdminJWT validates an admin JWT from the Authorization header.
func RequireAdminJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := bearerToken(c)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.ValidateAdminToken(tokenStr)
		switch {
		case errors.Is(err, service.ErrNotAdmin):
			response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
			return
		case err != nil:
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

func bearerToken(c *gin.Context) (string, error) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errTokenMissing
	}
	return strings.TrimSpace(parts[1]), nil
}
