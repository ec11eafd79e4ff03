package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/remind-me/personal/pkg/errors"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	TokenQueryParam     = "token"
)

// AuthMiddleware checks the shared API token. Browsers cannot set headers on
// a websocket handshake, so the token may also arrive as ?token=. An empty
// token disables the check.
func AuthMiddleware(apiToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiToken == "" {
			c.Next()
			return
		}

		provided := c.Query(TokenQueryParam)
		if authHeader := c.GetHeader(AuthorizationHeader); authHeader != "" {
			if !strings.HasPrefix(authHeader, BearerPrefix) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": errors.ErrUnauthorized,
				})
				return
			}
			provided = strings.TrimPrefix(authHeader, BearerPrefix)
		}

		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": errors.ErrUnauthorized,
			})
			return
		}

		c.Next()
	}
}
