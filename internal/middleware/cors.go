package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware lets the web client, served from one of origins, call the
// API. Requests without an Origin header (the CLI, curl) pass through.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowOrigins = origins
	config.AllowWildcard = true
	config.AllowCredentials = true
	config.AddAllowHeaders("Authorization", "Sec-WebSocket-Protocol")
	config.MaxAge = 12 * time.Hour

	handler := cors.New(config)
	return func(c *gin.Context) {
		if c.GetHeader("Origin") == "" {
			c.Next()
			return
		}
		handler(c)
	}
}
