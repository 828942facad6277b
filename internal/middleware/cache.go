package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl lets shared caches keep catalog lookups for maxAgeSeconds.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", maxAgeSeconds)
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}

// NoStore marks responses as uncacheable, for admin endpoints.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
