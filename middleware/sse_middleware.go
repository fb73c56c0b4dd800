package middleware

import (
	"github.com/gin-gonic/gin"
)

// SSEMiddleware sets the event-stream headers for routes that stream run
// progress. The handler itself writes the events.
func SSEMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

		c.Next()
	}
}
