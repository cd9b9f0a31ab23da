package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/seatplan/seatplan/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

func adminEmail(c *gin.Context) string {
	if value, ok := c.Get(middleware.CtxAdminEmailKey); ok {
		if email, ok := value.(string); ok {
			return email
		}
	}
	return ""
}
