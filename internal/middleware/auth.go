package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/seatplan/seatplan/internal/auth"
	"github.com/seatplan/seatplan/internal/models"
	"github.com/seatplan/seatplan/pkg/errors"
	"github.com/seatplan/seatplan/pkg/response"
)

const (
	CtxClaimsKey     = "authClaims"
	CtxAdminIDKey    = "adminID"
	CtxAdminEmailKey = "adminEmail"
	CtxAdminRoleKey  = "adminRole"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxAdminIDKey, claims.AdminID)
		c.Set(CtxAdminEmailKey, claims.Email)
		c.Set(CtxAdminRoleKey, claims.Role)

		c.Next()
	}
}

// RequireSuperAdmin restricts a route to the super admin role. It must run
// after Auth.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(CtxAdminRoleKey)
		if role != models.AdminRoleSuperAdmin {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
