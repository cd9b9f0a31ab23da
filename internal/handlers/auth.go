package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/seatplan/seatplan/internal/auth"
	"github.com/seatplan/seatplan/internal/middleware"
	"github.com/seatplan/seatplan/internal/services"
	appErrors "github.com/seatplan/seatplan/pkg/errors"
	"github.com/seatplan/seatplan/pkg/response"
)

const stateCookieName = "seatplan_oauth_state"

// AuthProvider is the slice of the external OpenID Connect bridge the auth
// handler needs. Implemented by auth.OIDCVerifier.
type AuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	Verify(ctx context.Context, rawIDToken string) (*iauth.Identity, error)
}

// AuthHandler bridges the external authentication provider onto dashboard sessions.
type AuthHandler struct {
	provider AuthProvider
	jwt      *iauth.JWTService
	admins   *services.AdminService
}

func NewAuthHandler(provider AuthProvider, jwt *iauth.JWTService, admins *services.AdminService) *AuthHandler {
	return &AuthHandler{provider: provider, jwt: jwt, admins: admins}
}

// Login starts the external authentication flow.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.provider == nil {
		response.Error(c, appErrors.New("auth.disabled", "External authentication is not configured", http.StatusServiceUnavailable))
		return
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		response.Error(c, err)
		return
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, 600, "/", "", false, true)
	response.Success(c, http.StatusOK, gin.H{"auth_url": h.provider.AuthCodeURL(state)})
}

// Callback completes the flow: it validates state, exchanges the code for an
// ID token, checks the identity against the admin allow-list and issues a
// dashboard session token.
func (h *AuthHandler) Callback(c *gin.Context) {
	if h.provider == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	state := c.Query("state")
	cookie, err := c.Cookie(stateCookieName)
	if err != nil || state == "" || state != cookie {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ctx := requestContext(c)
	rawIDToken, err := h.provider.Exchange(ctx, code)
	if err != nil {
		response.Error(c, appErrors.ErrUnauthorized.WithInternal(err))
		return
	}

	identity, err := h.provider.Verify(ctx, rawIDToken)
	if err != nil {
		response.Error(c, appErrors.ErrUnauthorized.WithInternal(err))
		return
	}

	admin, err := h.admins.Authorize(ctx, *identity)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    admin.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"admin": admin,
	})
}

// Me echoes the authenticated admin identity carried by the session token.
func (h *AuthHandler) Me(c *gin.Context) {
	value, ok := c.Get(middleware.CtxClaimsKey)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	claims, ok := value.(*iauth.Claims)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":    claims.AdminID,
		"email": claims.Email,
		"role":  claims.Role,
	})
}
