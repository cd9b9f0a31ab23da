package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/seatplan/seatplan/internal/auth"
	"github.com/seatplan/seatplan/internal/database/testutil"
	"github.com/seatplan/seatplan/internal/services"
)

type fakeProvider struct {
	identity    *iauth.Identity
	exchangeErr error
	verifyErr   error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://id.example.com/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (string, error) {
	if p.exchangeErr != nil {
		return "", p.exchangeErr
	}
	return "raw-id-token-" + code, nil
}

func (p *fakeProvider) Verify(_ context.Context, _ string) (*iauth.Identity, error) {
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	return p.identity, nil
}

func newAuthTestRouter(t *testing.T, provider AuthProvider) (*gin.Engine, *iauth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "handler-test-secret-handler-test"})
	require.NoError(t, err)
	admins, err := services.NewAdminService(db, "owner@example.com")
	require.NoError(t, err)

	handler := NewAuthHandler(provider, jwt, admins)
	r := gin.New()
	r.GET("/api/auth/login", handler.Login)
	r.GET("/api/auth/callback", handler.Callback)
	return r, jwt
}

func stateCookie(t *testing.T, r *gin.Engine) (*http.Cookie, string) {
	t.Helper()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			AuthURL string `json:"auth_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.AuthURL)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == stateCookieName {
			return cookie, cookie.Value
		}
	}
	t.Fatal("state cookie not set")
	return nil, ""
}

func TestAuthCallbackIssuesToken(t *testing.T) {
	provider := &fakeProvider{identity: &iauth.Identity{Subject: "sub", Email: "Owner@Example.com", EmailVerified: true}}
	r, jwt := newAuthTestRouter(t, provider)

	cookie, state := stateCookie(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc&state="+state, nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)

	claims, err := jwt.ValidateAccessToken(body.Data.Token)
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", claims.Email)
}

func TestAuthCallbackRejectsBadState(t *testing.T) {
	provider := &fakeProvider{identity: &iauth.Identity{Email: "owner@example.com"}}
	r, _ := newAuthTestRouter(t, provider)

	cookie, _ := stateCookie(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc&state=forged", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthCallbackRejectsUnlistedIdentity(t *testing.T) {
	provider := &fakeProvider{identity: &iauth.Identity{Email: "stranger@example.com"}}
	r, _ := newAuthTestRouter(t, provider)

	cookie, state := stateCookie(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc&state="+state, nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthCallbackExchangeFailure(t *testing.T) {
	provider := &fakeProvider{exchangeErr: errors.New("provider unavailable")}
	r, _ := newAuthTestRouter(t, provider)

	cookie, state := stateCookie(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc&state="+state, nil)
	req.AddCookie(cookie)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthLoginWithoutProvider(t *testing.T) {
	r, _ := newAuthTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
