package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/app"
	iauth "github.com/seatplan/seatplan/internal/auth"
	"github.com/seatplan/seatplan/internal/database/testutil"
	"github.com/seatplan/seatplan/internal/models"
	"github.com/seatplan/seatplan/pkg/mail"
)

type captureMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func testConfig() *app.Config {
	cfg := &app.Config{}
	cfg.Server.BaseURL = "https://events.example.com"
	cfg.Auth.SuperAdminEmail = "owner@example.com"
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"
	return cfg
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *iauth.JWTService, *captureMailer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "router-test-secret-router-test-1"})
	require.NoError(t, err)
	mailer := &captureMailer{}

	r, err := NewRouter(db, jwt, testConfig(), mailer, nil)
	require.NoError(t, err)
	return r, db, jwt, mailer
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func adminToken(t *testing.T, jwt *iauth.JWTService, role string) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{
		AdminID: "admin-1",
		Email:   "owner@example.com",
		Role:    role,
	})
	require.NoError(t, err)
	return token
}

func seedActiveSurvey(t *testing.T, db *gorm.DB) *models.Survey {
	t.Helper()

	date := time.Now().UTC().Add(30 * 24 * time.Hour)
	survey := &models.Survey{
		Title:           "Launch Party",
		Location:        "Rooftop",
		Date:            &date,
		Time:            "20:00",
		MaxParticipants: 6,
		TableShape:      models.TableShapeRound,
		Status:          models.SurveyStatusActive,
		SurveyLink:      "abc123def4567",
	}
	require.NoError(t, db.Create(survey).Error)
	return survey
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	r, _, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")

	w = doJSON(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPublicReservationFlow(t *testing.T) {
	r, db, _, mailer := newTestRouter(t)
	survey := seedActiveSurvey(t, db)

	// Seat map shows every seat free.
	w := doJSON(t, r, http.MethodGet, "/api/public/surveys/"+survey.SurveyLink, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"open":true`)

	// Reserve a seat.
	w = doJSON(t, r, http.MethodPost, "/api/public/surveys/"+survey.SurveyLink+"/reserve", "", gin.H{
		"seat_number": 2,
		"name":        "Dana Levi",
		"email":       "dana@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, mailer.count())
	require.Contains(t, w.Body.String(), "/ThankYou?surveyId="+survey.ID)

	// Same seat again conflicts.
	w = doJSON(t, r, http.MethodPost, "/api/public/surveys/"+survey.SurveyLink+"/reserve", "", gin.H{
		"seat_number": 2,
		"name":        "Someone Else",
		"email":       "else@example.com",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "reservation.seat_taken")

	// The seat map masks the occupant.
	w = doJSON(t, r, http.MethodGet, "/api/public/surveys/"+survey.SurveyLink, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "תפוס")
	require.NotContains(t, w.Body.String(), "Dana Levi")
	require.NotContains(t, w.Body.String(), "dana@example.com")

	// Cancellation via the emailed token.
	var participant models.Participant
	require.NoError(t, db.First(&participant, "email = ?", "dana@example.com").Error)

	w = doJSON(t, r, http.MethodGet, "/api/public/cancellation?token="+participant.CancellationToken, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Launch Party")

	w = doJSON(t, r, http.MethodPost, "/api/public/cancellation?token="+participant.CancellationToken, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Token is spent.
	w = doJSON(t, r, http.MethodPost, "/api/public/cancellation?token="+participant.CancellationToken, "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "cancellation.invalid_token")
}

func TestPublicValidation(t *testing.T) {
	r, db, _, _ := newTestRouter(t)
	survey := seedActiveSurvey(t, db)

	w := doJSON(t, r, http.MethodGet, "/api/public/surveys/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "survey.not_found")

	w = doJSON(t, r, http.MethodPost, "/api/public/surveys/"+survey.SurveyLink+"/reserve", "", gin.H{
		"seat_number": 1,
		"name":        "No Email",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	r, _, jwt, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/surveys", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	token := adminToken(t, jwt, models.AdminRoleAdmin)
	w = doJSON(t, r, http.MethodGet, "/api/surveys", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminSurveyLifecycle(t *testing.T) {
	r, _, jwt, _ := newTestRouter(t)
	token := adminToken(t, jwt, models.AdminRoleAdmin)

	w := doJSON(t, r, http.MethodPost, "/api/surveys", token, gin.H{
		"title":            "Team Dinner",
		"max_participants": 10,
		"status":           "active",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.Survey `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Data.SurveyLink, 13)

	w = doJSON(t, r, http.MethodPatch, "/api/surveys/"+created.Data.ID, token, gin.H{
		"status": "closed",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/surveys/%s/qrcode?size=128", created.Data.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = doJSON(t, r, http.MethodDelete, "/api/surveys/"+created.Data.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/surveys/"+created.Data.ID, token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReminderBroadcastRoute(t *testing.T) {
	r, db, jwt, mailer := newTestRouter(t)
	token := adminToken(t, jwt, models.AdminRoleAdmin)
	survey := seedActiveSurvey(t, db)

	// No confirmed participants yet.
	w := doJSON(t, r, http.MethodPost, "/api/surveys/"+survey.ID+"/reminders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"no_recipients":true`)

	require.NoError(t, db.Create(&models.Participant{
		SurveyID:          survey.ID,
		SeatNumber:        1,
		Name:              "Guest",
		Email:             "guest@example.com",
		Status:            models.ParticipantStatusConfirmed,
		CancellationToken: "tok-reminder-1",
	}).Error)

	w = doJSON(t, r, http.MethodPost, "/api/surveys/"+survey.ID+"/reminders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"sent":1`)
	require.Equal(t, 1, mailer.count())
}

func TestAdminManagementRequiresSuperAdmin(t *testing.T) {
	r, _, jwt, _ := newTestRouter(t)

	regular := adminToken(t, jwt, models.AdminRoleAdmin)
	w := doJSON(t, r, http.MethodGet, "/api/admins", regular, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	super := adminToken(t, jwt, models.AdminRoleSuperAdmin)
	w = doJSON(t, r, http.MethodPost, "/api/admins", super, gin.H{"email": "helper@example.com"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/admins", super, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "helper@example.com")
}

func TestTemplateRoutes(t *testing.T) {
	r, _, jwt, _ := newTestRouter(t)
	token := adminToken(t, jwt, models.AdminRoleAdmin)

	w := doJSON(t, r, http.MethodPost, "/api/templates", token, gin.H{
		"subject": "See you at {event_title}",
		"body":    "Hello {name}",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.EmailTemplate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPost, "/api/templates/"+created.Data.ID+"/default", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"is_default":true`)

	w = doJSON(t, r, http.MethodDelete, "/api/templates/"+created.Data.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}
