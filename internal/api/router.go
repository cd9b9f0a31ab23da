package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/app"
	iauth "github.com/seatplan/seatplan/internal/auth"
	"github.com/seatplan/seatplan/internal/handlers"
	"github.com/seatplan/seatplan/internal/middleware"
	"github.com/seatplan/seatplan/internal/services"
	"github.com/seatplan/seatplan/pkg/mail"
)

// NewRouter builds the Gin engine, wires middleware and registers every
// public and admin route.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, mailer mail.Mailer, provider handlers.AuthProvider) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	links := services.NewLinkBuilder(cfg.Server.BaseURL)

	templateService, err := services.NewTemplateService(db)
	if err != nil {
		return nil, err
	}
	surveyService, err := services.NewSurveyService(db, links)
	if err != nil {
		return nil, err
	}
	reservationService, err := services.NewReservationService(db, mailer, templateService, links)
	if err != nil {
		return nil, err
	}
	cancellationService, err := services.NewCancellationService(db)
	if err != nil {
		return nil, err
	}
	reminderService, err := services.NewReminderService(db, mailer, templateService, links)
	if err != nil {
		return nil, err
	}
	adminService, err := services.NewAdminService(db, cfg.Auth.SuperAdminEmail)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	r.NoRoute(middleware.NotFoundHandler)

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(provider, jwt, adminService)
	surveyHandler := handlers.NewSurveyHandler(surveyService, reservationService)
	reservationHandler := handlers.NewReservationHandler(surveyService, reservationService)
	cancellationHandler := handlers.NewCancellationHandler(cancellationService)
	reminderHandler := handlers.NewReminderHandler(reminderService)
	templateHandler := handlers.NewTemplateHandler(templateService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Public routes: the seating page and tokenized cancellation. A light
	// rate limit keeps scripted seat grabbing in check.
	public := r.Group("/api/public")
	public.Use(middleware.RateLimit(60, time.Minute))
	{
		public.GET("/surveys/:link", reservationHandler.SeatMap)
		public.POST("/surveys/:link/reserve", reservationHandler.Reserve)
		public.GET("/cancellation", cancellationHandler.Lookup)
		public.POST("/cancellation", cancellationHandler.Cancel)
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.GET("/login", authHandler.Login)
		auth.GET("/callback", authHandler.Callback)
	}

	// Protected admin routes
	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)
	api.GET("/stats", surveyHandler.Stats)

	surveys := api.Group("/surveys")
	{
		surveys.GET("", surveyHandler.List)
		surveys.POST("", surveyHandler.Create)
		surveys.GET("/:id", surveyHandler.Get)
		surveys.PATCH("/:id", surveyHandler.Update)
		surveys.DELETE("/:id", surveyHandler.Delete)
		surveys.GET("/:id/qrcode", surveyHandler.QRCode)
		surveys.GET("/:id/participants", surveyHandler.Participants)
		surveys.POST("/:id/participants/:participantId/cancel", surveyHandler.CancelParticipant)
		surveys.POST("/:id/participants/:participantId/resend-confirmation", surveyHandler.ResendConfirmation)
		surveys.POST("/:id/reminders", reminderHandler.Broadcast)
	}

	templates := api.Group("/templates")
	{
		templates.GET("", templateHandler.List)
		templates.POST("", templateHandler.Create)
		templates.GET("/:id", templateHandler.Get)
		templates.PATCH("/:id", templateHandler.Update)
		templates.POST("/:id/default", templateHandler.SetDefault)
		templates.DELETE("/:id", templateHandler.Delete)
	}

	admins := api.Group("/admins")
	admins.Use(middleware.RequireSuperAdmin())
	{
		admins.GET("", adminHandler.List)
		admins.POST("", adminHandler.Add)
		admins.PATCH("/:id", adminHandler.SetActive)
		admins.DELETE("/:id", adminHandler.Delete)
	}

	return r, nil
}
