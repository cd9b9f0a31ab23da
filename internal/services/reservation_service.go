package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/models"
	apperrors "github.com/seatplan/seatplan/pkg/errors"
	"github.com/seatplan/seatplan/pkg/logger"
	"github.com/seatplan/seatplan/pkg/mail"
	"github.com/seatplan/seatplan/pkg/metrics"
)

// ReservationOption customises ReservationService behaviour.
type ReservationOption func(*ReservationService)

// WithReservationClock injects a custom clock primarily for testing.
func WithReservationClock(clock func() time.Time) ReservationOption {
	return func(s *ReservationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ReservationService handles public seat reservations and their
// confirmation emails.
type ReservationService struct {
	db        *gorm.DB
	mailer    mail.Mailer
	templates *TemplateService
	links     *LinkBuilder
	now       func() time.Time
}

func NewReservationService(db *gorm.DB, mailer mail.Mailer, templates *TemplateService, links *LinkBuilder, opts ...ReservationOption) (*ReservationService, error) {
	if db == nil {
		return nil, errors.New("reservation service: db is required")
	}
	if templates == nil {
		return nil, errors.New("reservation service: template service is required")
	}
	if links == nil {
		return nil, errors.New("reservation service: link builder is required")
	}

	service := &ReservationService{
		db:        db,
		mailer:    mailer,
		templates: templates,
		links:     links,
		now:       defaultClock,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// ReserveInput carries a public seat claim against a survey's shareable link.
type ReserveInput struct {
	SurveyLink string
	SeatNumber int
	Name       string
	Email      string
	Phone      string
}

// Reserve claims a seat for a participant. The claim is committed before any
// email is attempted: a delivery failure never rolls back the reservation.
func (s *ReservationService) Reserve(ctx context.Context, input ReserveInput) (*models.Participant, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		metrics.Reservations.WithLabelValues("error").Inc()
		return nil, apperrors.NewBadRequest("Name is required")
	}
	if email == "" {
		metrics.Reservations.WithLabelValues("error").Inc()
		return nil, apperrors.NewBadRequest("Email is required")
	}

	survey, err := resolvePublicSurvey(s.db.WithContext(ctx), input.SurveyLink)
	if err != nil {
		metrics.Reservations.WithLabelValues("error").Inc()
		if errors.Is(err, apperrors.ErrSurveyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reservation service: load survey: %w", err)
	}

	if !survey.IsOpen() {
		metrics.Reservations.WithLabelValues("closed").Inc()
		return nil, apperrors.ErrSurveyClosed
	}
	if input.SeatNumber < 1 || input.SeatNumber > survey.MaxParticipants {
		metrics.Reservations.WithLabelValues("error").Inc()
		return nil, apperrors.NewBadRequest(fmt.Sprintf("Seat number must be between 1 and %d", survey.MaxParticipants))
	}

	token, err := generateToken()
	if err != nil {
		metrics.Reservations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reservation service: generate token: %w", err)
	}

	participant := models.Participant{
		SurveyID:          survey.ID,
		SeatNumber:        input.SeatNumber,
		Name:              name,
		Email:             email,
		Phone:             strings.TrimSpace(input.Phone),
		Status:            models.ParticipantStatusConfirmed,
		CancellationToken: token,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Participant{}).
			Where("survey_id = ? AND seat_number = ? AND status = ?",
				survey.ID, input.SeatNumber, models.ParticipantStatusConfirmed).
			Count(&count).Error; err != nil {
			return fmt.Errorf("reservation service: check seat: %w", err)
		}
		if count > 0 {
			return apperrors.ErrSeatTaken
		}

		if err := tx.Model(&models.Participant{}).
			Where("survey_id = ? AND LOWER(email) = ? AND status = ?",
				survey.ID, email, models.ParticipantStatusConfirmed).
			Count(&count).Error; err != nil {
			return fmt.Errorf("reservation service: check email: %w", err)
		}
		if count > 0 {
			return apperrors.ErrDuplicateRegistration
		}

		return tx.Create(&participant).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		switch {
		case errors.As(err, &appErr):
			metrics.Reservations.WithLabelValues(resultLabel(appErr)).Inc()
			return nil, appErr
		case isUniqueConstraintError(err):
			// The partial unique index caught a race the in-transaction
			// check could not see.
			metrics.Reservations.WithLabelValues("seat_taken").Inc()
			return nil, apperrors.ErrSeatTaken
		default:
			metrics.Reservations.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("reservation service: create: %w", err)
		}
	}

	metrics.Reservations.WithLabelValues("confirmed").Inc()

	if err := s.sendConfirmation(ctx, survey, &participant); err != nil {
		logger.Warn("confirmation email not delivered",
			zap.String("survey_id", survey.ID),
			zap.String("participant_id", participant.ID),
			zap.Error(err))
	}
	return &participant, nil
}

// ThankYouURL is the post-reservation page a successful claimant is sent to.
func (s *ReservationService) ThankYouURL(surveyID string) string {
	return s.links.ThankYouPage(surveyID)
}

// ResendConfirmation re-sends the confirmation email for an existing
// confirmed reservation. Unlike Reserve, a delivery failure is reported.
func (s *ReservationService) ResendConfirmation(ctx context.Context, participantID string) error {
	ctx = ensureContext(ctx)

	var participant models.Participant
	err := s.db.WithContext(ctx).First(&participant, "id = ?", participantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reservation service: load participant: %w", err)
	}
	if !participant.IsConfirmed() {
		return apperrors.ErrNotFound
	}

	var survey models.Survey
	if err := s.db.WithContext(ctx).First(&survey, "id = ?", participant.SurveyID).Error; err != nil {
		return fmt.Errorf("reservation service: load survey: %w", err)
	}

	return s.sendConfirmation(ctx, &survey, &participant)
}

func (s *ReservationService) sendConfirmation(ctx context.Context, survey *models.Survey, participant *models.Participant) error {
	if s.mailer == nil {
		return nil
	}

	tpl, err := s.templates.ResolveForSurvey(ctx, survey.ID, EmailKindConfirmation)
	if err != nil {
		metrics.EmailsSent.WithLabelValues(EmailKindConfirmation, "failed").Inc()
		return err
	}

	msg := composeParticipantEmail(tpl, survey, participant, s.links)
	if err := s.mailer.Send(ctx, msg); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			return nil
		}
		metrics.EmailsSent.WithLabelValues(EmailKindConfirmation, "failed").Inc()
		return fmt.Errorf("reservation service: send confirmation: %w", err)
	}

	metrics.EmailsSent.WithLabelValues(EmailKindConfirmation, "sent").Inc()
	return nil
}

func resultLabel(err *apperrors.AppError) string {
	switch err {
	case apperrors.ErrSeatTaken:
		return "seat_taken"
	case apperrors.ErrDuplicateRegistration:
		return "duplicate_email"
	case apperrors.ErrSurveyClosed:
		return "closed"
	default:
		return "error"
	}
}
