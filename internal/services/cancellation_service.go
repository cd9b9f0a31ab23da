package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/models"
	apperrors "github.com/seatplan/seatplan/pkg/errors"
	"github.com/seatplan/seatplan/pkg/metrics"
)

// minDaysBeforeEvent is the self-service cancellation cutoff: once fewer
// than this many days remain until the event, the token no longer works.
const minDaysBeforeEvent = 2

// CancellationOption customises CancellationService behaviour.
type CancellationOption func(*CancellationService)

// WithCancellationClock injects a custom clock primarily for testing.
func WithCancellationClock(clock func() time.Time) CancellationOption {
	return func(s *CancellationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// CancellationService resolves tokenized cancellation links and releases seats.
type CancellationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCancellationService(db *gorm.DB, opts ...CancellationOption) (*CancellationService, error) {
	if db == nil {
		return nil, errors.New("cancellation service: db is required")
	}

	service := &CancellationService{db: db, now: defaultClock}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// CancellationDetails describes the reservation behind a cancellation token.
type CancellationDetails struct {
	Participant *models.Participant `json:"participant"`
	Survey      *models.Survey      `json:"survey"`
}

// Lookup resolves a cancellation token to its reservation without changing
// anything. A token whose reservation is already cancelled is invalid, and
// the cutoff is enforced here too so the caller can show the right page.
func (s *CancellationService) Lookup(ctx context.Context, token string) (*CancellationDetails, error) {
	ctx = ensureContext(ctx)

	details, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if tooLate(details.Survey, s.now()) {
		return nil, apperrors.ErrTooLate
	}
	return details, nil
}

// Cancel releases the seat held by the reservation behind the token. The
// token is effectively single use: once the reservation is cancelled it no
// longer resolves.
func (s *CancellationService) Cancel(ctx context.Context, token string) (*CancellationDetails, error) {
	ctx = ensureContext(ctx)

	details, err := s.resolve(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidToken) {
			metrics.Cancellations.WithLabelValues("invalid_token").Inc()
		} else {
			metrics.Cancellations.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if tooLate(details.Survey, s.now()) {
		metrics.Cancellations.WithLabelValues("too_late").Inc()
		return nil, apperrors.ErrTooLate
	}

	result := s.db.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ? AND status = ?", details.Participant.ID, models.ParticipantStatusConfirmed).
		Update("status", models.ParticipantStatusCancelled)
	if result.Error != nil {
		metrics.Cancellations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("cancellation service: cancel: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Another request consumed the token between resolve and update.
		metrics.Cancellations.WithLabelValues("invalid_token").Inc()
		return nil, apperrors.ErrInvalidToken
	}

	metrics.Cancellations.WithLabelValues("cancelled").Inc()
	details.Participant.Status = models.ParticipantStatusCancelled
	return details, nil
}

func (s *CancellationService) resolve(ctx context.Context, token string) (*CancellationDetails, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidToken
	}

	var participant models.Participant
	err := s.db.WithContext(ctx).
		First(&participant, "cancellation_token = ? AND status = ?", token, models.ParticipantStatusConfirmed).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("cancellation service: resolve token: %w", err)
	}

	var survey models.Survey
	if err := s.db.WithContext(ctx).First(&survey, "id = ?", participant.SurveyID).Error; err != nil {
		return nil, fmt.Errorf("cancellation service: load survey: %w", err)
	}

	return &CancellationDetails{Participant: &participant, Survey: &survey}, nil
}

// tooLate reports whether fewer than minDaysBeforeEvent whole or partial
// days remain until the event. A survey without a date never blocks.
func tooLate(survey *models.Survey, now time.Time) bool {
	if survey == nil || survey.Date == nil {
		return false
	}
	days := math.Ceil(survey.Date.Sub(now).Hours() / 24)
	return days < minDaysBeforeEvent
}
