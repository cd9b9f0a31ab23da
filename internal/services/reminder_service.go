package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/models"
	apperrors "github.com/seatplan/seatplan/pkg/errors"
	"github.com/seatplan/seatplan/pkg/logger"
	"github.com/seatplan/seatplan/pkg/mail"
	"github.com/seatplan/seatplan/pkg/metrics"
)

const defaultReminderWorkers = 4

// ReminderOption customises ReminderService behaviour.
type ReminderOption func(*ReminderService)

// WithReminderWorkers bounds the number of concurrent email deliveries.
func WithReminderWorkers(n int) ReminderOption {
	return func(s *ReminderService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// ReminderService broadcasts reminder emails to a survey's confirmed participants.
type ReminderService struct {
	db        *gorm.DB
	mailer    mail.Mailer
	templates *TemplateService
	links     *LinkBuilder
	workers   int
}

func NewReminderService(db *gorm.DB, mailer mail.Mailer, templates *TemplateService, links *LinkBuilder, opts ...ReminderOption) (*ReminderService, error) {
	if db == nil {
		return nil, errors.New("reminder service: db is required")
	}
	if templates == nil {
		return nil, errors.New("reminder service: template service is required")
	}
	if links == nil {
		return nil, errors.New("reminder service: link builder is required")
	}

	service := &ReminderService{
		db:        db,
		mailer:    mailer,
		templates: templates,
		links:     links,
		workers:   defaultReminderWorkers,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// BroadcastResult reports the per-recipient outcome of a reminder broadcast.
type BroadcastResult struct {
	NoRecipients bool `json:"no_recipients"`
	Total        int  `json:"total"`
	Sent         int  `json:"sent"`
	Failed       int  `json:"failed"`
}

// Broadcast sends the reminder email to every confirmed participant of the
// survey. One failed delivery never aborts the rest: each recipient gets an
// independent attempt and the combined failures come back alongside the counts.
func (s *ReminderService) Broadcast(ctx context.Context, surveyID string) (*BroadcastResult, error) {
	ctx = ensureContext(ctx)

	var survey models.Survey
	err := s.db.WithContext(ctx).First(&survey, "id = ?", surveyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reminder service: load survey: %w", err)
	}

	var participants []models.Participant
	err = s.db.WithContext(ctx).
		Where("survey_id = ? AND status = ?", survey.ID, models.ParticipantStatusConfirmed).
		Order("seat_number ASC").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("reminder service: load participants: %w", err)
	}

	if len(participants) == 0 {
		return &BroadcastResult{NoRecipients: true}, nil
	}

	tpl, err := s.templates.ResolveForSurvey(ctx, survey.ID, EmailKindReminder)
	if err != nil {
		return nil, err
	}

	result := &BroadcastResult{Total: len(participants)}
	if s.mailer == nil {
		result.Failed = result.Total
		return result, errors.New("reminder service: mailer is not configured")
	}

	var (
		mu       sync.Mutex
		sendErrs error
		wg       sync.WaitGroup
		sem      = make(chan struct{}, s.workers)
	)

	for i := range participants {
		participant := &participants[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			msg := composeParticipantEmail(tpl, &survey, participant, s.links)
			err := s.mailer.Send(ctx, msg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
				result.Failed++
				metrics.EmailsSent.WithLabelValues(EmailKindReminder, "failed").Inc()
				sendErrs = multierr.Append(sendErrs, fmt.Errorf("reminder to %s: %w", participant.Email, err))
				return
			}
			result.Sent++
			metrics.EmailsSent.WithLabelValues(EmailKindReminder, "sent").Inc()
		}()
	}
	wg.Wait()

	if result.Failed > 0 {
		logger.Warn("reminder broadcast finished with failures",
			zap.String("survey_id", survey.ID),
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed))
	}
	return result, sendErrs
}
