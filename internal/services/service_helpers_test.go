package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/database/testutil"
	"github.com/seatplan/seatplan/internal/models"
	"github.com/seatplan/seatplan/pkg/mail"
)

type recorderMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	failFor  map[string]error
}

func newRecorderMailer() *recorderMailer {
	return &recorderMailer{failFor: make(map[string]error)}
}

func (m *recorderMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, to := range msg.To {
		if err, ok := m.failFor[to]; ok {
			return err
		}
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recorderMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

type failingMailer struct{ err error }

func (m *failingMailer) Send(context.Context, mail.Message) error {
	if m.err != nil {
		return m.err
	}
	return errors.New("smtp unavailable")
}

func newTestLinks() *LinkBuilder {
	return NewLinkBuilder("https://events.example.com")
}

func newTemplateService(t *testing.T, db *gorm.DB) *TemplateService {
	t.Helper()
	svc, err := NewTemplateService(db)
	require.NoError(t, err)
	return svc
}

func openServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func createTestSurvey(t *testing.T, db *gorm.DB, mutate ...func(*models.Survey)) *models.Survey {
	t.Helper()

	date := time.Now().UTC().Add(30 * 24 * time.Hour)
	survey := &models.Survey{
		Title:           "Annual Gala",
		Location:        "Grand Hall",
		Date:            &date,
		Time:            "19:30",
		MaxParticipants: 8,
		TableShape:      models.TableShapeRound,
		Status:          models.SurveyStatusActive,
		SurveyLink:      "gala" + time.Now().Format("150405.000000000"),
	}
	for _, fn := range mutate {
		fn(survey)
	}
	require.NoError(t, db.Create(survey).Error)
	return survey
}

func withCancelledStatus() func(*models.Participant) {
	return func(p *models.Participant) {
		p.Status = models.ParticipantStatusCancelled
	}
}

func createTestParticipant(t *testing.T, db *gorm.DB, survey *models.Survey, seat int, email string, mutate ...func(*models.Participant)) *models.Participant {
	t.Helper()

	participant := &models.Participant{
		SurveyID:          survey.ID,
		SeatNumber:        seat,
		Name:              "Guest " + email,
		Email:             email,
		Status:            models.ParticipantStatusConfirmed,
		CancellationToken: "token-" + survey.ID[:8] + "-" + email,
	}
	for _, fn := range mutate {
		fn(participant)
	}
	require.NoError(t, db.Create(participant).Error)
	return participant
}
