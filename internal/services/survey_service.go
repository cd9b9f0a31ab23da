package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/models"
	apperrors "github.com/seatplan/seatplan/pkg/errors"
)

const slugGenerationAttempts = 5

// maskedSeatLabel replaces occupant names on the public seating view.
const maskedSeatLabel = "תפוס"

// SurveyOption customises SurveyService behaviour.
type SurveyOption func(*SurveyService)

// WithSurveyClock injects a custom clock primarily for testing.
func WithSurveyClock(clock func() time.Time) SurveyOption {
	return func(s *SurveyService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// SurveyService manages event surveys and their seating layout.
type SurveyService struct {
	db    *gorm.DB
	links *LinkBuilder
	now   func() time.Time
}

func NewSurveyService(db *gorm.DB, links *LinkBuilder, opts ...SurveyOption) (*SurveyService, error) {
	if db == nil {
		return nil, errors.New("survey service: db is required")
	}
	if links == nil {
		return nil, errors.New("survey service: link builder is required")
	}

	service := &SurveyService{db: db, links: links, now: defaultClock}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// CreateSurveyInput carries the fields accepted when creating a survey.
type CreateSurveyInput struct {
	Title           string
	Description     string
	Location        string
	Date            *time.Time
	Time            string
	MaxParticipants int
	TableShape      string
	Status          string
	CreatedBy       string
}

// UpdateSurveyInput carries optional field updates; nil fields are left unchanged.
type UpdateSurveyInput struct {
	Title           *string
	Description     *string
	Location        *string
	Date            *time.Time
	ClearDate       bool
	Time            *string
	MaxParticipants *int
	TableShape      *string
	Status          *string
}

// SurveySummary pairs a survey with its confirmed reservation count.
type SurveySummary struct {
	models.Survey
	ConfirmedCount int64 `json:"confirmed_count"`
}

// Seat is one position on the public seating view. Taken seats expose only a
// masked label, never the occupant's details.
type Seat struct {
	Number int    `json:"number"`
	Taken  bool   `json:"taken"`
	Label  string `json:"label,omitempty"`
}

// SeatMap is the public view of a survey reached through its shareable link.
type SeatMap struct {
	SurveyID        string     `json:"survey_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	Date            *time.Time `json:"date"`
	Time            string     `json:"time"`
	TableShape      string     `json:"table_shape"`
	MaxParticipants int        `json:"max_participants"`
	Open            bool       `json:"open"`
	Seats           []Seat     `json:"seats"`
}

// DashboardStats aggregates counts shown on the management dashboard.
type DashboardStats struct {
	TotalSurveys        int64   `json:"total_surveys"`
	ActiveSurveys       int64   `json:"active_surveys"`
	TotalParticipants   int64   `json:"total_participants"`
	AverageParticipants float64 `json:"average_participants"`
}

func (s *SurveyService) Create(ctx context.Context, input CreateSurveyInput) (*models.Survey, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("Title is required")
	}
	if input.MaxParticipants < models.MinParticipants || input.MaxParticipants > models.MaxParticipants {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("Seat count must be between %d and %d", models.MinParticipants, models.MaxParticipants))
	}

	shape := input.TableShape
	if shape == "" {
		shape = models.TableShapeRound
	}
	if !validTableShape(shape) {
		return nil, apperrors.NewBadRequest("Unknown table shape")
	}

	status := input.Status
	if status == "" {
		status = models.SurveyStatusDraft
	}
	if !validSurveyStatus(status) {
		return nil, apperrors.NewBadRequest("Unknown survey status")
	}

	survey := models.Survey{
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		Location:        strings.TrimSpace(input.Location),
		Date:            input.Date,
		Time:            strings.TrimSpace(input.Time),
		MaxParticipants: input.MaxParticipants,
		TableShape:      shape,
		Status:          status,
		CreatedBy:       strings.TrimSpace(input.CreatedBy),
	}

	// Slug collisions are vanishingly rare but the unique index makes them
	// loud, so retry with a fresh slug.
	for attempt := 0; attempt < slugGenerationAttempts; attempt++ {
		slug, err := generateSlug()
		if err != nil {
			return nil, fmt.Errorf("survey service: generate link: %w", err)
		}
		survey.SurveyLink = slug

		err = s.db.WithContext(ctx).Create(&survey).Error
		if err == nil {
			return &survey, nil
		}
		if !isUniqueConstraintError(err) {
			return nil, fmt.Errorf("survey service: create: %w", err)
		}
	}
	return nil, errors.New("survey service: could not allocate a unique survey link")
}

func (s *SurveyService) Get(ctx context.Context, id string) (*models.Survey, error) {
	ctx = ensureContext(ctx)

	var survey models.Survey
	err := s.db.WithContext(ctx).First(&survey, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("survey service: get: %w", err)
	}
	return &survey, nil
}

// GetByLink resolves a survey from its public reference. The shared page
// accepts either the shareable slug or the survey id, so the slug lookup
// falls back to an id lookup before reporting not found.
func (s *SurveyService) GetByLink(ctx context.Context, link string) (*models.Survey, error) {
	ctx = ensureContext(ctx)

	survey, err := resolvePublicSurvey(s.db.WithContext(ctx), link)
	if err != nil {
		if errors.Is(err, apperrors.ErrSurveyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("survey service: get by link: %w", err)
	}
	return survey, nil
}

// List returns all surveys newest first, each with its confirmed seat count.
func (s *SurveyService) List(ctx context.Context) ([]SurveySummary, error) {
	ctx = ensureContext(ctx)

	var surveys []models.Survey
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&surveys).Error; err != nil {
		return nil, fmt.Errorf("survey service: list: %w", err)
	}

	summaries := make([]SurveySummary, 0, len(surveys))
	for i := range surveys {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.Participant{}).
			Where("survey_id = ? AND status = ?", surveys[i].ID, models.ParticipantStatusConfirmed).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("survey service: count participants: %w", err)
		}
		summaries = append(summaries, SurveySummary{Survey: surveys[i], ConfirmedCount: count})
	}
	return summaries, nil
}

func (s *SurveyService) Update(ctx context.Context, id string, input UpdateSurveyInput) (*models.Survey, error) {
	ctx = ensureContext(ctx)

	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("Title cannot be empty")
		}
		survey.Title = title
	}
	if input.Description != nil {
		survey.Description = strings.TrimSpace(*input.Description)
	}
	if input.Location != nil {
		survey.Location = strings.TrimSpace(*input.Location)
	}
	if input.ClearDate {
		survey.Date = nil
	} else if input.Date != nil {
		survey.Date = input.Date
	}
	if input.Time != nil {
		survey.Time = strings.TrimSpace(*input.Time)
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < models.MinParticipants || *input.MaxParticipants > models.MaxParticipants {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("Seat count must be between %d and %d", models.MinParticipants, models.MaxParticipants))
		}
		survey.MaxParticipants = *input.MaxParticipants
	}
	if input.TableShape != nil {
		if !validTableShape(*input.TableShape) {
			return nil, apperrors.NewBadRequest("Unknown table shape")
		}
		survey.TableShape = *input.TableShape
	}
	if input.Status != nil {
		if !validSurveyStatus(*input.Status) {
			return nil, apperrors.NewBadRequest("Unknown survey status")
		}
		survey.Status = *input.Status
	}

	if err := s.db.WithContext(ctx).Save(survey).Error; err != nil {
		return nil, fmt.Errorf("survey service: update: %w", err)
	}
	return survey, nil
}

// Delete removes a survey together with every one of its participants.
func (s *SurveyService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("survey_id = ?", id).Delete(&models.Participant{}).Error; err != nil {
			return fmt.Errorf("survey service: delete participants: %w", err)
		}

		result := tx.Delete(&models.Survey{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("survey service: delete: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrSurveyNotFound
		}
		return nil
	})
}

// Participants lists a survey's participants for the management view,
// confirmed and cancelled alike.
func (s *SurveyService) Participants(ctx context.Context, surveyID string) ([]models.Participant, error) {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, surveyID); err != nil {
		return nil, err
	}

	var participants []models.Participant
	err := s.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("seat_number ASC").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("survey service: participants: %w", err)
	}
	return participants, nil
}

// SeatMap builds the public seating view for a shareable link. Occupied
// seats show a masked label only.
func (s *SurveyService) SeatMap(ctx context.Context, link string) (*SeatMap, error) {
	ctx = ensureContext(ctx)

	survey, err := s.GetByLink(ctx, link)
	if err != nil {
		return nil, err
	}

	var confirmed []models.Participant
	err = s.db.WithContext(ctx).
		Where("survey_id = ? AND status = ?", survey.ID, models.ParticipantStatusConfirmed).
		Find(&confirmed).Error
	if err != nil {
		return nil, fmt.Errorf("survey service: seat map: %w", err)
	}

	taken := make(map[int]bool, len(confirmed))
	for i := range confirmed {
		taken[confirmed[i].SeatNumber] = true
	}

	seats := make([]Seat, 0, survey.MaxParticipants)
	for n := 1; n <= survey.MaxParticipants; n++ {
		seat := Seat{Number: n, Taken: taken[n]}
		if seat.Taken {
			seat.Label = maskedSeatLabel
		}
		seats = append(seats, seat)
	}

	return &SeatMap{
		SurveyID:        survey.ID,
		Title:           survey.Title,
		Description:     survey.Description,
		Location:        survey.Location,
		Date:            survey.Date,
		Time:            survey.Time,
		TableShape:      survey.TableShape,
		MaxParticipants: survey.MaxParticipants,
		Open:            survey.IsOpen(),
		Seats:           seats,
	}, nil
}

// Stats aggregates dashboard counters.
func (s *SurveyService) Stats(ctx context.Context) (*DashboardStats, error) {
	ctx = ensureContext(ctx)

	stats := &DashboardStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Survey{}).Count(&stats.TotalSurveys).Error; err != nil {
		return nil, fmt.Errorf("survey service: stats: %w", err)
	}
	if err := db.Model(&models.Survey{}).
		Where("status = ?", models.SurveyStatusActive).
		Count(&stats.ActiveSurveys).Error; err != nil {
		return nil, fmt.Errorf("survey service: stats: %w", err)
	}
	if err := db.Model(&models.Participant{}).
		Where("status = ?", models.ParticipantStatusConfirmed).
		Count(&stats.TotalParticipants).Error; err != nil {
		return nil, fmt.Errorf("survey service: stats: %w", err)
	}
	if stats.TotalSurveys > 0 {
		stats.AverageParticipants = float64(stats.TotalParticipants) / float64(stats.TotalSurveys)
	}
	return stats, nil
}

// QRCode renders the survey's public page URL as a PNG QR code.
func (s *SurveyService) QRCode(ctx context.Context, id string, size int) ([]byte, error) {
	ctx = ensureContext(ctx)

	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}

	png, err := qrcode.Encode(s.links.SurveyPage(survey.SurveyLink), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("survey service: encode qr: %w", err)
	}
	return png, nil
}

// CancelParticipant cancels a reservation on behalf of an admin, freeing the seat.
func (s *SurveyService) CancelParticipant(ctx context.Context, surveyID, participantID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ? AND survey_id = ? AND status = ?", participantID, surveyID, models.ParticipantStatusConfirmed).
		Update("status", models.ParticipantStatusCancelled)
	if result.Error != nil {
		return fmt.Errorf("survey service: cancel participant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CloseExpired closes every active survey whose event day has passed.
func (s *SurveyService) CloseExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Model(&models.Survey{}).
		Where("status = ? AND date IS NOT NULL AND date < ?", models.SurveyStatusActive, s.now()).
		Update("status", models.SurveyStatusClosed)
	if result.Error != nil {
		return 0, fmt.Errorf("survey service: close expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func validTableShape(shape string) bool {
	switch shape {
	case models.TableShapeRound, models.TableShapeRectangle, models.TableShapeOval:
		return true
	}
	return false
}

func validSurveyStatus(status string) bool {
	switch status {
	case models.SurveyStatusDraft, models.SurveyStatusActive, models.SurveyStatusClosed:
		return true
	}
	return false
}
