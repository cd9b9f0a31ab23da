package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/seatplan/seatplan/internal/models"
	apperrors "github.com/seatplan/seatplan/pkg/errors"
)

// Email kinds handled by the template resolution chain. Each kind carries
// its own built-in fallback text.
const (
	EmailKindConfirmation = "confirmation"
	EmailKindReminder     = "reminder"
)

// ResolvedTemplate is the subject and body chosen for one outbound email,
// still containing unexpanded {key} placeholders.
type ResolvedTemplate struct {
	Subject string
	Body    string
}

// TemplateService manages the stored email templates and resolves which
// template applies to a given survey and email kind.
type TemplateService struct {
	db *gorm.DB
}

func NewTemplateService(db *gorm.DB) (*TemplateService, error) {
	if db == nil {
		return nil, errors.New("template service: db is required")
	}
	return &TemplateService{db: db}, nil
}

// CreateTemplateInput carries the fields accepted when creating a template.
type CreateTemplateInput struct {
	SurveyID  *string
	Subject   string
	Body      string
	IsDefault bool
}

// UpdateTemplateInput carries optional field updates; nil fields are left unchanged.
type UpdateTemplateInput struct {
	SurveyID  *string
	Subject   *string
	Body      *string
	IsDefault *bool
}

func (s *TemplateService) List(ctx context.Context) ([]models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	var templates []models.EmailTemplate
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("template service: list: %w", err)
	}
	return templates, nil
}

func (s *TemplateService) Get(ctx context.Context, id string) (*models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	var template models.EmailTemplate
	err := s.db.WithContext(ctx).First(&template, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("template service: get: %w", err)
	}
	return &template, nil
}

func (s *TemplateService) Create(ctx context.Context, input CreateTemplateInput) (*models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" || body == "" {
		return nil, apperrors.NewBadRequest("Subject and body are required")
	}

	template := models.EmailTemplate{
		SurveyID:  input.SurveyID,
		Subject:   subject,
		Body:      body,
		IsDefault: input.IsDefault,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if template.IsDefault {
			if err := clearDefaultTemplates(tx); err != nil {
				return err
			}
		}
		return tx.Create(&template).Error
	})
	if err != nil {
		return nil, fmt.Errorf("template service: create: %w", err)
	}
	return &template, nil
}

func (s *TemplateService) Update(ctx context.Context, id string, input UpdateTemplateInput) (*models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Subject != nil {
		subject := strings.TrimSpace(*input.Subject)
		if subject == "" {
			return nil, apperrors.NewBadRequest("Subject cannot be empty")
		}
		template.Subject = subject
	}
	if input.Body != nil {
		body := strings.TrimSpace(*input.Body)
		if body == "" {
			return nil, apperrors.NewBadRequest("Body cannot be empty")
		}
		template.Body = body
	}
	if input.SurveyID != nil {
		if *input.SurveyID == "" {
			template.SurveyID = nil
		} else {
			template.SurveyID = input.SurveyID
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.IsDefault != nil {
			if *input.IsDefault && !template.IsDefault {
				if err := clearDefaultTemplates(tx); err != nil {
					return err
				}
			}
			template.IsDefault = *input.IsDefault
		}
		return tx.Save(template).Error
	})
	if err != nil {
		return nil, fmt.Errorf("template service: update: %w", err)
	}
	return template, nil
}

// SetDefault marks one template as the default and clears the flag everywhere else.
func (s *TemplateService) SetDefault(ctx context.Context, id string) (*models.EmailTemplate, error) {
	ctx = ensureContext(ctx)

	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefaultTemplates(tx); err != nil {
			return err
		}
		return tx.Model(&models.EmailTemplate{}).
			Where("id = ?", template.ID).
			Update("is_default", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("template service: set default: %w", err)
	}

	template.IsDefault = true
	return template, nil
}

func (s *TemplateService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.EmailTemplate{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("template service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ResolveForSurvey picks the template for a survey and email kind: a template
// bound to the survey wins, then the default template, then the built-in
// fallback for the kind.
func (s *TemplateService) ResolveForSurvey(ctx context.Context, surveyID, kind string) (ResolvedTemplate, error) {
	ctx = ensureContext(ctx)

	var template models.EmailTemplate
	err := s.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at DESC").
		First(&template).Error
	if err == nil {
		return ResolvedTemplate{Subject: template.Subject, Body: template.Body}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ResolvedTemplate{}, fmt.Errorf("template service: resolve survey template: %w", err)
	}

	err = s.db.WithContext(ctx).
		Where("is_default = ?", true).
		Order("created_at DESC").
		First(&template).Error
	if err == nil {
		return ResolvedTemplate{Subject: template.Subject, Body: template.Body}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ResolvedTemplate{}, fmt.Errorf("template service: resolve default template: %w", err)
	}

	return fallbackTemplate(kind), nil
}

func fallbackTemplate(kind string) ResolvedTemplate {
	if kind == EmailKindReminder {
		return ResolvedTemplate{Subject: fallbackReminderSubject, Body: fallbackReminderBody}
	}
	return ResolvedTemplate{Subject: fallbackConfirmationSubject, Body: fallbackConfirmationBody}
}

func clearDefaultTemplates(tx *gorm.DB) error {
	return tx.Model(&models.EmailTemplate{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error
}
