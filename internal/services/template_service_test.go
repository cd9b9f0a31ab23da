package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seatplan/seatplan/internal/models"
	apperrors "github.com/seatplan/seatplan/pkg/errors"
)

func TestTemplateCRUD(t *testing.T) {
	db := openServiceDB(t)
	svc := newTemplateService(t, db)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTemplateInput{
		Subject: "See you at {event_title}",
		Body:    "Hello {name}",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.IsDefault)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "See you at {event_title}", fetched.Subject)

	newBody := "Hello {name}, seat {seat_number}"
	updated, err := svc.Update(ctx, created.ID, UpdateTemplateInput{Body: &newBody})
	require.NoError(t, err)
	require.Equal(t, newBody, updated.Body)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, created.ID), apperrors.ErrNotFound)
}

func TestTemplateValidation(t *testing.T) {
	db := openServiceDB(t)
	svc := newTemplateService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateTemplateInput{Subject: "", Body: "x"})
	require.Error(t, err)
	_, err = svc.Create(ctx, CreateTemplateInput{Subject: "x", Body: "  "})
	require.Error(t, err)
}

func TestSetDefaultClearsPreviousDefault(t *testing.T) {
	db := openServiceDB(t)
	svc := newTemplateService(t, db)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateTemplateInput{Subject: "a", Body: "a", IsDefault: true})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateTemplateInput{Subject: "b", Body: "b"})
	require.NoError(t, err)

	_, err = svc.SetDefault(ctx, second.ID)
	require.NoError(t, err)

	var defaults []models.EmailTemplate
	require.NoError(t, db.Where("is_default = ?", true).Find(&defaults).Error)
	require.Len(t, defaults, 1)
	require.Equal(t, second.ID, defaults[0].ID)

	// Creating a third default template demotes the second the same way.
	third, err := svc.Create(ctx, CreateTemplateInput{Subject: "c", Body: "c", IsDefault: true})
	require.NoError(t, err)

	require.NoError(t, db.Where("is_default = ?", true).Find(&defaults).Error)
	require.Len(t, defaults, 1)
	require.Equal(t, third.ID, defaults[0].ID)

	_, err = svc.Get(ctx, first.ID)
	require.NoError(t, err)
}

func TestResolveForSurveyPrecedence(t *testing.T) {
	db := openServiceDB(t)
	svc := newTemplateService(t, db)
	ctx := context.Background()

	survey := createTestSurvey(t, db)

	// Nothing stored: the built-in fallback applies, per kind.
	resolved, err := svc.ResolveForSurvey(ctx, survey.ID, EmailKindConfirmation)
	require.NoError(t, err)
	require.Equal(t, fallbackConfirmationSubject, resolved.Subject)

	resolved, err = svc.ResolveForSurvey(ctx, survey.ID, EmailKindReminder)
	require.NoError(t, err)
	require.Equal(t, fallbackReminderSubject, resolved.Subject)

	_, err = svc.Create(ctx, CreateTemplateInput{Subject: "default", Body: "default", IsDefault: true})
	require.NoError(t, err)

	resolved, err = svc.ResolveForSurvey(ctx, survey.ID, EmailKindConfirmation)
	require.NoError(t, err)
	require.Equal(t, "default", resolved.Subject)

	_, err = svc.Create(ctx, CreateTemplateInput{SurveyID: &survey.ID, Subject: "bound", Body: "bound"})
	require.NoError(t, err)

	resolved, err = svc.ResolveForSurvey(ctx, survey.ID, EmailKindReminder)
	require.NoError(t, err)
	require.Equal(t, "bound", resolved.Subject)
}
