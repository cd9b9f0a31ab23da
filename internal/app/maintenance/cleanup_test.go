package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seatplan/seatplan/internal/database/testutil"
	"github.com/seatplan/seatplan/internal/models"
	"github.com/seatplan/seatplan/internal/services"
)

func TestRunOnceClosesPastSurveys(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

	surveys, err := services.NewSurveyService(db,
		services.NewLinkBuilder("https://events.example.com"),
		services.WithSurveyClock(func() time.Time { return now }))
	require.NoError(t, err)

	past := now.Add(-72 * time.Hour)
	future := now.Add(72 * time.Hour)

	expired := models.Survey{
		Title: "Past", MaxParticipants: 6, Status: models.SurveyStatusActive,
		Date: &past, SurveyLink: "pastpastpast1",
	}
	upcoming := models.Survey{
		Title: "Future", MaxParticipants: 6, Status: models.SurveyStatusActive,
		Date: &future, SurveyLink: "futurefuture1",
	}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&upcoming).Error)

	cleaner, err := NewCleaner(surveys)
	require.NoError(t, err)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var storedExpired models.Survey
	require.NoError(t, db.First(&storedExpired, "id = ?", expired.ID).Error)
	require.Equal(t, models.SurveyStatusClosed, storedExpired.Status)
	var storedUpcoming models.Survey
	require.NoError(t, db.First(&storedUpcoming, "id = ?", upcoming.ID).Error)
	require.Equal(t, models.SurveyStatusActive, storedUpcoming.Status)
}

func TestCleanerStartStop(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	surveys, err := services.NewSurveyService(db, services.NewLinkBuilder("https://events.example.com"))
	require.NoError(t, err)

	cleaner, err := NewCleaner(surveys, WithSchedule("@every 1h"))
	require.NoError(t, err)
	require.NoError(t, cleaner.Start())

	done := cleaner.Stop()
	select {
	case <-done.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}
