package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seatplan/seatplan/internal/models"
)

func TestTemplateValuesDateWithoutLeadingZeros(t *testing.T) {
	date := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)
	survey := &models.Survey{Title: "Annual Gala", Date: &date, Time: "19:00", Location: "Tel Aviv"}
	participant := &models.Participant{Name: "Noa", SeatNumber: 4}

	values := templateValues(survey, participant, "https://events.example.com/CancelReservation?token=x")
	require.Equal(t, "5.3.2026", values["event_date"])
}

func TestTemplateValuesUnsetFields(t *testing.T) {
	survey := &models.Survey{Title: "Annual Gala"}
	participant := &models.Participant{Name: "Noa", SeatNumber: 4}

	values := templateValues(survey, participant, "")
	require.Equal(t, unsetFieldText, values["event_date"])
	require.Equal(t, unsetFieldText, values["event_time"])
	require.Equal(t, unsetFieldText, values["event_location"])
}
