package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatplan/seatplan/internal/services"
	"github.com/seatplan/seatplan/pkg/response"
)

// ReservationHandler exposes the public seating endpoints reached through a
// survey's shareable link. No authentication applies here.
type ReservationHandler struct {
	surveys      *services.SurveyService
	reservations *services.ReservationService
}

func NewReservationHandler(surveys *services.SurveyService, reservations *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{surveys: surveys, reservations: reservations}
}

type reserveRequest struct {
	SeatNumber int    `json:"seat_number" validate:"required,min=1"`
	Name       string `json:"name" validate:"required,min=1,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"max=50"`
}

// SeatMap serves the public seating view. Occupied seats carry a masked
// label only, never the occupant's details.
func (h *ReservationHandler) SeatMap(c *gin.Context) {
	view, err := h.surveys.SeatMap(requestContext(c), c.Param("link"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Reserve claims a seat and sends the confirmation email.
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req reserveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	participant, err := h.reservations.Reserve(requestContext(c), services.ReserveInput{
		SurveyLink: c.Param("link"),
		SeatNumber: req.SeatNumber,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"participant_id": participant.ID,
		"survey_id":      participant.SurveyID,
		"seat_number":    participant.SeatNumber,
		"redirect_url":   h.reservations.ThankYouURL(participant.SurveyID),
	})
}
