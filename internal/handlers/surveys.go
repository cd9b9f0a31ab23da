package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seatplan/seatplan/internal/services"
	"github.com/seatplan/seatplan/pkg/response"
)

// SurveyHandler exposes the admin-facing survey management endpoints.
type SurveyHandler struct {
	surveys      *services.SurveyService
	reservations *services.ReservationService
}

func NewSurveyHandler(surveys *services.SurveyService, reservations *services.ReservationService) *SurveyHandler {
	return &SurveyHandler{surveys: surveys, reservations: reservations}
}

type createSurveyRequest struct {
	Title           string     `json:"title" validate:"required,min=1,max=200"`
	Description     string     `json:"description" validate:"max=2000"`
	Location        string     `json:"location" validate:"max=500"`
	Date            *time.Time `json:"date"`
	Time            string     `json:"time" validate:"max=20"`
	MaxParticipants int        `json:"max_participants" validate:"required"`
	TableShape      string     `json:"table_shape" validate:"omitempty,oneof=round rectangle oval"`
	Status          string     `json:"status" validate:"omitempty,oneof=draft active closed"`
}

type updateSurveyRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	Location        *string    `json:"location" validate:"omitempty,max=500"`
	Date            *time.Time `json:"date"`
	ClearDate       bool       `json:"clear_date"`
	Time            *string    `json:"time" validate:"omitempty,max=20"`
	MaxParticipants *int       `json:"max_participants"`
	TableShape      *string    `json:"table_shape" validate:"omitempty,oneof=round rectangle oval"`
	Status          *string    `json:"status" validate:"omitempty,oneof=draft active closed"`
}

func (h *SurveyHandler) List(c *gin.Context) {
	summaries, err := h.surveys.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, summaries, &response.Meta{Total: len(summaries)})
}

func (h *SurveyHandler) Create(c *gin.Context) {
	var req createSurveyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	survey, err := h.surveys.Create(requestContext(c), services.CreateSurveyInput{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		Date:            req.Date,
		Time:            req.Time,
		MaxParticipants: req.MaxParticipants,
		TableShape:      req.TableShape,
		Status:          req.Status,
		CreatedBy:       adminEmail(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, survey)
}

func (h *SurveyHandler) Get(c *gin.Context) {
	survey, err := h.surveys.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, survey)
}

func (h *SurveyHandler) Update(c *gin.Context) {
	var req updateSurveyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	survey, err := h.surveys.Update(requestContext(c), c.Param("id"), services.UpdateSurveyInput{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		Date:            req.Date,
		ClearDate:       req.ClearDate,
		Time:            req.Time,
		MaxParticipants: req.MaxParticipants,
		TableShape:      req.TableShape,
		Status:          req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, survey)
}

func (h *SurveyHandler) Delete(c *gin.Context) {
	if err := h.surveys.Delete(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *SurveyHandler) Participants(c *gin.Context) {
	participants, err := h.surveys.Participants(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, participants, &response.Meta{Total: len(participants)})
}

// CancelParticipant releases a seat on behalf of an admin, bypassing the
// participant's own cancellation link and its cutoff.
func (h *SurveyHandler) CancelParticipant(c *gin.Context) {
	err := h.surveys.CancelParticipant(requestContext(c), c.Param("id"), c.Param("participantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cancelled": true})
}

// ResendConfirmation re-sends a participant's confirmation email.
func (h *SurveyHandler) ResendConfirmation(c *gin.Context) {
	err := h.reservations.ResendConfirmation(requestContext(c), c.Param("participantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

// QRCode streams a PNG QR code pointing at the survey's public page.
func (h *SurveyHandler) QRCode(c *gin.Context) {
	size := parseIntQuery(c, "size", 256)
	png, err := h.surveys.QRCode(requestContext(c), c.Param("id"), size)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Stats serves the dashboard counters.
func (h *SurveyHandler) Stats(c *gin.Context) {
	stats, err := h.surveys.Stats(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
