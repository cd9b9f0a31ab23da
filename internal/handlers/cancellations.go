package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatplan/seatplan/internal/services"
	"github.com/seatplan/seatplan/pkg/response"
)

// CancellationHandler exposes the public tokenized cancellation endpoints.
type CancellationHandler struct {
	cancellations *services.CancellationService
}

func NewCancellationHandler(cancellations *services.CancellationService) *CancellationHandler {
	return &CancellationHandler{cancellations: cancellations}
}

// Lookup resolves a cancellation token so the page can show the reservation
// before asking for confirmation.
func (h *CancellationHandler) Lookup(c *gin.Context) {
	details, err := h.cancellations.Lookup(requestContext(c), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, cancellationView(details))
}

// Cancel releases the seat behind the token.
func (h *CancellationHandler) Cancel(c *gin.Context) {
	details, err := h.cancellations.Cancel(requestContext(c), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, cancellationView(details))
}

func cancellationView(details *services.CancellationDetails) gin.H {
	return gin.H{
		"participant": gin.H{
			"name":        details.Participant.Name,
			"seat_number": details.Participant.SeatNumber,
			"status":      details.Participant.Status,
		},
		"survey": gin.H{
			"title":    details.Survey.Title,
			"location": details.Survey.Location,
			"date":     details.Survey.Date,
			"time":     details.Survey.Time,
		},
	}
}
