package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatplan/seatplan/internal/services"
	"github.com/seatplan/seatplan/pkg/response"
)

// ReminderHandler triggers reminder broadcasts for a survey.
type ReminderHandler struct {
	reminders *services.ReminderService
}

func NewReminderHandler(reminders *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// Broadcast sends the reminder email to every confirmed participant. Partial
// failure is not an error at the HTTP level: the caller gets the counts and
// decides what to do.
func (h *ReminderHandler) Broadcast(c *gin.Context) {
	result, err := h.reminders.Broadcast(requestContext(c), c.Param("id"))
	if err != nil && result == nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
