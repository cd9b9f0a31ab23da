package models

// Participant statuses. Cancellation is a soft delete: cancelled rows stay
// around but are excluded from every availability computation.
const (
	ParticipantStatusConfirmed = "confirmed"
	ParticipantStatusCancelled = "cancelled"
)

// Participant is one seat claim on a survey. For a given survey at most one
// confirmed participant may occupy a seat number at any time; cancelled
// participants free their seat for reuse.
type Participant struct {
	BaseModel

	SurveyID   string `gorm:"type:uuid;not null;index" json:"survey_id"`
	SeatNumber int    `gorm:"not null" json:"seat_number"`

	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"not null" json:"email"`
	Phone string `json:"phone,omitempty"`

	Status string `gorm:"default:confirmed;index" json:"status"`

	// CancellationToken is a single-use opaque bearer credential granting
	// the holder the right to cancel this reservation.
	CancellationToken string `gorm:"uniqueIndex;not null" json:"-"`
}

// IsConfirmed reports whether this claim still occupies its seat.
func (p *Participant) IsConfirmed() bool {
	return p.Status == ParticipantStatusConfirmed
}
