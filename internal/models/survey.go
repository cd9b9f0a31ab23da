package models

import "time"

// Survey lifecycle statuses. Only active surveys accept reservations.
const (
	SurveyStatusDraft  = "draft"
	SurveyStatusActive = "active"
	SurveyStatusClosed = "closed"
)

// Table shapes supported by the seating view.
const (
	TableShapeRound     = "round"
	TableShapeRectangle = "rectangle"
	TableShapeOval      = "oval"
)

// Seat count bounds for a single table.
const (
	MinParticipants = 4
	MaxParticipants = 20
)

// Survey describes one event with a seating layout and lifecycle status.
// The public reaches it through SurveyLink, an opaque shareable slug.
type Survey struct {
	BaseModel

	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`

	// Date is the event day; Time is a free-form "HH:MM" string as entered
	// by the admin. Both may be unset while the event is still a draft.
	Date *time.Time `json:"date"`
	Time string     `json:"time"`

	MaxParticipants int    `gorm:"not null" json:"max_participants"`
	TableShape      string `gorm:"default:round" json:"table_shape"`
	Status          string `gorm:"default:draft;index" json:"status"`

	SurveyLink string `gorm:"uniqueIndex;not null" json:"survey_link"`
	CreatedBy  string `json:"created_by"`

	Participants []Participant `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsOpen reports whether the survey currently accepts new reservations.
func (s *Survey) IsOpen() bool {
	return s.Status == SurveyStatusActive
}
