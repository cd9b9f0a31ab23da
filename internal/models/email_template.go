package models

// EmailTemplate holds a placeholder-templated subject and body used for both
// confirmation and reminder emails. A template either binds to one survey
// (SurveyID set) or serves as a general-purpose template; at most one
// template carries IsDefault at any time.
type EmailTemplate struct {
	BaseModel

	SurveyID *string `gorm:"type:uuid;index" json:"survey_id"`

	Subject   string `gorm:"not null" json:"subject"`
	Body      string `gorm:"not null" json:"body"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`
}
