package models

import "time"

// ResponseAnswer is one answer row per answered question per response.
// Score is copied from the matched template at submission time, a frozen
// snapshot rather than a live reference.
type ResponseAnswer struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	FormResponseID   uint      `json:"form_response_id" gorm:"not null;index"`
	QuestionID       uint      `json:"question_id" gorm:"not null"`
	QuestionOptionID *uint     `json:"question_option_id"`
	AnswerText       string    `json:"answer_text"`
	Score            int       `json:"score" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relationships
	Question Question `json:"question,omitempty"`
}
