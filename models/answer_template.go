package models

import "time"

// AnswerTemplate is a reusable (answer text, score) pair owned by a form.
// Options reference templates by identity, so editing a template changes
// scoring for every option that points at it.
type AnswerTemplate struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FormID     uint      `json:"form_id" gorm:"not null;index"`
	AnswerText string    `json:"answer_text" gorm:"not null"`
	Score      int       `json:"score" gorm:"not null;default:0"`
	Order      int       `json:"order" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
