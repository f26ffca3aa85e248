package models

import "time"

type QuestionOption struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	QuestionID       uint      `json:"question_id" gorm:"not null;index"`
	Text             string    `json:"text" gorm:"not null"`
	Order            int       `json:"order" gorm:"not null"`
	AnswerTemplateID *uint     `json:"answer_template_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relationships
	AnswerTemplate *AnswerTemplate `json:"answer_template,omitempty"`
}

// TemplateScore resolves the option's score through its answer template.
// Options without a template contribute zero.
func (o *QuestionOption) TemplateScore() int {
	if o.AnswerTemplate == nil {
		return 0
	}
	return o.AnswerTemplate.Score
}
