package models

import "time"

// Question types supported by the form builder.
const (
	QuestionShortAnswer    = "short_answer"
	QuestionParagraph      = "paragraph"
	QuestionMultipleChoice = "multiple_choice"
	QuestionCheckbox       = "checkbox"
	QuestionDropdown       = "dropdown"
)

type Question struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FormID      uint      `json:"form_id" gorm:"not null;index"`
	SectionID   *uint     `json:"section_id"`
	Type        string    `json:"type" gorm:"not null"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	IsRequired  bool      `json:"is_required" gorm:"not null;default:false"`
	Order       int       `json:"order" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Options []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

// IsChoiceType reports whether a question type carries selectable options.
func IsChoiceType(questionType string) bool {
	switch questionType {
	case QuestionMultipleChoice, QuestionCheckbox, QuestionDropdown:
		return true
	}
	return false
}

// IsValidQuestionType reports whether the type is one of the supported enum values.
func IsValidQuestionType(questionType string) bool {
	switch questionType {
	case QuestionShortAnswer, QuestionParagraph, QuestionMultipleChoice, QuestionCheckbox, QuestionDropdown:
		return true
	}
	return false
}
