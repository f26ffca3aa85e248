package models

import (
	"time"

	"gorm.io/gorm"
)

type Form struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	UserID           uint           `json:"user_id" gorm:"not null"`
	Slug             string         `json:"slug" gorm:"uniqueIndex;not null"`
	Title            string         `json:"title" gorm:"not null"`
	Description      string         `json:"description"`
	HeaderImage      string         `json:"header_image"`
	AcceptsResponses bool           `json:"accepts_responses" gorm:"not null;default:true"`
	CollectEmail     bool           `json:"collect_email" gorm:"not null;default:false"`
	LimitOneResponse bool           `json:"limit_one_response" gorm:"not null;default:false"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User            User             `json:"user,omitempty"`
	Sections        []Section        `json:"sections,omitempty" gorm:"foreignKey:FormID"`
	Questions       []Question       `json:"questions,omitempty" gorm:"foreignKey:FormID"`
	AnswerTemplates []AnswerTemplate `json:"answer_templates,omitempty" gorm:"foreignKey:FormID"`
	ResultRules     []ResultRule     `json:"result_rules,omitempty" gorm:"foreignKey:FormID"`
	Responses       []FormResponse   `json:"responses,omitempty" gorm:"foreignKey:FormID"`
}
