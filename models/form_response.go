package models

import (
	"time"

	"gorm.io/gorm"
)

type FormResponse struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	FormID     uint           `json:"form_id" gorm:"not null;index"`
	Email      string         `json:"email"`
	TotalScore int            `json:"total_score" gorm:"not null;default:0"`
	ResultText *string        `json:"result_text"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Form    Form             `json:"form,omitempty"`
	Answers []ResponseAnswer `json:"answers,omitempty" gorm:"foreignKey:FormResponseID"`
}
