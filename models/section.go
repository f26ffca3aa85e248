package models

import "time"

type Section struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FormID      uint      `json:"form_id" gorm:"not null;index"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Order       int       `json:"order" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:SectionID"`
}
