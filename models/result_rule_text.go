package models

import "time"

type ResultRuleText struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ResultRuleID uint      `json:"result_rule_id" gorm:"not null;index"`
	Content      string    `json:"content" gorm:"not null"`
	Order        int       `json:"order" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
