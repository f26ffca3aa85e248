package models

import "time"

// Condition types for result rules.
const (
	ConditionRange   = "range"
	ConditionEqual   = "equal"
	ConditionGreater = "greater"
	ConditionLess    = "less"
)

// ResultRule maps a total score to a result narrative. Rules are evaluated
// in ascending order and the first match wins.
type ResultRule struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FormID        uint      `json:"form_id" gorm:"not null;index"`
	ConditionType string    `json:"condition_type" gorm:"not null"`
	MinScore      *int      `json:"min_score"`
	MaxScore      *int      `json:"max_score"`
	SingleScore   *int      `json:"single_score"`
	Order         int       `json:"order" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Texts []ResultRuleText `json:"texts,omitempty" gorm:"foreignKey:ResultRuleID"`
}

// IsValidConditionType reports whether the type is one of the supported enum values.
func IsValidConditionType(conditionType string) bool {
	switch conditionType {
	case ConditionRange, ConditionEqual, ConditionGreater, ConditionLess:
		return true
	}
	return false
}
