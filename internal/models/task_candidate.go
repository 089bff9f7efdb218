package models

import "time"

// Task candidate workflow states.
const (
	TaskPending    = "pending"
	TaskApproved   = "approved"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskRejected   = "rejected"
)

// Priority tiers.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// TaskCandidate is a proposed improvement derived from feedback analysis.
// The four scores are optional; DevelopmentCost is 1-3 and EffectScore is
// 1 (best) to 3 (worst).
type TaskCandidate struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Description      string    `gorm:"type:text" json:"description"`
	SourceFeedbackID *string   `gorm:"size:36;index" json:"source_feedback_id,omitempty"`
	FrequencyScore   *int      `json:"frequency_score,omitempty"`
	ImpactScore      *int      `json:"impact_score,omitempty"`
	DevelopmentCost  *int      `json:"development_cost,omitempty"`
	EffectScore      *int      `json:"effect_score,omitempty"`
	Priority         string    `gorm:"size:16;default:medium" json:"priority"`
	Status           string    `gorm:"size:16;default:pending;index" json:"status"`
	CreatedBy        string    `gorm:"size:36;index" json:"created_by,omitempty"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
