package models

import "time"

// Feedback source lifecycle states.
const (
	SourceActive   = "active"
	SourceInactive = "inactive"
	SourceArchived = "archived"
)

// FeedbackSource is a URL-addressed origin of customer feedback, usually a
// shared spreadsheet. Sources are archived, never deleted.
type FeedbackSource struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	SourceURL      string     `gorm:"size:1024" json:"source_url"`
	Description    string     `gorm:"type:text" json:"description"`
	Status         string     `gorm:"size:16;default:active;index" json:"status"`
	LastAnalyzedAt *time.Time `json:"last_analyzed_at,omitempty"`
	CreatedBy      string     `gorm:"size:36;index" json:"created_by,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AnalysisResult keeps the raw model output of one feedback analysis run.
type AnalysisResult struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	SourceFeedbackID string    `gorm:"size:36;not null;index" json:"source_feedback_id"`
	AnalysisType     string    `gorm:"size:32;default:voc" json:"analysis_type"`
	Summary          string    `gorm:"type:text" json:"summary"`
	RawText          string    `gorm:"type:mediumtext" json:"raw_text"`
	FeedbackCount    int       `json:"feedback_count"`
	TasksCreated     int       `json:"tasks_created"`
	StructuredOK     bool      `gorm:"default:false" json:"structured_ok"`
	StructuredError  string    `gorm:"type:text" json:"structured_error,omitempty"`
	CreatedBy        string    `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}
