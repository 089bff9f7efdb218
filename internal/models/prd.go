package models

import (
	"time"
	"unicode/utf8"
)

// Document lifecycle shared by PRD drafts and content assets.
const (
	DocDraft     = "draft"
	DocReview    = "review"
	DocApproved  = "approved"
	DocPublished = "published"
)

// PRD section names, as used in AI markers and partial updates.
const (
	SectionBackground     = "background"
	SectionProblem        = "problem"
	SectionSolution       = "solution"
	SectionUXRequirements = "ux_requirements"
	SectionEdgeCases      = "edge_cases"
)

// SectionNames lists PRD sections in document order.
var SectionNames = []string{
	SectionBackground,
	SectionProblem,
	SectionSolution,
	SectionUXRequirements,
	SectionEdgeCases,
}

// PRDDraft is a requirements document tied to at most one task candidate.
type PRDDraft struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID         *string   `gorm:"size:36;index" json:"task_id,omitempty"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Background     string    `gorm:"type:text" json:"background"`
	Problem        string    `gorm:"type:text" json:"problem"`
	Solution       string    `gorm:"type:text" json:"solution"`
	UXRequirements string    `gorm:"column:ux_requirements;type:text" json:"ux_requirements"`
	EdgeCases      string    `gorm:"type:text" json:"edge_cases"`
	Status         string    `gorm:"size:16;default:draft;index" json:"status"`
	Version        int       `gorm:"default:1" json:"version"`
	OutputURL      string    `gorm:"size:1024" json:"output_url,omitempty"`
	RawResponse    string    `gorm:"type:mediumtext" json:"-"`
	CreatedBy      string    `gorm:"size:36;index" json:"created_by,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Section returns the named section's text.
func (p *PRDDraft) Section(name string) string {
	switch name {
	case SectionBackground:
		return p.Background
	case SectionProblem:
		return p.Problem
	case SectionSolution:
		return p.Solution
	case SectionUXRequirements:
		return p.UXRequirements
	case SectionEdgeCases:
		return p.EdgeCases
	}
	return ""
}

// SetSection assigns the named section. Unknown names are ignored and
// reported as false.
func (p *PRDDraft) SetSection(name, text string) bool {
	switch name {
	case SectionBackground:
		p.Background = text
	case SectionProblem:
		p.Problem = text
	case SectionSolution:
		p.Solution = text
	case SectionUXRequirements:
		p.UXRequirements = text
	case SectionEdgeCases:
		p.EdgeCases = text
	default:
		return false
	}
	return true
}

// Content asset types.
const (
	ContentFAQ          = "faq"
	ContentBanner       = "banner"
	ContentNotification = "notification"
	ContentGuide        = "guide"
	ContentAnnouncement = "announcement"
)

// Target channels for content assets.
const (
	ChannelSlack          = "slack"
	ChannelConfluence     = "confluence"
	ChannelBlog           = "blog"
	ChannelCustomerCenter = "customer_center"
	ChannelAppPopup       = "app_popup"
	ChannelDiscord        = "discord"
)

// ContentAsset is a generated artifact such as an FAQ or banner copy.
type ContentAsset struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID        *string   `gorm:"size:36;index" json:"task_id,omitempty"`
	PRDID         *string   `gorm:"column:prd_id;size:36;index" json:"prd_id,omitempty"`
	Type          string    `gorm:"size:32;not null" json:"type"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Content       string    `gorm:"type:mediumtext" json:"content"`
	TargetChannel *string   `gorm:"size:32" json:"target_channel,omitempty"`
	Status        string    `gorm:"size:16;default:draft;index" json:"status"`
	OutputURL     string    `gorm:"size:1024" json:"output_url,omitempty"`
	CreatedBy     string    `gorm:"size:36;index" json:"created_by,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WordCount is the length of the content in characters.
func (c *ContentAsset) WordCount() int {
	return utf8.RuneCountInString(c.Content)
}
