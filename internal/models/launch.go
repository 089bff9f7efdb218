package models

import (
	"time"

	"gorm.io/datatypes"
)

// Service launch states.
const (
	LaunchPreparing = "preparing"
	LaunchReady     = "ready"
	LaunchLaunched  = "launched"
)

// LaunchImageSlots is the number of image slots on a launch.
const LaunchImageSlots = 3

// ServiceLaunch bundles images and generated content for one PRD.
// GeneratedContent maps a content-type label to generated text.
type ServiceLaunch struct {
	ID               string            `gorm:"primaryKey;size:36" json:"id"`
	PRDID            string            `gorm:"column:prd_id;size:36;not null;uniqueIndex" json:"prd_id"`
	Image1URL        string            `gorm:"column:image_1_url;size:1024" json:"image_1_url,omitempty"`
	Image2URL        string            `gorm:"column:image_2_url;size:1024" json:"image_2_url,omitempty"`
	Image3URL        string            `gorm:"column:image_3_url;size:1024" json:"image_3_url,omitempty"`
	GeneratedContent datatypes.JSONMap `json:"generated_content"`
	Status           string            `gorm:"size:16;default:preparing;index" json:"status"`
	CreatedBy        string            `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ImageURLs returns the non-empty image URLs in slot order.
func (l *ServiceLaunch) ImageURLs() []string {
	var urls []string
	for _, u := range []string{l.Image1URL, l.Image2URL, l.Image3URL} {
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// ImageColumn returns the column backing a zero-based image slot.
func ImageColumn(slot int) (string, bool) {
	switch slot {
	case 0:
		return "image_1_url", true
	case 1:
		return "image_2_url", true
	case 2:
		return "image_3_url", true
	}
	return "", false
}

// User is a dashboard account.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
