package model

import "time"

// Announcement is a short notice shown on the dashboards and site banner
type Announcement struct {
	BaseModel
	Title       string     `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Body        string     `gorm:"type:text" json:"body" validate:"required"`
	Audience    string     `gorm:"type:varchar(20);not null" json:"audience" validate:"required,oneof=public artists fans staff"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
}
