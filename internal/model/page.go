package model

import "time"

// Page is a CMS-managed marketing page (news, events, merch, about)
type Page struct {
	BaseModel
	Slug        string     `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug" validate:"required,slug"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title" validate:"required"`
	Kind        string     `gorm:"type:varchar(30);index" json:"kind" validate:"omitempty,oneof=page news event merch press"`
	Body        string     `gorm:"type:text" json:"body"`
	Published   bool       `gorm:"index" json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
