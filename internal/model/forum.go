package model

import (
	"time"

	"github.com/google/uuid"
)

// ForumPost is a fan-club forum message subject to moderation
type ForumPost struct {
	BaseModel
	Topic        string     `gorm:"type:varchar(120);index;not null" json:"topic" validate:"required,max=120"`
	Body         string     `gorm:"type:text;not null" json:"body" validate:"required,max=5000"`
	AuthorID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"author_id"`
	Author       *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Hidden       bool       `gorm:"index" json:"hidden"`
	HiddenReason string     `gorm:"type:varchar(255)" json:"hidden_reason,omitempty"`
	ModeratedBy  *uuid.UUID `gorm:"type:uuid" json:"moderated_by,omitempty"`
	ModeratedAt  *time.Time `json:"moderated_at,omitempty"`
}
