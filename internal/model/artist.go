package model

import "github.com/google/uuid"

// Artist is a represented act with a public bio and press kit
type Artist struct {
	BaseModel
	Slug        string     `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug" validate:"required,slug"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Genre       string     `gorm:"type:varchar(100)" json:"genre"`
	Bio         string     `gorm:"type:text" json:"bio"`
	ImageURL    string     `gorm:"type:varchar(500)" json:"image_url" validate:"omitempty,url"`
	PressKitURL string     `gorm:"type:varchar(500)" json:"press_kit_url" validate:"omitempty,url"`
	Website     string     `gorm:"type:varchar(500)" json:"website" validate:"omitempty,url"`
	IsPublic    bool       `json:"is_public"`
	OwnerUserID *uuid.UUID `gorm:"type:uuid;index" json:"owner_user_id,omitempty"`
	OwnerUser   *User      `gorm:"foreignKey:OwnerUserID" json:"owner_user,omitempty"`
}
