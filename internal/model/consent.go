package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtableguy/mmeg-sub000/internal/consent"
)

// ConsentState is the latest consent per browser session. Rows are upserted
// on submission and never deleted.
type ConsentState struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	SessionID      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Necessary      bool       `json:"necessary"`
	Functional     bool       `json:"functional"`
	Analytics      bool       `json:"analytics"`
	Advertising    bool       `json:"advertising"`
	DoNotSellShare bool       `json:"do_not_sell_share"`
	GPC            bool       `json:"gpc"`
	Version        int        `json:"version"`
	Region         string     `gorm:"type:varchar(16)" json:"region"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *ConsentState) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Flags converts the row back into cookie form
func (s *ConsentState) Flags() consent.Flags {
	at := s.UpdatedAt
	return consent.Flags{
		Necessary:      s.Necessary,
		Functional:     s.Functional,
		Analytics:      s.Analytics,
		Advertising:    s.Advertising,
		DoNotSellShare: s.DoNotSellShare,
		GPC:            s.GPC,
		Version:        s.Version,
		UpdatedAt:      &at,
	}
}

// NewConsentState builds the row for a session from reconciled flags
func NewConsentState(req consent.Request, f consent.Flags) *ConsentState {
	return &ConsentState{
		SessionID:      req.SessionID,
		UserID:         req.UserID,
		Necessary:      f.Necessary,
		Functional:     f.Functional,
		Analytics:      f.Analytics,
		Advertising:    f.Advertising,
		DoNotSellShare: f.DoNotSellShare,
		GPC:            f.GPC,
		Version:        f.Version,
		Region:         req.Region,
	}
}

// ConsentSnapshot stores Flags as a jsonb column
type ConsentSnapshot consent.Flags

func (s ConsentSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(consent.Flags(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *ConsentSnapshot) Scan(value interface{}) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		*s = ConsentSnapshot{}
		return nil
	default:
		return errors.New("consent snapshot: unsupported column type")
	}
	var f consent.Flags
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = ConsentSnapshot(f)
	return nil
}

// ConsentEvent is one immutable audit entry per submission
type ConsentEvent struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	SessionID string          `gorm:"type:varchar(64);index;not null" json:"session_id"`
	UserID    *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Before    ConsentSnapshot `gorm:"type:jsonb;not null" json:"before"`
	After     ConsentSnapshot `gorm:"type:jsonb;not null" json:"after"`
	Source    string          `gorm:"type:varchar(64);not null" json:"source"`
	Version   int             `gorm:"not null" json:"version"`
	IPHash    string          `gorm:"type:varchar(64)" json:"ip_hash"`
	UserAgent string          `gorm:"type:varchar(500)" json:"user_agent"`
	Region    string          `gorm:"type:varchar(16)" json:"region"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

func (e *ConsentEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
