package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
)

// User is a staff or band account; fans never log in here
type User struct {
	BaseModel
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FullName     string     `gorm:"type:varchar(255)" json:"full_name" validate:"required"`
	Role         authz.Role `gorm:"type:varchar(32);not null;index" json:"role" validate:"required,role"`
	IsActive     bool       `json:"is_active"`
	TokenVersion string     `gorm:"type:varchar(255)" json:"-"` // Bumped on login to revoke older tokens
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Subject returns the authorization identity of the user
func (u *User) Subject() authz.Subject {
	return authz.Subject{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          uuid.UUID          `json:"id"`
	Email       string             `json:"email"`
	FullName    string             `json:"full_name"`
	Role        authz.Role         `json:"role"`
	IsActive    bool               `json:"is_active"`
	LastSeenAt  *time.Time         `json:"last_seen_at,omitempty"`
	Permissions []authz.Permission `json:"permissions"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastSeenAt:  u.LastSeenAt,
		Permissions: authz.Permissions(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}
