package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a registered forum member.
// Deleting a user removes their posts, comments and likes through
// ON DELETE CASCADE foreign keys declared on the owning side.
type User struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"not null" json:"-"`
	FullName       string    `gorm:"size:255;not null" json:"full_name"`
	Role           Role      `gorm:"size:16;not null;default:USER" json:"role"`
	IsVerified     bool      `gorm:"not null;default:false" json:"is_verified"`
	Rating         float64   `gorm:"not null;default:0" json:"rating"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate assigns the user id.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	assignID(&u.ID)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
