// Package models contains the persistent entities and shared error types.
package models

import "time"

// Role is a user's authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account holder. Password, verification and reset-token fields are
// never serialized.
type User struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"not null" json:"name"`
	Username      string `gorm:"uniqueIndex;not null" json:"username"`
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`
	Password      string `gorm:"not null" json:"-"`
	MobileNumber  string `json:"mobile_number,omitempty"`
	Role          Role   `gorm:"type:varchar(16);default:'user'" json:"role"`

	// Avatar references an asset in the media store.
	AvatarID  string `json:"avatar_id,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`

	VerificationToken      string     `gorm:"index" json:"-"`
	ResetPasswordToken     string     `gorm:"index" json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts []Post `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`

	// Follow graph projections, populated on demand.
	FollowerIDs  []uint `gorm:"-" json:"followers,omitempty"`
	FollowingIDs []uint `gorm:"-" json:"following,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
