package models

import (
	"time"

	"gorm.io/gorm"
)

// User role constants
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User status constants
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
	UserStatusDeleted = "deleted"
)

// User represents an account
type User struct {
	ID         string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	Username   string    `gorm:"type:varchar(32);not null;uniqueIndex;column:username" json:"username"`
	Role       string    `gorm:"type:varchar(16);not null;default:user;column:role" json:"role"`
	Status     string    `gorm:"type:varchar(16);not null;default:active;column:status" json:"status"`
	IsVerified bool      `gorm:"not null;default:false;column:is_verified" json:"isVerified"`
	CreatedAt  time.Time `gorm:"not null;column:created_at" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null;column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "circle_users"
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// IsAdmin reports whether the user may moderate content.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// Profile holds the public presentation of a user
type Profile struct {
	ID           string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;uniqueIndex;column:user_id" json:"userId"`
	FullName     string    `gorm:"type:varchar(128);column:full_name" json:"fullName"`
	ProfilePhoto string    `gorm:"type:text;column:profile_photo" json:"profilePhoto"`
	Bio          string    `gorm:"type:text;column:bio" json:"bio"`
	CreatedAt    time.Time `gorm:"not null;column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null;column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name for Profile
func (Profile) TableName() string {
	return "circle_profiles"
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
