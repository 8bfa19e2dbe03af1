package models

import "time"

// Role values stored on User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an authenticated user in the system.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"uniqueIndex;size:255;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	Role         string    `gorm:"size:50;not null;default:user" json:"role"`

	Settings *UserSettings `gorm:"foreignKey:UserID" json:"-"`

	// Pages this user may view even when they are private.
	PermittedPages []Page `gorm:"many2many:page_allowed_users" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserSettings holds per-user display preferences, one row per user.
// Rows are materialized lazily on first read; the unique index on UserID
// makes a concurrent first read safe (the losing insert fails, never a
// second row).
type UserSettings struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Theme             string    `gorm:"size:50;not null;default:light" json:"theme"`
	DefaultVisibility string    `gorm:"size:50;not null;default:public" json:"default_visibility"`
	DefaultEdit       string    `gorm:"size:50;not null;default:private" json:"default_edit"`
	DisplayName       string    `gorm:"size:255" json:"display_name"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}
