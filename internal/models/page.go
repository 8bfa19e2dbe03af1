package models

import (
	"time"

	"gorm.io/datatypes"
)

// Visibility controls who may view a page.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// AccessType controls who besides the owner may edit a page.
const (
	AccessAllUsers = "all_users"
	AccessPrivate  = "private"
)

// ValidVisibility reports whether v is a known visibility value.
func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// ValidAccessType reports whether v is a known access type.
func ValidAccessType(v string) bool {
	return v == AccessAllUsers || v == AccessPrivate
}

// Page is a wiki content unit. Slug is derived from the title once at
// creation and never changes afterwards; CreatedBy is likewise immutable.
type Page struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Slug       string         `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Visibility string         `gorm:"size:50;not null;default:public" json:"visibility"`
	AccessType string         `gorm:"size:50;not null;default:all_users" json:"access_type"`
	MainImage  string         `gorm:"size:512" json:"main_image,omitempty"`
	Info       datatypes.JSON `json:"info,omitempty"`
	CreatedBy  uint           `gorm:"index;not null" json:"created_by"`

	// Users granted view access while the page is private. Membership lives
	// in the page_allowed_users join table keyed by (page_id, user_id).
	AllowedUsers []User `gorm:"many2many:page_allowed_users" json:"-"`
}

// IsPublic reports whether the page is visible to everyone.
func (p *Page) IsPublic() bool { return p.Visibility == VisibilityPublic }

// PageSummary is the minimal listing projection.
type PageSummary struct {
	ID    uint   `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}
