package models

import "time"

// Journal owns an ordered sequence of entries.
type Journal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	CreatedBy uint      `gorm:"index" json:"created_by,omitempty"`

	Entries []JournalEntry `gorm:"foreignKey:JournalID" json:"-"`
}

// JournalEntry is one entry in a journal. OrderIndex is assigned as the
// entry count at append time and is never reassigned, so deleting entries
// leaves gaps.
type JournalEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	JournalID  uint      `gorm:"index;not null" json:"journal_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	OrderIndex int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
