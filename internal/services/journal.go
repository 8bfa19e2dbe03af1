package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/apperr"
	"github.com/calebdee/dndwiki/internal/models"
)

var (
	ErrJournalNotFound = apperr.NotFound("journal not found")
	ErrEntryNotFound   = apperr.NotFound("entry not found")
)

// JournalService is plain CRUD over journals and their ordered entries.
type JournalService struct {
	DB *gorm.DB
}

func NewJournalService(db *gorm.DB) *JournalService { return &JournalService{DB: db} }

// List returns all journals, newest first.
func (s *JournalService) List() ([]models.Journal, error) {
	var journals []models.Journal
	if err := s.DB.Order("created_at desc").Find(&journals).Error; err != nil {
		return nil, err
	}
	return journals, nil
}

// Get returns a journal and its entries ordered by order_index.
func (s *JournalService) Get(id uint) (*models.Journal, []models.JournalEntry, error) {
	var journal models.Journal
	if err := s.DB.First(&journal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrJournalNotFound
		}
		return nil, nil, err
	}
	var entries []models.JournalEntry
	if err := s.DB.Where("journal_id = ?", id).Order("order_index asc").Find(&entries).Error; err != nil {
		return nil, nil, err
	}
	return &journal, entries, nil
}

// Create adds a journal. createdBy is zero for anonymous creation.
func (s *JournalService) Create(title string, createdBy uint) (*models.Journal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Invalid("title is required")
	}
	journal := models.Journal{Title: title, CreatedBy: createdBy}
	if err := s.DB.Create(&journal).Error; err != nil {
		return nil, err
	}
	return &journal, nil
}

// AddEntry appends an entry with order_index equal to the current entry
// count. Indexes are never reassigned, so deletions leave gaps by design.
func (s *JournalService) AddEntry(journalID uint, content string) (*models.JournalEntry, error) {
	var journal models.Journal
	if err := s.DB.First(&journal, journalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJournalNotFound
		}
		return nil, err
	}

	var count int64
	if err := s.DB.Model(&models.JournalEntry{}).Where("journal_id = ?", journalID).Count(&count).Error; err != nil {
		return nil, err
	}
	entry := models.JournalEntry{JournalID: journalID, Content: content, OrderIndex: int(count)}
	if err := s.DB.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry replaces an entry's content.
func (s *JournalService) UpdateEntry(entryID uint, content string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	if err := s.DB.First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	entry.Content = content
	if err := s.DB.Save(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes an entry without renumbering the others.
func (s *JournalService) DeleteEntry(entryID uint) error {
	res := s.DB.Delete(&models.JournalEntry{}, entryID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
