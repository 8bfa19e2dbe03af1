package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/apperr"
	"github.com/calebdee/dndwiki/internal/models"
)

// SettingsInput carries updatable settings fields; nil means unchanged.
type SettingsInput struct {
	Theme             *string `json:"theme"`
	DefaultVisibility *string `json:"default_visibility"`
	DefaultEdit       *string `json:"default_edit"`
	DisplayName       *string `json:"display_name"`
}

// SettingsService materializes and updates per-user display preferences.
type SettingsService struct {
	DB *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService { return &SettingsService{DB: db} }

// GetOrCreate returns the user's settings row, creating it with defaults on
// first read. Two concurrent first reads may both attempt the insert; the
// unique index on user_id fails the loser, which then reads the winner's
// row. Either way exactly one row exists afterwards.
func (s *SettingsService) GetOrCreate(user *models.User) (*models.UserSettings, error) {
	var settings models.UserSettings
	err := s.DB.Where("user_id = ?", user.ID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings = models.UserSettings{
		UserID:            user.ID,
		Theme:             "light",
		DefaultVisibility: models.VisibilityPublic,
		DefaultEdit:       models.AccessPrivate,
		DisplayName:       user.Username,
	}
	if err := s.DB.Create(&settings).Error; err != nil {
		var existing models.UserSettings
		if fetchErr := s.DB.Where("user_id = ?", user.ID).First(&existing).Error; fetchErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &settings, nil
}

// Update applies partial changes to the user's settings, materializing the
// row first if needed.
func (s *SettingsService) Update(user *models.User, in SettingsInput) (*models.UserSettings, error) {
	settings, err := s.GetOrCreate(user)
	if err != nil {
		return nil, err
	}

	if in.Theme != nil {
		settings.Theme = *in.Theme
	}
	if in.DefaultVisibility != nil {
		if !models.ValidVisibility(*in.DefaultVisibility) {
			return nil, apperr.Invalid("invalid visibility value")
		}
		settings.DefaultVisibility = *in.DefaultVisibility
	}
	if in.DefaultEdit != nil {
		if !models.ValidAccessType(*in.DefaultEdit) {
			return nil, apperr.Invalid("invalid access_type value")
		}
		settings.DefaultEdit = *in.DefaultEdit
	}
	if in.DisplayName != nil {
		settings.DisplayName = *in.DisplayName
	}

	if err := s.DB.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
