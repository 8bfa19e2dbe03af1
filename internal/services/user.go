package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/apperr"
	"github.com/calebdee/dndwiki/internal/auth"
	"github.com/calebdee/dndwiki/internal/models"
)

var (
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrUserExists         = apperr.Conflict("username or email already exists")
	ErrInvalidCredentials = apperr.Invalid("invalid credentials")
)

// UserService handles registration and credential checks.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService { return &UserService{DB: db} }

// Register creates a new user with a hashed password and the default role.
func (s *UserService) Register(username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, apperr.Invalid("username, email and password are required")
	}

	var count int64
	if err := s.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		// A concurrent registration can win the race past the count check;
		// the unique indexes turn that into a conflict, not a second row.
		return nil, apperr.Wrap(ErrUserExists, err)
	}
	return &user, nil
}

// Authenticate verifies a username/password pair.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetByUsername looks a user up by username.
func (s *UserService) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns all users, for owner-facing sharing pickers.
func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Order("username asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
