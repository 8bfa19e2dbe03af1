package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/apperr"
	"github.com/calebdee/dndwiki/internal/mail"
	"github.com/calebdee/dndwiki/internal/models"
	"github.com/calebdee/dndwiki/internal/policy"
)

var (
	ErrPageNotFound   = apperr.NotFound("page not found")
	ErrViewForbidden  = apperr.Forbidden("not authorized to view this page")
	ErrEditForbidden  = apperr.Forbidden("not authorized to edit this page")
	ErrOwnerOnly      = apperr.Forbidden("only the page owner can manage access")
	ErrAlreadyGranted = apperr.Conflict("user already allowed")
	ErrSlugTaken      = apperr.Conflict("a page with this title already exists")
)

// PageInput carries the fields a client may set at creation.
type PageInput struct {
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	Visibility string          `json:"visibility"`
	AccessType string          `json:"access_type"`
	MainImage  string          `json:"main_image"`
	Info       json.RawMessage `json:"info"`
}

// PageUpdate carries the fields a client may change later. Nil pointers mean
// "leave unchanged". Slug and created_by are never updatable.
type PageUpdate struct {
	Title      *string         `json:"title"`
	Content    *string         `json:"content"`
	MainImage  *string         `json:"main_image"`
	Info       json.RawMessage `json:"info"`
	Visibility *string         `json:"visibility"`
	AccessType *string         `json:"access_type"`
}

// UserRef is the minimal projection of an allow-listed user.
type UserRef struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// PageService implements page CRUD, visibility-filtered listing and
// allow-list grants.
type PageService struct {
	DB       *gorm.DB
	Notifier mail.Notifier
	BaseURL  string
}

func NewPageService(db *gorm.DB, notifier mail.Notifier, baseURL string) *PageService {
	if notifier == nil {
		notifier = mail.Discard{}
	}
	return &PageService{DB: db, Notifier: notifier, BaseURL: baseURL}
}

// Create builds a page owned by owner. The slug is derived from the title
// once, here; a colliding slug is rejected as a conflict.
func (s *PageService) Create(owner *models.User, in PageInput) (*models.Page, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Invalid("title is required")
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	if in.AccessType == "" {
		in.AccessType = models.AccessAllUsers
	}
	if !models.ValidVisibility(in.Visibility) {
		return nil, apperr.Invalid("invalid visibility value")
	}
	if !models.ValidAccessType(in.AccessType) {
		return nil, apperr.Invalid("invalid access_type value")
	}

	slug := Slugify(in.Title)
	var count int64
	if err := s.DB.Model(&models.Page{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	page := models.Page{
		Title:      in.Title,
		Slug:       slug,
		Content:    in.Content,
		Visibility: in.Visibility,
		AccessType: in.AccessType,
		MainImage:  in.MainImage,
		Info:       datatypes.JSON(in.Info),
		CreatedBy:  owner.ID,
	}
	if err := s.DB.Create(&page).Error; err != nil {
		// Unique index on slug catches creation races the count missed.
		return nil, apperr.Wrap(ErrSlugTaken, err)
	}
	return &page, nil
}

// GetBySlug returns a page the actor may view. A missing page and a page the
// actor may not see are distinct failures; they must never be conflated.
func (s *PageService) GetBySlug(slug string, actor policy.Actor) (*models.Page, error) {
	page, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(page, actor) {
		return nil, ErrViewForbidden
	}
	return page, nil
}

// List returns every page the actor may view.
func (s *PageService) List(actor policy.Actor) ([]models.Page, error) {
	var pages []models.Page
	if err := s.DB.Scopes(policy.VisibleTo(actor)).Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Summaries returns the minimal projection of the actor's visible pages,
// most recently updated first.
func (s *PageService) Summaries(actor policy.Actor) ([]models.PageSummary, error) {
	var summaries []models.PageSummary
	if err := s.DB.Model(&models.Page{}).
		Scopes(policy.VisibleTo(actor)).
		Select("id, slug, title").
		Order("updated_at desc").
		Find(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// All returns metadata for every page regardless of visibility. Callers must
// be authenticated; this feeds the owner-facing overview.
func (s *PageService) All() ([]models.Page, error) {
	var pages []models.Page
	if err := s.DB.Order("title asc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// UserPages lists pages created by the named user, alphabetically by title.
// Anyone other than the author sees only the public ones.
func (s *PageService) UserPages(username string, actor policy.Actor) ([]models.Page, error) {
	var author models.User
	if err := s.DB.Where("username = ?", username).First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	q := s.DB.Where("created_by = ?", author.ID)
	if user, ok := actor.Identity(); !ok || user.ID != author.ID {
		q = q.Where("visibility = ?", models.VisibilityPublic)
	}
	var pages []models.Page
	if err := q.Order("title asc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Update applies a full edit under the edit rule (owner or admin). The slug
// is derived once at creation and deliberately not recomputed here.
func (s *PageService) Update(slug string, actor policy.Actor, in PageUpdate) (*models.Page, error) {
	page, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	if !policy.CanEdit(page, actor) {
		return nil, ErrEditForbidden
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, apperr.Invalid("title is required")
		}
		page.Title = *in.Title
	}
	if in.Content != nil {
		page.Content = *in.Content
	}
	if in.MainImage != nil {
		page.MainImage = *in.MainImage
	}
	if in.Info != nil {
		page.Info = datatypes.JSON(in.Info)
	}
	if in.Visibility != nil {
		if !models.ValidVisibility(*in.Visibility) {
			return nil, apperr.Invalid("invalid visibility value")
		}
		page.Visibility = *in.Visibility
	}
	if in.AccessType != nil {
		if !models.ValidAccessType(*in.AccessType) {
			return nil, apperr.Invalid("invalid access_type value")
		}
		page.AccessType = *in.AccessType
	}

	if err := s.DB.Save(page).Error; err != nil {
		return nil, err
	}
	return page, nil
}

// SetVisibility flips only the visibility flag, under the weaker patch rule
// (owner, or anyone authenticated when the page is marked all_users).
func (s *PageService) SetVisibility(slug string, actor policy.Actor, visibility string) (*models.Page, error) {
	page, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	if !policy.CanSetVisibility(page, actor) {
		return nil, ErrEditForbidden
	}
	if !models.ValidVisibility(visibility) {
		return nil, apperr.Invalid("invalid visibility value")
	}
	page.Visibility = visibility
	if err := s.DB.Model(page).Update("visibility", visibility).Error; err != nil {
		return nil, err
	}
	return page, nil
}

// Grant adds granteeUsername to the page's allow-list. Owner-only: admins
// have no override here, unlike the edit rule. Granting an already-listed
// user reports AlreadyGranted instead of silently succeeding. On success a
// notification email is queued; its delivery is best-effort and decoupled
// from the grant itself.
func (s *PageService) Grant(slug string, granter *models.User, granteeUsername string) (*models.Page, error) {
	page, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	if page.CreatedBy != granter.ID {
		return nil, ErrOwnerOnly
	}

	var grantee models.User
	if err := s.DB.Where("username = ?", granteeUsername).First(&grantee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	for _, u := range page.AllowedUsers {
		if u.ID == grantee.ID {
			return nil, ErrAlreadyGranted
		}
	}

	if err := s.DB.Model(page).Association("AllowedUsers").Append(&grantee); err != nil {
		return nil, err
	}

	if grantee.Email != "" {
		s.Notifier.Notify(mail.Message{
			To:      grantee.Email,
			Subject: fmt.Sprintf("%s shared a private wiki page with you", granter.Username),
			Body:    fmt.Sprintf("Visit your shared page:\n\n%s/view/%s", s.BaseURL, page.Slug),
		})
	}
	return page, nil
}

// AllowedUsers lists the allow-list of a page, visible to the owner and to
// listed users themselves.
func (s *PageService) AllowedUsers(slug string, actor policy.Actor) ([]UserRef, error) {
	page, err := s.load(slug)
	if err != nil {
		return nil, err
	}
	user, ok := actor.Identity()
	if !ok {
		return nil, ErrViewForbidden
	}
	allowed := user.ID == page.CreatedBy
	for _, u := range page.AllowedUsers {
		if u.ID == user.ID {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrViewForbidden
	}

	refs := make([]UserRef, len(page.AllowedUsers))
	for i, u := range page.AllowedUsers {
		refs[i] = UserRef{ID: u.ID, Username: u.Username}
	}
	return refs, nil
}

// load fetches a page with its allow-list, mapping a missing row to the
// taxonomy's NotFound.
func (s *PageService) load(slug string) (*models.Page, error) {
	var page models.Page
	if err := s.DB.Preload("AllowedUsers").Where("slug = ?", slug).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// CreatorUsername resolves the owner's username for the detail response.
func (s *PageService) CreatorUsername(page *models.Page) string {
	var creator models.User
	if err := s.DB.Select("username").First(&creator, page.CreatedBy).Error; err != nil {
		return "Unknown"
	}
	return creator.Username
}
