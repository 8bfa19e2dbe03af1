package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/calebdee/dndwiki/internal/auth"
	"github.com/calebdee/dndwiki/internal/httpx"
	"github.com/calebdee/dndwiki/internal/markup"
	"github.com/calebdee/dndwiki/internal/models"
	"github.com/calebdee/dndwiki/internal/policy"
	"github.com/calebdee/dndwiki/internal/services"
)

type PageHandler struct {
	pages *services.PageService
}

func NewPageHandler(pages *services.PageService) *PageHandler {
	return &PageHandler{pages: pages}
}

// actorFrom converts the request identity, if any, into a policy actor.
func actorFrom(r *http.Request) policy.Actor {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return policy.Identify(user)
	}
	return policy.Anonymous()
}

// pageDetail is the full page representation returned by Get.
type pageDetail struct {
	ID                uint            `json:"id"`
	Title             string          `json:"title"`
	Slug              string          `json:"slug"`
	Content           string          `json:"content"`
	ContentHTML       string          `json:"content_html"`
	Visibility        string          `json:"visibility"`
	AccessType        string          `json:"access_type"`
	MainImage         string          `json:"main_image,omitempty"`
	Info              json.RawMessage `json:"info,omitempty"`
	CreatedBy         uint            `json:"created_by"`
	CreatedByUsername string          `json:"created_by_username"`
	UpdatedAt         string          `json:"updated_at"`
}

func (h *PageHandler) detail(page *models.Page) pageDetail {
	return pageDetail{
		ID:                page.ID,
		Title:             page.Title,
		Slug:              page.Slug,
		Content:           page.Content,
		ContentHTML:       markup.Render(page.Content),
		Visibility:        page.Visibility,
		AccessType:        page.AccessType,
		MainImage:         page.MainImage,
		Info:              json.RawMessage(page.Info),
		CreatedBy:         page.CreatedBy,
		CreatedByUsername: h.pages.CreatorUsername(page),
		UpdatedAt:         page.UpdatedAt.Format(time.RFC3339),
	}
}

// List returns every page the requester may view.
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.List(actorFrom(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pages)
}

// Summary returns the minimal projection, most recently updated first.
func (h *PageHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.pages.Summaries(actorFrom(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaries)
}

// All returns metadata for every page; routed behind RequireAuth.
func (h *PageHandler) All(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.All()
	if err != nil {
		httpx.Error(w, err)
		return
	}
	out := make([]map[string]any, len(pages))
	for i, p := range pages {
		out[i] = map[string]any{
			"slug":       p.Slug,
			"title":      p.Title,
			"visibility": p.Visibility,
			"created_by": p.CreatedBy,
		}
	}
	httpx.JSON(w, http.StatusOK, out)
}

// UserPages lists a user's pages, public-only for everyone but the author.
func (h *PageHandler) UserPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.UserPages(r.PathValue("username"), actorFrom(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pages)
}

// Get returns one page by slug, subject to the view rule.
func (h *PageHandler) Get(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.GetBySlug(r.PathValue("slug"), actorFrom(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.detail(page))
}

// Create makes a new page owned by the requester; routed behind RequireAuth.
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	var input services.PageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	page, err := h.pages.Create(user, input)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, page)
}

// Update applies a full edit; routed behind RequireAuth.
func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input services.PageUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	page, err := h.pages.Update(r.PathValue("slug"), actorFrom(r), input)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// PatchVisibility flips the visibility flag under the weaker patch rule.
func (h *PageHandler) PatchVisibility(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Visibility string `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	page, err := h.pages.SetVisibility(r.PathValue("slug"), actorFrom(r), input.Visibility)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"visibility": page.Visibility})
}

// Grant adds a user to the page's allow-list; routed behind RequireAuth.
func (h *PageHandler) Grant(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	username := r.PathValue("username")
	page, err := h.pages.Grant(r.PathValue("slug"), user, username)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s can now view '%s'", username, page.Title),
	})
}

// Allowed lists the page's allow-list for the owner and listed users.
func (h *PageHandler) Allowed(w http.ResponseWriter, r *http.Request) {
	refs, err := h.pages.AllowedUsers(r.PathValue("slug"), actorFrom(r))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, refs)
}
