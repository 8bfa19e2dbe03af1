package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/calebdee/dndwiki/internal/auth"
	"github.com/calebdee/dndwiki/internal/httpx"
	"github.com/calebdee/dndwiki/internal/services"
)

type JournalHandler struct {
	journals *services.JournalService
}

func NewJournalHandler(journals *services.JournalService) *JournalHandler {
	return &JournalHandler{journals: journals}
}

func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	return uint(id), err == nil
}

// List returns all journals, newest first.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	journals, err := h.journals.List()
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, journals)
}

// Get returns one journal with its entries in order.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid journal id", nil)
		return
	}
	journal, entries, err := h.journals.Get(id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"journal": journal,
		"entries": entries,
	})
}

// Create adds a journal, attributed to the requester when authenticated.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	var createdBy uint
	if user, ok := auth.UserFromContext(r.Context()); ok {
		createdBy = user.ID
	}
	journal, err := h.journals.Create(input.Title, createdBy)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": journal.ID, "title": journal.Title})
}

// AddEntry appends an entry to a journal.
func (h *JournalHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid journal id", nil)
		return
	}
	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	entry, err := h.journals.AddEntry(id, input.Content)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

// UpdateEntry replaces an entry's content.
func (h *JournalHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid entry id", nil)
		return
	}
	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	entry, err := h.journals.UpdateEntry(id, input.Content)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

// DeleteEntry removes an entry. Remaining order indexes keep their gaps.
func (h *JournalHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid entry id", nil)
		return
	}
	if err := h.journals.DeleteEntry(id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "entry deleted"})
}
