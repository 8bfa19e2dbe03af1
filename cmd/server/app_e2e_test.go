package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/config"
	"github.com/calebdee/dndwiki/internal/mail"
	"github.com/calebdee/dndwiki/internal/models"
	"github.com/calebdee/dndwiki/internal/upload"
)

func setupE2EApp(t *testing.T) http.Handler {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open("file:e2e_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := dbi.AutoMigrate(
		&models.User{}, &models.UserSettings{}, &models.Page{},
		&models.Journal{}, &models.JournalEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := upload.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Auth:   config.AuthConfig{JWTSecret: "e2e-secret", TokenTTL: 60, Issuer: "e2e"},
		Mail:   config.MailConfig{BaseURL: "https://wiki.test"},
	}
	return NewApp(cfg, dbi, zerolog.Nop(), mail.Discard{}, store)
}

func doJSON(t *testing.T, app http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	return rr
}

func registerAndLogin(t *testing.T, app http.Handler, username string) string {
	t.Helper()
	rr := doJSON(t, app, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"email":    username + "@test",
		"password": "hunter22",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: %d body=%s", username, rr.Code, rr.Body.String())
	}

	form := url.Values{"username": {username}, "password": {"hunter22"}}
	req := httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: %d body=%s", username, rr.Code, rr.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil || out.AccessToken == "" {
		t.Fatalf("login %s: no token in %s", username, rr.Body.String())
	}
	return out.AccessToken
}

func TestRegisterLoginMeE2E(t *testing.T) {
	app := setupE2EApp(t)
	token := registerAndLogin(t, app, "alice")

	rr := doJSON(t, app, http.MethodGet, "/api/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"alice"`) {
		t.Errorf("me response missing username: %s", rr.Body.String())
	}

	if rr := doJSON(t, app, http.MethodGet, "/api/me", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /api/me: %d, want 401", rr.Code)
	}
	if rr := doJSON(t, app, http.MethodGet, "/api/me", "bogus", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("bad token /api/me: %d, want 401", rr.Code)
	}
}

func TestPageVisibilityE2E(t *testing.T) {
	app := setupE2EApp(t)
	owner := registerAndLogin(t, app, "owner")
	stranger := registerAndLogin(t, app, "stranger")
	friend := registerAndLogin(t, app, "friend")

	rr := doJSON(t, app, http.MethodPost, "/api/pages", owner, map[string]any{
		"title":      "Secret Plans",
		"content":    "# hush",
		"visibility": "private",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d body=%s", rr.Code, rr.Body.String())
	}

	// Anonymous readers cannot even tell the page exists.
	req := httptest.NewRequest(http.MethodGet, "/api/pages/secret-plans", nil)
	anon := httptest.NewRecorder()
	app.ServeHTTP(anon, req)
	if anon.Code != http.StatusForbidden {
		t.Errorf("anonymous get private: %d, want 403", anon.Code)
	}

	if rr := doJSON(t, app, http.MethodGet, "/api/pages/secret-plans", stranger, nil); rr.Code != http.StatusForbidden {
		t.Errorf("stranger get private: %d, want 403", rr.Code)
	}
	if rr := doJSON(t, app, http.MethodGet, "/api/pages/no-such-page", stranger, nil); rr.Code != http.StatusNotFound {
		t.Errorf("get missing page: %d, want 404", rr.Code)
	}

	// Owner grants access; the friend can now read it.
	if rr := doJSON(t, app, http.MethodPost, "/api/pages/secret-plans/allow/friend", owner, nil); rr.Code != http.StatusOK {
		t.Fatalf("grant: %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, app, http.MethodGet, "/api/pages/secret-plans", friend, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("friend get after grant: %d body=%s", rr.Code, rr.Body.String())
	}
	var detail struct {
		ContentHTML string `json:"content_html"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if !strings.Contains(detail.ContentHTML, "<h1>") {
		t.Errorf("content not rendered to HTML: %q", detail.ContentHTML)
	}

	// Granting twice is a conflict, and only the owner may grant.
	if rr := doJSON(t, app, http.MethodPost, "/api/pages/secret-plans/allow/friend", owner, nil); rr.Code != http.StatusConflict {
		t.Errorf("duplicate grant: %d, want 409", rr.Code)
	}
	if rr := doJSON(t, app, http.MethodPost, "/api/pages/secret-plans/allow/stranger", friend, nil); rr.Code != http.StatusForbidden {
		t.Errorf("non-owner grant: %d, want 403", rr.Code)
	}

	// The stranger still sees only what listings expose.
	rr = doJSON(t, app, http.MethodGet, "/api/pages", stranger, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "secret-plans") {
		t.Errorf("private page leaked into stranger's list: %s", rr.Body.String())
	}
}

func TestSlugConflictE2E(t *testing.T) {
	app := setupE2EApp(t)
	token := registerAndLogin(t, app, "author")

	first := doJSON(t, app, http.MethodPost, "/api/pages", token, map[string]any{"title": "Goblin's Lair #1"})
	if first.Code != http.StatusCreated {
		t.Fatalf("create: %d body=%s", first.Code, first.Body.String())
	}
	if !strings.Contains(first.Body.String(), "goblin-s-lair-1") {
		t.Errorf("unexpected slug: %s", first.Body.String())
	}
	second := doJSON(t, app, http.MethodPost, "/api/pages", token, map[string]any{"title": "Goblin's lair #1"})
	if second.Code != http.StatusConflict {
		t.Errorf("colliding title: %d, want 409", second.Code)
	}
}

func TestSettingsAndJournalsE2E(t *testing.T) {
	app := setupE2EApp(t)
	token := registerAndLogin(t, app, "keeper")

	rr := doJSON(t, app, http.MethodGet, "/api/user/settings", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("settings get: %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"light"`) {
		t.Errorf("default theme missing: %s", rr.Body.String())
	}

	rr = doJSON(t, app, http.MethodPut, "/api/user/settings", token, map[string]string{"theme": "dark"})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"dark"`) {
		t.Errorf("settings update: %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, app, http.MethodPost, "/api/journals", token, map[string]string{"title": "Campaign Log"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("journal create: %d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode journal: %v", err)
	}

	for _, content := range []string{"first", "second"} {
		rr = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/journals/%d/entries", created.ID), token,
			map[string]string{"content": content})
		if rr.Code != http.StatusCreated {
			t.Fatalf("add entry %q: %d body=%s", content, rr.Code, rr.Body.String())
		}
	}

	rr = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/journals/%d", created.ID), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("journal get: %d", rr.Code)
	}
	if first := strings.Index(rr.Body.String(), "first"); first < 0 || first > strings.Index(rr.Body.String(), "second") {
		t.Errorf("entries out of order: %s", rr.Body.String())
	}
}

func TestCORSPreflightE2E(t *testing.T) {
	app := setupE2EApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/pages", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight: %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/pages", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	app.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unexpected allow-origin for unlisted origin")
	}
}
