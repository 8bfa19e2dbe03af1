package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/models"
)

func setupAuthDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMiddlewareIdentities(t *testing.T) {
	db := setupAuthDB(t)
	user := models.User{Username: "alice", Email: "alice@test", PasswordHash: "x", Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	tokens := testTokens("topsecret", 60)
	valid, err := tokens.Issue(user.ID, user.Username)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(db, tokens)(next)

	cases := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   bool
	}{
		{"no header is anonymous", "", http.StatusOK, false},
		{"valid token resolves user", "Bearer " + valid, http.StatusOK, true},
		{"malformed header rejected", "Token abc", http.StatusUnauthorized, false},
		{"garbage token rejected", "Bearer garbage", http.StatusUnauthorized, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != c.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, c.wantStatus)
			}
			if c.wantUser && (seen == nil || seen.Username != "alice") {
				t.Errorf("expected alice in context, got %+v", seen)
			}
			if !c.wantUser && seen != nil {
				t.Errorf("expected anonymous request, got user %q", seen.Username)
			}
		})
	}
}

func TestMiddlewareRejectsTokenForDeletedUser(t *testing.T) {
	db := setupAuthDB(t)
	user := models.User{Username: "ghost", Email: "ghost@test", PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	tokens := testTokens("topsecret", 60)
	valid, err := tokens.Issue(user.ID, user.Username)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := db.Unscoped().Delete(&user).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	handler := Middleware(db, tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for a deleted user")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{Username: "alice"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", rec.Code)
	}
}
