package main

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/auth"
	"github.com/calebdee/dndwiki/internal/config"
	"github.com/calebdee/dndwiki/internal/handlers"
	"github.com/calebdee/dndwiki/internal/mail"
	"github.com/calebdee/dndwiki/internal/services"
	"github.com/calebdee/dndwiki/internal/upload"
)

// NewApp wires services, handlers, and middleware into the root handler.
func NewApp(cfg *config.Config, dbConn *gorm.DB, logger zerolog.Logger, notifier mail.Notifier, store *upload.Store) http.Handler {
	tokens := auth.NewTokens(cfg.Auth)

	users := services.NewUserService(dbConn)
	pages := services.NewPageService(dbConn, notifier, cfg.Mail.BaseURL)
	settings := services.NewSettingsService(dbConn)
	journals := services.NewJournalService(dbConn)

	authH := handlers.NewAuthHandler(users, tokens)
	pageH := handlers.NewPageHandler(pages)
	settingsH := handlers.NewSettingsHandler(settings)
	userH := handlers.NewUserHandler(users)
	journalH := handlers.NewJournalHandler(journals)
	uploadH := handlers.NewUploadHandler(store)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", authH.Register)
	mux.HandleFunc("POST /api/token", authH.Login)
	mux.Handle("GET /api/me", auth.RequireAuth(http.HandlerFunc(authH.Me)))

	mux.HandleFunc("GET /api/pages", pageH.List)
	mux.HandleFunc("GET /api/pages/summary", pageH.Summary)
	mux.Handle("GET /api/pages/all", auth.RequireAuth(http.HandlerFunc(pageH.All)))
	mux.HandleFunc("GET /api/pages/{slug}", pageH.Get)
	mux.Handle("POST /api/pages", auth.RequireAuth(http.HandlerFunc(pageH.Create)))
	mux.Handle("PUT /api/pages/{slug}", auth.RequireAuth(http.HandlerFunc(pageH.Update)))
	mux.HandleFunc("PATCH /api/pages/{slug}", pageH.PatchVisibility)
	mux.Handle("POST /api/pages/{slug}/allow/{username}", auth.RequireAuth(http.HandlerFunc(pageH.Grant)))
	mux.HandleFunc("GET /api/pages/{slug}/allowed", pageH.Allowed)
	mux.HandleFunc("GET /api/user-pages/{username}", pageH.UserPages)

	mux.Handle("GET /api/user/settings", auth.RequireAuth(http.HandlerFunc(settingsH.Get)))
	mux.Handle("PUT /api/user/settings", auth.RequireAuth(http.HandlerFunc(settingsH.Update)))
	mux.Handle("GET /api/users", auth.RequireAuth(http.HandlerFunc(userH.List)))

	mux.HandleFunc("GET /api/journals", journalH.List)
	mux.HandleFunc("GET /api/journals/{id}", journalH.Get)
	mux.HandleFunc("POST /api/journals", journalH.Create)
	mux.HandleFunc("POST /api/journals/{id}/entries", journalH.AddEntry)
	mux.HandleFunc("PUT /api/journal-entries/{id}", journalH.UpdateEntry)
	mux.HandleFunc("DELETE /api/journal-entries/{id}", journalH.DeleteEntry)

	mux.Handle("POST /api/upload-image", auth.RequireAuth(http.HandlerFunc(uploadH.Image)))
	mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir(store.Dir()))))

	handler := auth.Middleware(dbConn, tokens)(mux)
	handler = withCORS(cfg.Server.AllowedOrigins, handler)
	handler = withLogging(logger, handler)
	return handler
}

// withCORS allows the configured browser origins to call the API.
func withCORS(origins []string, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func withLogging(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
