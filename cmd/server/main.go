package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/calebdee/dndwiki/internal/auth"
	"github.com/calebdee/dndwiki/internal/config"
	"github.com/calebdee/dndwiki/internal/db"
	"github.com/calebdee/dndwiki/internal/mail"
	"github.com/calebdee/dndwiki/internal/upload"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Seed the admin account and exit")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	logger := newLogger(cfg.App.Dev)

	dbConn, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}

	if cfg.App.Migrations && cfg.Database.Driver == "postgres" {
		err = db.MigrateSQL(cfg.Database)
	} else {
		err = db.Migrate(dbConn)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	if *migrateOnlyFlag {
		logger.Info().Msg("migrations completed; exiting as requested")
		return
	}

	if cfg.App.Seed || *seedOnlyFlag {
		hash, err := auth.HashPassword(getSeedPassword())
		if err != nil {
			logger.Fatal().Err(err).Msg("seed password hash failed")
		}
		if err := db.Seed(dbConn, hash); err != nil {
			logger.Fatal().Err(err).Msg("seed failed")
		}
		if *seedOnlyFlag {
			logger.Info().Msg("seed completed; exiting as requested")
			return
		}
	}

	store, err := upload.NewStore(cfg.Storage.ImagesDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.Storage.ImagesDir).Msg("image storage init failed")
	}

	var notifier mail.Notifier = mail.Discard{}
	var mailer *mail.Mailer
	if cfg.Mail.Enabled() {
		mailer = mail.NewMailer(cfg.Mail, logger)
		mailer.Start()
		notifier = mailer
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(cfg, dbConn, logger, notifier, store),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("driver", cfg.Database.Driver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
	if mailer != nil {
		mailer.Close()
	}
	logger.Info().Msg("server gracefully stopped")
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func getSeedPassword() string {
	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
		return pw
	}
	return "changeme"
}
