// Package db opens the database connection and applies migrations.
package db

import (
	"fmt"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/config"
	"github.com/calebdee/dndwiki/internal/models"
)

// Connect opens the configured database. Postgres connections are retried a
// few times to let the server come up first.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.Driver == "sqlite" {
		return gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{})
	}

	var db *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	return db, nil
}

// Migrate applies the schema via GORM AutoMigrate. The uniqueness rules the
// application relies on (username, email, slug, settings user_id, and the
// allow-list composite key) all live in the model tags and the join table
// definition.
func Migrate(db *gorm.DB) error {
	for _, m := range []any{
		&models.User{},
		&models.UserSettings{},
		&models.Page{},
		&models.Journal{},
		&models.JournalEntry{},
	} {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// MigrateSQL runs the versioned SQL migrations in ./migrations against
// postgres. Used in deployments where the schema is managed explicitly
// instead of via AutoMigrate.
func MigrateSQL(cfg config.DatabaseConfig) error {
	m, err := migrate.New("file://migrations", cfg.URL())
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// Seed creates the initial admin account if no admin exists yet.
func Seed(db *gorm.DB, passwordHash string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	admin := models.User{
		Username:     "admin",
		Email:        "admin@localhost",
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	}
	return db.Create(&admin).Error
}
