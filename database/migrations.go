package database

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"portfolio/analytics"
	"portfolio/models"
	"portfolio/validation"
)

func RunMigrations(db *gorm.DB) error {
	slog.Info("running database migrations")

	tables := append(models.All(), &analytics.PostView{})
	if err := db.AutoMigrate(tables...); err != nil {
		slog.Error("migrations failed", "error", err)
		return err
	}

	slog.Info("migrations completed", "tables", len(tables))
	return nil
}

// SeedAdmin creates the admin account when no user named username exists.
// An existing account is never modified.
func SeedAdmin(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		slog.Warn("ADMIN_USERNAME or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD: %w", err)
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return err
	}

	user := models.User{Username: username, PasswordHash: hash, IsAdmin: true}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	slog.Info("admin user created", "username", username)
	return nil
}
