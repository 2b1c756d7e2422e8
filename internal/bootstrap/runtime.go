// Package bootstrap wires the database and cache for the server binary.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"usof/internal/cache"
	"usof/internal/config"
	"usof/internal/database"
	"usof/internal/middleware"
	"usof/internal/models"
	"usof/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to DB and Redis, ensures the development root admin
// and, when enabled, the built-in categories.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// nil when redis is unreachable
	r := cache.ConnectOptional(context.Background(), cfg.RedisURL)

	if err := Prepare(cfg, db); err != nil {
		return nil, nil, err
	}
	return db, r, nil
}

// Prepare runs the idempotent startup writes against an open database.
func Prepare(cfg *config.Config, db *gorm.DB) error {
	if err := ensureDevRootAdmin(cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}
	if cfg.SeedCategories {
		if _, err := seed.Categories(db); err != nil {
			return fmt.Errorf("failed to seed built-in categories: %w", err)
		}
	}
	return nil
}

func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "usof_root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@usof.local"
	}
	if cfg.DevRootPassword == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevRootPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("username = ?", username).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Username:     username,
				Email:        email,
				PasswordHash: string(hashed),
				FullName:     "Root Administrator",
				Role:         models.RoleAdmin,
				IsVerified:   true,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		}

		updates := map[string]any{"role": models.RoleAdmin}
		if cfg.DevRootForceCredentials {
			updates["email"] = email
			updates["password_hash"] = string(hashed)
		}
		return tx.Model(&models.User{}).Where("id = ?", root.ID).Updates(updates).Error
	}); err != nil {
		return err
	}

	middleware.Logger.Info("development root admin ensured", "username", username, "email", email)
	return nil
}
