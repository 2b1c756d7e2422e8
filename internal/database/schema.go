package database

import (
	"context"
	"fmt"
	"strings"

	"usof/internal/config"
	"usof/internal/middleware"

	"gorm.io/gorm"
)

const (
	// SchemaModeAuto runs GORM AutoMigrate on startup.
	SchemaModeAuto = "auto"
	// SchemaModeNone leaves the schema to an external migration tool.
	SchemaModeNone = "none"
)

func isProdLikeEnv(env string) bool {
	e := strings.ToLower(strings.TrimSpace(env))
	return e == "production" || e == "prod" || e == "staging" || e == "stage"
}

func normalizedSchemaMode(cfg *config.Config) string {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		return SchemaModeAuto
	}
	return mode
}

// schemaPolicy reports whether AutoMigrate should run for cfg.
func schemaPolicy(cfg *config.Config) (bool, error) {
	switch mode := normalizedSchemaMode(cfg); mode {
	case SchemaModeNone:
		return false, nil
	case SchemaModeAuto:
		if isProdLikeEnv(cfg.Env) && !cfg.DBAutoMigrateAllowDestructive {
			return false, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// Migrate creates or updates every persistent table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// ApplySchema runs the schema step selected by DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return err
	}
	if !runAuto {
		middleware.Logger.InfoContext(ctx, "Skipping automatic schema migration", "mode", normalizedSchemaMode(cfg))
		return nil
	}

	if err := Migrate(db.WithContext(ctx)); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "Database migration completed")
	return nil
}
