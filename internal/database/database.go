// Package database handles database connections and schema management.
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"usof/internal/config"
	"usof/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the GORM driver for the configured DB_DRIVER.
func Dialector(cfg *config.Config) gorm.Dialector {
	if cfg.DBDriver == "sqlite" {
		return SQLiteDialector(cfg.DBSQLitePath)
	}
	return postgres.Open(PostgresDSN(cfg))
}

// PostgresDSN renders the connection settings as a postgres:// URL so
// credentials with spaces or quotes survive.
func PostgresDSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     cfg.DBHost + ":" + cfg.DBPort,
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// GormConfig is shared by Connect and tests so both translate driver
// errors the same way.
func GormConfig(l logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:         l,
		TranslateError: true,
	}
}

// Connect opens the configured database, sizes its pool and applies the
// schema policy.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(Dialector(cfg), GormConfig(NewGormLogger(middleware.Logger, logger.Warn)))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	middleware.Logger.Info("Database connected successfully", "driver", db.Dialector.Name())

	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}
	if err := ApplySchema(context.Background(), db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

type poolLimits struct {
	maxOpen, maxIdle int
	lifetime         time.Duration
}

func limitsFor(cfg *config.Config) poolLimits {
	l := poolLimits{maxOpen: 25, maxIdle: 5, lifetime: 5 * time.Minute}
	if cfg.DBMaxOpenConns > 0 {
		l.maxOpen = cfg.DBMaxOpenConns
	}
	if cfg.DBMaxIdleConns > 0 {
		l.maxIdle = cfg.DBMaxIdleConns
	}
	if cfg.DBConnMaxLifetimeMinutes > 0 {
		l.lifetime = time.Duration(cfg.DBConnMaxLifetimeMinutes) * time.Minute
	}
	return l
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	l := limitsFor(cfg)
	sqlDB.SetMaxOpenConns(l.maxOpen)
	sqlDB.SetMaxIdleConns(l.maxIdle)
	sqlDB.SetConnMaxLifetime(l.lifetime)
	return nil
}
