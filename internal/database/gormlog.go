package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// GormLogger routes GORM output through slog so query logs carry the
// request, user and trace ids of the calling context.
type GormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

var _ logger.Interface = (*GormLogger)(nil)

// NewGormLogger returns a GORM logger writing through l. Record-not-found is
// never logged; callers map it to a 404.
func NewGormLogger(l *slog.Logger, level logger.LogLevel) *GormLogger {
	return &GormLogger{log: l, level: level, slow: defaultSlowQuery}
}

// WithSlowThreshold returns a copy that warns on statements slower than d.
// Zero disables slow query warnings.
func (g *GormLogger) WithSlowThreshold(d time.Duration) *GormLogger {
	cp := *g
	cp.slow = d
	return &cp
}

func (g *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, logger.Error, slog.LevelError, msg, data)
}

func (g *GormLogger) printf(ctx context.Context, min logger.LogLevel, lvl slog.Level, msg string, data []any) {
	if g.level >= min {
		g.log.Log(ctx, lvl, fmt.Sprintf(msg, data...))
	}
}

// Trace logs failed statements at error, slow ones at warn and everything
// else only at info.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= logger.Error:
		lvl, msg = slog.LevelError, "GORM query error"
	case g.slow > 0 && elapsed > g.slow && g.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "GORM slow query"
	case g.level >= logger.Info:
		lvl, msg = slog.LevelInfo, "GORM query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if lvl == slog.LevelError {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	g.log.LogAttrs(ctx, lvl, msg, attrs...)
}
