// Command main is the entry point for the forum backend server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"usof/internal/bootstrap"
	"usof/internal/config"
	"usof/internal/middleware"
	"usof/internal/observability"
	"usof/internal/server"
)

const shutdownTimeout = 10 * time.Second

// @title usof API
// @version 1.0
// @description Forum API with posts, threaded comments, categories and reactions

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "usof-api",
		ServiceVersion: "1.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}

	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return fmt.Errorf("initialize runtime: %w", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, redisClient)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		middleware.Logger.Info("shutdown signal received")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			middleware.Logger.Error("server shutdown failed", "error", err)
		}
		if err := shutdownTracing(sctx); err != nil {
			middleware.Logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		return err
	}
	// Listen returns once shutdown begins; wait for resources to close.
	<-done
	return nil
}
