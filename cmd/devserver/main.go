package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/threadlane/storefront-go/internal/devserver"
	"github.com/threadlane/storefront-go/pkg/config"
	"github.com/threadlane/storefront-go/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "devserver"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "devserver",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	server, err := devserver.New(cfg.DevServer, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap dev server", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"port": cfg.DevServer.Port,
	})
	if err := server.Run(ctx); err != nil {
		logg.Error(ctx, "dev server stopped unexpectedly", err)
		os.Exit(1)
	}
}
