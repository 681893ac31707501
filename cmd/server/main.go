package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/task-tracker/internal/config"
	"github.com/hongminglow/task-tracker/internal/logging"
	"github.com/hongminglow/task-tracker/internal/server"
	"github.com/hongminglow/task-tracker/internal/storage/backend"
)

func main() {
	envLoaded := loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	slog.SetDefault(logger)
	if !envLoaded {
		logger.Info("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("init database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(cfg, store, logger)

	go func() {
		logger.Info("task tracker listening", slog.String("addr", cfg.HTTPAddress()), slog.Bool("auth_fail_closed", cfg.AuthFailClosed))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}

func loadLocalEnv() bool {
	return godotenv.Load() == nil
}
