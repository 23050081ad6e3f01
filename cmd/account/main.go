package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/vds/vds-go/internal/authclient"
	"github.com/vds/vds-go/internal/config"
	"github.com/vds/vds-go/internal/logging"
	"github.com/vds/vds-go/internal/repository"
	"github.com/vds/vds-go/internal/server"
	"github.com/vds/vds-go/internal/service"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load("6000")
	logger := logging.New(logging.Config{
		Service: "account",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.AccountDatabaseDSN)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(db, cfg.DatabaseDriver, repository.SchemaAccount); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	authClient := authclient.New(cfg.AuthServiceURL, cfg.AuthServiceTimeout)
	authClient.Token = cfg.ServiceToken
	if cfg.ServiceToken == "" {
		logger.Warn("SERVICE_TOKEN is unset, registrations share the auth service's per-client rate limit")
	}

	accountRepo := repository.NewAccountRepository(db)
	accounts := service.NewAccountService(accountRepo, authClient, nil)
	trainings := service.NewTrainingService(repository.NewTrainingRepository(db), accountRepo, nil)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewAccountRouter(cfg, logger, db, accounts, trainings),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("auth service configured", "url", cfg.AuthServiceURL, "timeout", cfg.AuthServiceTimeout)
	if err := server.Run(ctx, srv, cfg.ShutdownGracePeriod); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
