package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
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

	cfg := config.Load("5000")
	logger := logging.New(logging.Config{
		Service: "auth",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.AuthDatabaseDSN)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(db, cfg.DatabaseDriver, repository.SchemaAuth); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	credentials := service.NewCredentialService(repository.NewCredentialRepository(db), cfg.JWTSecret, cfg.JWTExpiry)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewAuthRouter(cfg, logger, db, credentials),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, srv, cfg.ShutdownGracePeriod); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
