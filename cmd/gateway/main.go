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
	"github.com/vds/vds-go/internal/gateway"
	"github.com/vds/vds-go/internal/logging"
	"github.com/vds/vds-go/internal/server"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load("4000")
	logger := logging.New(logging.Config{
		Service: "gateway",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	routes, err := gateway.LoadRoutesOrDefault(cfg.RoutesFile, cfg.AuthUpstreamURL, cfg.AccountUpstreamURL)
	if err != nil {
		logger.Error("failed to load routes", "error", err)
		os.Exit(1)
	}

	gw, err := gateway.New(routes)
	if err != nil {
		logger.Error("invalid routes", "error", err)
		os.Exit(1)
	}
	for _, rt := range routes {
		logger.Info("route", "name", rt.Name, "prefix", rt.Prefix, "upstream", rt.Upstream)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewGatewayRouter(cfg, logger, gw),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, srv, cfg.ShutdownGracePeriod); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
