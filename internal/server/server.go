// Package server wires routers for the three binaries and runs them.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vds/vds-go/internal/config"
	"github.com/vds/vds-go/internal/gateway"
	"github.com/vds/vds-go/internal/handler"
	"github.com/vds/vds-go/internal/metrics"
	"github.com/vds/vds-go/internal/middleware"
	"github.com/vds/vds-go/internal/service"
)

func newRouter(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger(logger))
	r.Use(metrics.InstrumentHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// NewAuthRouter builds the auth service's routes.
func NewAuthRouter(cfg config.Config, logger *slog.Logger, db *sql.DB, credentials *service.CredentialService) http.Handler {
	h := handler.NewCredentialHandler(credentials)

	r := newRouter(logger)
	r.Get("/health", handler.Health(db))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ExemptServiceCallers(cfg.ServiceToken,
			middleware.RateLimitForwarded(cfg.RateLimitRPS, cfg.RateLimitBurst)))
		r.Post("/users", h.HandleCreate)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitForwarded(cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Post("/token", h.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ServiceOrJWTAuth(cfg.JWTSecret, cfg.ServiceToken))
		r.Get("/users/current", h.HandleCurrent)
		r.Get("/users/{username}", h.HandleGet)
	})

	return r
}

// NewAccountRouter builds the account service's routes.
func NewAccountRouter(cfg config.Config, logger *slog.Logger, db *sql.DB, accounts *service.AccountService, trainings *service.TrainingService) http.Handler {
	ah := handler.NewAccountHandler(accounts)
	th := handler.NewTrainingHandler(trainings, accounts)

	r := newRouter(logger)
	r.Get("/health", handler.Health(db))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitForwarded(cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Post("/accounts", ah.HandleCreate)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ServiceOrJWTAuth(cfg.JWTSecret, cfg.ServiceToken))
		r.Get("/accounts", ah.HandleList)
		r.Get("/accounts/current", ah.HandleGetCurrent)
		r.Put("/accounts/current", ah.HandleUpdateCurrent)
		r.Get("/accounts/current/credential", ah.HandleGetCurrentCredential)
		r.Get("/accounts/{email}", ah.HandleGet)
		r.Put("/accounts/{email}", ah.HandleUpdate)
		r.Post("/accounts/{email}/trainings", th.HandleCreate)
		r.Get("/accounts/{email}/trainings", th.HandleList)
		r.Get("/trainings/{id}", th.HandleGet)
		r.Put("/trainings/{id}", th.HandleUpdate)
	})

	return r
}

// NewGatewayRouter puts logging, metrics and per-IP rate limiting in front of gw.
func NewGatewayRouter(cfg config.Config, logger *slog.Logger, gw *gateway.Gateway) http.Handler {
	r := newRouter(logger)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Handle("/*", gw)
	})

	return r
}

// Run serves srv until ctx is done, then shuts it down within grace.
func Run(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}
