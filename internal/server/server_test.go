package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vds/vds-go/internal/authclient"
	"github.com/vds/vds-go/internal/config"
	"github.com/vds/vds-go/internal/gateway"
	"github.com/vds/vds-go/internal/model"
	"github.com/vds/vds-go/internal/repository"
	"github.com/vds/vds-go/internal/service"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		ServiceToken:   "svc-token",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthRouter(t *testing.T) {
	db, err := repository.NewDB(repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(db, repository.DriverSQLite, repository.SchemaAuth))

	cfg := testConfig()
	svc := service.NewCredentialService(repository.NewCredentialRepository(db), cfg.JWTSecret, cfg.JWTExpiry)
	r := NewAuthRouter(cfg, discardLogger(), db, svc)

	for path, want := range map[string]int{
		"/health":         http.StatusOK,
		"/metrics":        http.StatusOK,
		"/users/current":  http.StatusUnauthorized,
		"/users/somebody": http.StatusUnauthorized,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, want, rec.Code, path)
		require.NotEmpty(t, rec.Header().Get("X-Request-ID"), path)
	}
}

func TestConcurrentRegistrationsThroughAuthRouter(t *testing.T) {
	authDB, err := repository.NewDB(repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { authDB.Close() })
	require.NoError(t, repository.Migrate(authDB, repository.DriverSQLite, repository.SchemaAuth))

	accountDB, err := repository.NewDB(repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { accountDB.Close() })
	require.NoError(t, repository.Migrate(accountDB, repository.DriverSQLite, repository.SchemaAccount))

	cfg := testConfig()
	cfg.RateLimitRPS = 5
	cfg.RateLimitBurst = 10
	credentials := service.NewCredentialService(repository.NewCredentialRepository(authDB), cfg.JWTSecret, cfg.JWTExpiry)
	auth := httptest.NewServer(NewAuthRouter(cfg, discardLogger(), authDB, credentials))
	t.Cleanup(auth.Close)

	client := authclient.New(auth.URL, 30*time.Second)
	client.Token = cfg.ServiceToken
	accounts := service.NewAccountService(repository.NewAccountRepository(accountDB), client, nil)

	const users = 15
	errs := make([]error, users)
	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			email := "user" + strconv.Itoa(i) + "@x.com"
			_, errs[i] = accounts.Create(context.Background(),
				model.AccountDraft{Name: "User", Email: email},
				model.CredentialDraft{Username: email, Secret: "secret123"})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "user %d", i)
	}

	// End users calling /users directly are still limited per client.
	anonymous := authclient.New(auth.URL, 30*time.Second)
	direct := make([]error, cfg.RateLimitBurst+5)
	for i := range direct {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, direct[i] = anonymous.CreateCredential(context.Background(), "direct"+strconv.Itoa(i)+"@x.com", "secret123")
		}()
	}
	wg.Wait()

	var limited bool
	for _, err := range direct {
		var apiErr *authclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			limited = true
		}
	}
	require.True(t, limited)
}

func TestAccountRouter(t *testing.T) {
	db, err := repository.NewDB(repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(db, repository.DriverSQLite, repository.SchemaAccount))

	accountRepo := repository.NewAccountRepository(db)
	accounts := service.NewAccountService(accountRepo, nil, nil)
	trainings := service.NewTrainingService(repository.NewTrainingRepository(db), accountRepo, nil)
	r := NewAccountRouter(testConfig(), discardLogger(), db, accounts, trainings)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/accounts/missing@x.com", nil)
	req.Header.Set("Authorization", "Bearer svc-token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/current", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGatewayRouter(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Request-ID", r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(upstream.Close)

	gw, err := gateway.New(gateway.DefaultRoutes(upstream.URL, upstream.URL))
	require.NoError(t, err)
	r := NewGatewayRouter(testConfig(), discardLogger(), gw)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/current", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Equal(t, rec.Header().Get("X-Request-ID"), rec.Header().Get("X-Seen-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, time.Second) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}
	err = Run(context.Background(), srv, time.Second)
	require.Error(t, err)
}
