package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func upstream(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"upstream": name,
			"path":     r.URL.Path,
			"query":    r.URL.RawQuery,
			"xff":      r.Header.Get("X-Forwarded-For"),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestGatewayRoutesByPrefix(t *testing.T) {
	auth := upstream(t, "auth")
	account := upstream(t, "account")

	gw, err := New(DefaultRoutes(auth.URL, account.URL))
	require.NoError(t, err)

	status, body := get(t, gw, "/uaa/users/current")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "auth", body["upstream"])
	require.Equal(t, "/users/current", body["path"])
	require.NotEmpty(t, body["xff"])

	status, body = get(t, gw, "/accounts/current?x=1")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "account", body["upstream"])
	require.Equal(t, "/accounts/current", body["path"])
	require.Equal(t, "x=1", body["query"])

	_, body = get(t, gw, "/trainings/7")
	require.Equal(t, "account", body["upstream"])

	status, body = get(t, gw, "/accountsX")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "no route for path", body["error"])
}

func TestGatewayLongestPrefixWins(t *testing.T) {
	a := upstream(t, "a")
	b := upstream(t, "b")

	gw, err := New([]Route{
		{Name: "a", Prefix: "/api", Upstream: a.URL},
		{Name: "b", Prefix: "/api/special", Upstream: b.URL, StripPrefix: true},
	})
	require.NoError(t, err)

	_, body := get(t, gw, "/api/special/x")
	require.Equal(t, "b", body["upstream"])
	require.Equal(t, "/x", body["path"])

	_, body = get(t, gw, "/api/other")
	require.Equal(t, "a", body["upstream"])
}

func TestGatewayUpstreamDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	gw, err := New([]Route{{Name: "accounts", Prefix: "/accounts", Upstream: deadURL}})
	require.NoError(t, err)

	status, body := get(t, gw, "/accounts/current")
	require.Equal(t, http.StatusBadGateway, status)
	require.Equal(t, "upstream unavailable", body["error"])
}

func TestLoadRoutes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
routes:
  - name: auth
    prefix: /uaa
    upstream: http://auth:5000
    strip_prefix: true
  - name: accounts
    prefix: /accounts
    upstream: http://account:6000
`), 0o600))

	routes, err := LoadRoutes(path)
	require.NoError(t, err)
	require.Equal(t, []Route{
		{Name: "auth", Prefix: "/uaa", Upstream: "http://auth:5000", StripPrefix: true},
		{Name: "accounts", Prefix: "/accounts", Upstream: "http://account:6000"},
	}, routes)
}

func TestLoadRoutesInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":          "routes: []\n",
		"no slash":       "routes:\n  - {name: a, prefix: api, upstream: http://a}\n",
		"bad upstream":   "routes:\n  - {name: a, prefix: /api, upstream: not-a-url}\n",
		"duplicate":      "routes:\n  - {name: a, prefix: /api, upstream: http://a}\n  - {name: b, prefix: /api, upstream: http://b}\n",
		"malformed yaml": "routes: [\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "routes.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, err := LoadRoutes(path)
			require.Error(t, err)
		})
	}

	_, err := LoadRoutes(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRoutesOrDefault(t *testing.T) {
	routes, err := LoadRoutesOrDefault("", "http://auth", "http://account")
	require.NoError(t, err)
	require.Equal(t, DefaultRoutes("http://auth", "http://account"), routes)
}

func TestShippedRoutesFile(t *testing.T) {
	routes, err := LoadRoutes(filepath.Join("..", "..", "configs", "routes.yaml"))
	require.NoError(t, err)
	require.Len(t, routes, 3)

	_, err = New(routes)
	require.NoError(t, err)
}
