package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Route forwards every request whose path starts with Prefix to Upstream.
// With StripPrefix set the prefix is removed before forwarding.
type Route struct {
	Name        string `yaml:"name"`
	Prefix      string `yaml:"prefix"`
	Upstream    string `yaml:"upstream"`
	StripPrefix bool   `yaml:"strip_prefix"`
}

// RoutesConfig is the layout of the routes file.
type RoutesConfig struct {
	Routes []Route `yaml:"routes"`
}

// DefaultRoutes sends /uaa to the auth service and account traffic to the account service.
func DefaultRoutes(authURL, accountURL string) []Route {
	return []Route{
		{Name: "auth", Prefix: "/uaa", Upstream: authURL, StripPrefix: true},
		{Name: "accounts", Prefix: "/accounts", Upstream: accountURL},
		{Name: "trainings", Prefix: "/trainings", Upstream: accountURL},
	}
}

// LoadRoutes reads a routes file.
func LoadRoutes(path string) ([]Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}

	var cfg RoutesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse routes file: %w", err)
	}
	if len(cfg.Routes) == 0 {
		return nil, errors.New("routes file defines no routes")
	}

	if err := validateRoutes(cfg.Routes); err != nil {
		return nil, err
	}
	return cfg.Routes, nil
}

// LoadRoutesOrDefault loads path when set and falls back to DefaultRoutes otherwise.
func LoadRoutesOrDefault(path, authURL, accountURL string) ([]Route, error) {
	if path == "" {
		return DefaultRoutes(authURL, accountURL), nil
	}
	return LoadRoutes(path)
}

func validateRoutes(routes []Route) error {
	seen := make(map[string]bool, len(routes))
	for i, rt := range routes {
		if rt.Name == "" {
			return fmt.Errorf("route %d: name is required", i)
		}
		if !strings.HasPrefix(rt.Prefix, "/") {
			return fmt.Errorf("route %s: prefix must start with /", rt.Name)
		}
		if seen[rt.Prefix] {
			return fmt.Errorf("route %s: duplicate prefix %s", rt.Name, rt.Prefix)
		}
		seen[rt.Prefix] = true

		u, err := url.Parse(rt.Upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("route %s: invalid upstream %q", rt.Name, rt.Upstream)
		}
	}
	return nil
}
