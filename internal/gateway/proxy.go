// Package gateway is the edge reverse proxy in front of the auth and account services.
package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"strings"

	"github.com/vds/vds-go/internal/logging"
	"github.com/vds/vds-go/internal/metrics"
)

type target struct {
	route Route
	proxy *httputil.ReverseProxy
}

// Gateway dispatches requests to upstreams by longest matching path prefix.
type Gateway struct {
	targets []target
}

// New builds a Gateway for routes.
func New(routes []Route) (*Gateway, error) {
	if err := validateRoutes(routes); err != nil {
		return nil, err
	}

	targets := make([]target, 0, len(routes))
	for _, rt := range routes {
		upstream, _ := url.Parse(rt.Upstream)
		targets = append(targets, target{route: rt, proxy: newProxy(rt, upstream)})
	}

	// Longest prefix first.
	sort.SliceStable(targets, func(i, j int) bool {
		return len(targets[i].route.Prefix) > len(targets[j].route.Prefix)
	})

	return &Gateway{targets: targets}, nil
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, t := range g.targets {
		if matches(r.URL.Path, t.route.Prefix) {
			t.proxy.ServeHTTP(w, r)
			return
		}
	}
	writeJSONError(w, http.StatusNotFound, "no route for path")
}

func matches(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || strings.HasSuffix(prefix, "/") || path[len(prefix)] == '/'
}

func newProxy(rt Route, upstream *url.URL) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			if rt.StripPrefix {
				path := strings.TrimPrefix(pr.In.URL.Path, rt.Prefix)
				if path == "" {
					path = "/"
				}
				pr.Out.URL.Path = path
				pr.Out.URL.RawPath = ""
			}
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			// The gateway has already assigned the request id on the way in.
			resp.Header.Del("X-Request-ID")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.FromContext(r.Context()).Error("upstream request failed",
				"route", rt.Name,
				"upstream", rt.Upstream,
				"error", err,
			)
			metrics.RecordUpstreamError(rt.Name)
			writeJSONError(w, http.StatusBadGateway, "upstream unavailable")
		},
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
