package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/topcoder-platform/work-manager-sub000/pkg/metrics"
)

// HandleHealth serves GET /healthz from the custom metrics registry;
// liveness and scrape share the endpoint.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
