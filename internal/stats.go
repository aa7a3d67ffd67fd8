package internal

import (
	"encoding/json"
	"net/http"
)

// StatsProvider supplies dynamic counters for the monitoring endpoint.
type StatsProvider func() map[string]any

func StatsHandler(provider StatsProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(provider())
	})
}

func HealthzHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
