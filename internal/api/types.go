package api

import (
	"github.com/konkayan987-blip/Dashbord-condensate/internal/metrics"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status          string           `json:"status"`
	SourceURL       string           `json:"source_url"`
	Cached          bool             `json:"cached"`
	Rows            int              `json:"rows"`
	CacheAgeSeconds float64          `json:"cache_age_seconds"`
	CacheTTLSeconds float64          `json:"cache_ttl_seconds"`
	Metrics         metrics.Snapshot `json:"metrics"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
