// Package api implements the HTTP surface of the condensate dashboard.
//
// New(service) returns an http.Handler that serves:
//
//	GET /                    HTML dashboard (query: start, end, boiler*, status*)
//	GET /api/v1/dashboard    gauge, trend, table and aggregates as JSON
//	GET /api/v1/options      date bounds, boilers, statuses, row count
//	GET /api/v1/export       filtered table as a CSV attachment; 404 when empty
//	GET /api/v1/health       source and cache state, never triggers a load
//	GET /metrics             Prometheus text exposition
//
// Every endpoint returns 405 for non-GET methods. A failed load is 502 and an
// invalid date or status in the query is 400. A filter that matches nothing
// is not an error: the dashboard reports state "no_data".
//
// Wrap adds request-ID logging and gzip compression around the handler.
package api
