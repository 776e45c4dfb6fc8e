// Package metrics keeps process-wide counters for dataset loads, cache hits
// and dashboard renders, and exposes them in the Prometheus text format.
package metrics
