// Package config loads the dashboard configuration from a YAML file.
//
// Config fields:
//   - Server.HTTPPort      : port for the dashboard, API and stream (default 8080)
//   - Server.StreamInterval: WebSocket summary push period (default 30s)
//   - Server.Gzip          : compress HTTP responses (default true)
//   - Source.URL           : CSV export URL of the measurement sheet
//   - Source.CacheTTL      : how long a loaded dataset is reused (default 1h)
//   - Source.DatePolicy    : "strict" (bad date fails the load) or "tolerant" (row dropped)
//   - Source.Auth / TLS    : optional credentials for a private export endpoint
//   - Dashboard.*          : page title, target reference line, export filename
//
// Load(path) applies defaults before unmarshalling, then validates. An empty
// path returns the defaults. Watch(ctx, path, onChange) re-loads the file on
// every write using fsnotify.
package config
