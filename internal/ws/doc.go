// Package ws streams the default-range dashboard summary to WebSocket clients.
//
// On connect a client immediately receives the current summary, then one
// more every interval while it stays connected:
//
//	{"event": "summary", "data": { /* GET /api/v1/dashboard without "table" */ }}
//	{"event": "error",   "error": "loader: fetch ...: unexpected status 503"}
//
// The summary always covers the full date range of the loaded dataset. The
// hub is mounted at /ws/stream by the serve command.
package ws
