// Package dashboard wires the loader, the dataset cache, the filter/derive
// pipeline and the presenter into a single Service. The HTTP API, the
// WebSocket stream and the CLI commands all go through it.
package dashboard
