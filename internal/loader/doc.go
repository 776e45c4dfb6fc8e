// Package loader fetches the condensate measurement sheet over HTTP and
// parses the CSV export into a dataset.Dataset.
//
// Parse(r, opts) is the pure half: header trimming, required-column checks,
// and the two date policies (strict fails the load on the first bad row,
// tolerant drops it). Loader.Load(ctx) adds the network fetch and wraps every
// failure in a *LoadError.
//
// Source authentication (API key, bearer token, basic) is injected by the
// authRoundTripper in loader.go.
package loader
