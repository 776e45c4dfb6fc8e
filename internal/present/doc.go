// Package present turns a filtered, derived dataset into display artifacts:
// the average gauge, the status-split trend, the data table and its CSV
// export. It also renders those artifacts as an HTML page with inline SVG.
//
// Nothing in this package computes aggregates. An empty result produces the
// no-data state and no artifacts.
package present
