// Package cache holds the most recently loaded dataset for a bounded,
// wall-clock time window. It is a single-entry, single-key cache: loading a
// different key replaces the entry, and expiry is purely age based.
package cache
