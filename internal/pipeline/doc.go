// Package pipeline narrows a loaded dataset to the user's criteria and
// derives the per-record status and the two summary means.
//
// FilterAndDerive is the only way to filter: the status predicate needs the
// derived status, so date and boiler filtering, derivation and status
// filtering run together in that order. Everything here is pure; nothing
// touches the network or mutates the input dataset.
//
// Status: "Below Target" when pct_condensate < target_pct, else "On Target".
package pipeline
