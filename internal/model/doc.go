// Package model defines the core data types shared across backcheck:
// crawl tasks, match results, run statistics, and proxy endpoints.
//
// Types in this package are plain data with no I/O. Ownership rules:
// a Task is consumed exactly once by a crawl worker, a Result is
// immutable once produced, and ProjectState is mutated only by the
// checkpoint store.
package model
