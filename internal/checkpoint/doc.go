// Package checkpoint makes runs resumable.
//
// Each input file gets a project directory holding a copy of the
// input, a SQLite progress database, buffered result chunks, and the
// finalized CSV reports. Progress is flushed on a fixed cadence so a
// crash loses at most a handful of results.
package checkpoint
