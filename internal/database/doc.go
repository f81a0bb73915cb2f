// Package database provides SQLite-based storage for project progress.
//
// Each project keeps a single database file with one state row: the
// resume position, the category counters, and the last update time.
package database
