// Package log provides slog handlers for backcheck.
//
// The redacting handler masks proxy-provider credentials and proxy
// authentication data before records reach the underlying handler, so
// API keys never end up in terminal scrollback or log files.
package log
