// Package proxy manages the working proxy pool: fetching endpoints
// from a provider API, health-checking them, and persisting the
// survivors between runs.
package proxy
