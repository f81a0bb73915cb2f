package proxy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backcheck/backcheck/internal/config"
	"github.com/backcheck/backcheck/internal/fetch"
	"github.com/backcheck/backcheck/internal/model"
)

const (
	// checkConcurrency bounds parallel health probes.
	checkConcurrency = 10

	// checkLimit caps how many pool entries one health check probes.
	// Provider batches are at most 100; probing the first 20 keeps the
	// check under a minute even when everything times out.
	checkLimit = 20

	// checkTimeout bounds each individual probe.
	checkTimeout = 10 * time.Second
)

// Checker probes proxies against a well-known URL and keeps the ones
// that answer with a 200.
type Checker struct {
	probeURL string
	client   *fetch.Client
	logger   *slog.Logger
}

// NewChecker creates a Checker probing against probeURL. An empty
// probeURL uses the default probe endpoint.
func NewChecker(probeURL string, logger *slog.Logger) *Checker {
	if probeURL == "" {
		probeURL = config.DefaultProbeURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		probeURL: probeURL,
		client:   fetch.NewClient(fetch.WithTimeout(checkTimeout), fetch.WithLogger(logger)),
		logger:   logger,
	}
}

// Check probes up to checkLimit proxies concurrently and returns the
// working ones in their original order. Probe failures are expected
// and never abort the whole check.
func (c *Checker) Check(ctx context.Context, proxies []string) []string {
	if len(proxies) > checkLimit {
		proxies = proxies[:checkLimit]
	}

	working := make([]bool, len(proxies))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)
	for i, raw := range proxies {
		g.Go(func() error {
			endpoint := model.ParseProxyEndpoint(raw)
			if _, err := c.client.Fetch(ctx, c.probeURL, &endpoint); err != nil {
				c.logger.Debug("proxy failed health check", "proxy", endpoint.String(), "error", err)
				return nil
			}

			mu.Lock()
			working[i] = true
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()

	survivors := make([]string, 0, len(proxies))
	for i, ok := range working {
		if ok {
			survivors = append(survivors, proxies[i])
		}
	}
	c.logger.Debug("proxy health check finished", "probed", len(proxies), "working", len(survivors))
	return survivors
}
