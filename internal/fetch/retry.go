package fetch

import (
	"context"
	"fmt"

	"github.com/backcheck/backcheck/internal/model"
)

// proxyRetries is how many proxies are tried after the direct attempt
// fails. Two retries keep the worst case at three timeouts per page.
const proxyRetries = 2

// Picker supplies random proxies for retry attempts. It is satisfied
// by the proxy pool; a nil Picker disables proxy retries.
type Picker interface {
	// Pick returns up to n distinct proxy strings chosen at random.
	Pick(n int) []string
}

// FetchWithRetry downloads the page at rawURL, trying a direct
// connection first and then up to two randomly picked proxies. It
// returns the decoded HTML and the number of attempts made.
func (c *Client) FetchWithRetry(ctx context.Context, rawURL string, picker Picker) (string, int, error) {
	attempts := 0

	attempts++
	content, err := c.Fetch(ctx, rawURL, nil)
	if err == nil {
		return content, attempts, nil
	}
	c.logger.Debug("direct fetch failed", "url", rawURL, "error", err)
	lastErr := err

	if picker != nil {
		for _, raw := range picker.Pick(proxyRetries) {
			if ctx.Err() != nil {
				break
			}

			endpoint := model.ParseProxyEndpoint(raw)
			attempts++
			content, err = c.Fetch(ctx, rawURL, &endpoint)
			if err == nil {
				c.logger.Debug("fetched through proxy", "url", rawURL, "proxy", endpoint.String())
				return content, attempts, nil
			}
			c.logger.Debug("proxy fetch failed", "url", rawURL, "proxy", endpoint.String(), "error", err)
			lastErr = err
		}
	}

	return "", attempts, fmt.Errorf("%w: %s (%d attempts): %w", ErrAllAttemptsFailed, rawURL, attempts, lastErr)
}
