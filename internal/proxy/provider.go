package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/backcheck/backcheck/internal/config"
)

// providerTimeout bounds the provider API call. It is generous because
// providers assemble the list server-side.
const providerTimeout = 30 * time.Second

// ErrProviderResponse is returned when the provider answers with a
// non-200 status or unparseable body.
var ErrProviderResponse = errors.New("proxy: provider returned an invalid response")

// Provider fetches proxy endpoints from a provider API.
//
// The API contract follows the htmlweb style: a GET with api_key,
// perpage and optional country filters, answered by a JSON object
// whose string values are proxy endpoints. The "limit" key reports the
// remaining quota and is skipped.
type Provider struct {
	settings config.Provider
	client   *http.Client
	logger   *slog.Logger
}

// NewProvider creates a Provider from config file settings.
func NewProvider(settings config.Provider, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		settings: settings,
		client:   &http.Client{Timeout: providerTimeout},
		logger:   logger,
	}
}

// Fetch requests a batch of proxies from the provider.
func (p *Provider) Fetch(ctx context.Context) ([]string, error) {
	if err := p.settings.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(p.settings.URL)
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}

	perPage := p.settings.PerPage
	if perPage == 0 {
		perPage = config.DefaultProviderPerPage
	}

	q := u.Query()
	q.Set("short", "2")
	q.Set("perpage", strconv.Itoa(perPage))
	q.Set("api_key", p.settings.APIKey)
	if p.settings.Country != "" {
		q.Set("country", p.settings.Country)
	}
	if p.settings.CountryNot != "" {
		q.Set("country_not", p.settings.CountryNot)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProviderResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}

	// The response object mixes proxy entries with metadata; only
	// string values that are not the quota counter are proxies.
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderResponse, err)
	}

	proxies := make([]string, 0, len(payload))
	for key, value := range payload {
		if key == "limit" {
			continue
		}
		if s, ok := value.(string); ok {
			proxies = append(proxies, s)
		}
	}
	sort.Strings(proxies)

	p.logger.Debug("fetched proxies from provider", "count", len(proxies))
	return proxies, nil
}
