package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched in the
// current and home directories.
const DefaultConfigFile = ".backcheck"

// Provider holds proxy provider API settings from the config file.
type Provider struct {
	// URL is the provider endpoint. The api_key, perpage and country
	// filters are appended as query parameters.
	URL string `yaml:"url"`

	// APIKey authenticates against the provider. Never logged.
	APIKey string `yaml:"api_key"`

	// PerPage is the number of proxies per request, 20 to 100.
	PerPage int `yaml:"perpage"`

	// Country restricts proxies to the given ISO country codes.
	Country string `yaml:"country"`

	// CountryNot excludes proxies from the given ISO country codes.
	CountryNot string `yaml:"country_not"`
}

// Validate checks the provider settings before an API call.
func (p *Provider) Validate() error {
	if p.APIKey == "" {
		return ErrNoProviderAPIKey
	}
	if p.PerPage != 0 && (p.PerPage < 20 || p.PerPage > 100) {
		return ErrInvalidPerPage
	}
	return nil
}

// File represents the .backcheck YAML configuration file.
//
// Example:
//
//	provider:
//	  url: https://example.com/api/getproxy/
//	  api_key: secret
//	  perpage: 50
//	  country: US,DE
//	domains:
//	  - example.com
//	  - example.org
type File struct {
	// Provider configures the proxy provider API.
	Provider Provider `yaml:"provider"`

	// Domains is the default stage-3 domain list, merged with the
	// --domains flag.
	Domains []string `yaml:"domains"`
}

// FindConfigFile locates the configuration file. An explicit path wins;
// otherwise the current directory and then the home directory are
// searched for DefaultConfigFile. ErrConfigNotFound is returned when no
// file exists, which callers treat as "run with defaults".
func FindConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
		}
		return explicit, nil
	}

	candidates := []string{DefaultConfigFile}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrConfigNotFound
}

// LoadFile parses the YAML configuration file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &f, nil
}

// Load resolves and parses the configuration file for c. A missing file
// is not an error unless the path was given explicitly.
func (c *Config) Load() error {
	path, err := FindConfigFile(c.ConfigFilePath)
	if err != nil {
		if c.ConfigFilePath == "" {
			return nil
		}
		return err
	}

	f, err := LoadFile(path)
	if err != nil {
		return err
	}
	c.FileSettings = f
	if len(c.Domains) == 0 {
		c.Domains = f.Domains
	}
	return nil
}
