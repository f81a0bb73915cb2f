package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Where applicable these match the
// behavior of typical browser-imitating scanners; the timeout is short
// because donor pages are clearnet and slow donors are usually dead.
const (
	// DefaultTimeout bounds each individual fetch attempt. With the
	// direct attempt plus up to two proxy retries, the worst-case
	// latency per task is three times this value.
	DefaultTimeout = 15 * time.Second

	// DefaultThreads is the worker pool size. Five workers keep load
	// modest on shared proxies; users with good proxy pools commonly
	// raise this via --threads.
	DefaultThreads = 5

	// MaxThreads caps the worker pool. Beyond this the bottleneck is
	// the proxy pool, not CPU.
	MaxThreads = 50

	// DefaultMaxBodySize limits the response body read per page. Donor
	// pages larger than this are truncated; 10MB covers pathological
	// blog indexes without risking memory exhaustion.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultUserAgent imitates a desktop Chrome browser. Donor sites
	// frequently serve reduced or blocked pages to obvious bots, which
	// would produce false not_found results.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultProviderPerPage is the number of proxies requested from
	// the provider API per call.
	DefaultProviderPerPage = 20

	// DefaultProbeURL is fetched through each proxy during health
	// checks. Any 200 response qualifies the proxy as working.
	DefaultProbeURL = "http://httpbin.org/ip"

	// AppName is the application name used for XDG directory paths.
	AppName = "backcheck"
)

// Config holds all options for one verification run. It is populated
// from CLI flags and the optional config file, then passed through the
// application by dependency injection rather than global state.
type Config struct {
	// InputFile is the spreadsheet holding the donor list (.xlsx or .csv).
	InputFile string

	// DonorColumn is the header name of the column with donor URLs.
	// Required.
	DonorColumn string

	// TargetColumn is the header name of the column with target URLs
	// searched for in stage 1. Optional.
	TargetColumn string

	// AnchorColumn is the header name of the column with anchor texts
	// searched for in stage 2. Optional.
	AnchorColumn string

	// Domains is the domain list for stage 3 matching. Matching is a
	// case-insensitive substring test against each href's host.
	Domains []string

	// DomainsFromTargets derives additional stage 3 domains from the
	// hosts of the target URL column.
	DomainsFromTargets bool

	// StartRow is the input row to start processing from.
	StartRow int

	// Resume makes the run continue from the project's persisted
	// last-row instead of StartRow.
	Resume bool

	// Threads is the worker pool size. Fixed for the whole run.
	Threads int

	// Timeout bounds each individual fetch attempt.
	Timeout time.Duration

	// ProjectDir overrides the default per-project directory under the
	// XDG data dir.
	ProjectDir string

	// ConfigFilePath is the path to the configuration file. If empty,
	// .backcheck is searched in the current and home directories.
	ConfigFilePath string

	// FileSettings holds values loaded from the config file.
	FileSettings *File

	// UserAgent is sent with every page fetch.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Verbose enables debug-level logging.
	Verbose bool
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be error prone; this
// constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		Threads:     DefaultThreads,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for backcheck. Projects
// and the persisted proxy pool live here.
// On Linux: ~/.local/share/backcheck
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for backcheck.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid, returning a specific
// sentinel error for the first problem found. It is called once after
// CLI parsing, before any work begins.
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return ErrNoInputFile
	}
	if c.DonorColumn == "" {
		return ErrNoDonorColumn
	}
	if c.Threads <= 0 || c.Threads > MaxThreads {
		return ErrInvalidThreads
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.StartRow < 0 {
		return ErrInvalidStartRow
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
