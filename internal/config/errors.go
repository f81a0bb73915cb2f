package config

import "errors"

var (
	// ErrNoInputFile is returned when no input spreadsheet is specified.
	ErrNoInputFile = errors.New("config: input file is required")

	// ErrNoDonorColumn is returned when the donor URL column is not named.
	ErrNoDonorColumn = errors.New("config: donor column is required")

	// ErrInvalidThreads is returned when the thread count is out of range.
	ErrInvalidThreads = errors.New("config: threads must be between 1 and 50")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("config: timeout must be positive")

	// ErrInvalidStartRow is returned when the start row is negative.
	ErrInvalidStartRow = errors.New("config: start row must not be negative")

	// ErrInvalidMaxBodySize is returned when the body size limit is negative.
	ErrInvalidMaxBodySize = errors.New("config: max body size must not be negative")

	// ErrConfigNotFound is returned when no configuration file exists at
	// the given or default locations.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrNoProviderAPIKey is returned when proxy fetching is requested
	// without a provider API key.
	ErrNoProviderAPIKey = errors.New("config: proxy provider api key is required")

	// ErrInvalidPerPage is returned when the provider page size is out of
	// the provider's accepted range.
	ErrInvalidPerPage = errors.New("config: provider perpage must be between 20 and 100")
)
