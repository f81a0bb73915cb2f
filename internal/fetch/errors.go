package fetch

import "errors"

var (
	// ErrUnsupportedProxyScheme is returned for proxy schemes the
	// transport cannot build, currently socks4.
	ErrUnsupportedProxyScheme = errors.New("fetch: unsupported proxy scheme")

	// ErrHTTPStatus is returned when the server answers with a 4xx or
	// 5xx status.
	ErrHTTPStatus = errors.New("fetch: http error status")

	// ErrAllAttemptsFailed is returned when the direct attempt and all
	// proxy retries failed.
	ErrAllAttemptsFailed = errors.New("fetch: all attempts failed")
)
