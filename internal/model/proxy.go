package model

import "strings"

// ProxyScheme identifies how a proxy endpoint is dialed.
type ProxyScheme string

// Supported proxy schemes.
const (
	ProxySchemeHTTP   ProxyScheme = "http"
	ProxySchemeHTTPS  ProxyScheme = "https"
	ProxySchemeSOCKS4 ProxyScheme = "socks4"
	ProxySchemeSOCKS5 ProxyScheme = "socks5"
)

// ProxyEndpoint is a proxy connection string tagged with its scheme.
// Endpoints are owned by the proxy pool; the fetcher borrows one per
// attempt and never mutates it.
type ProxyEndpoint struct {
	// Scheme is the dialing scheme inferred from the raw string.
	Scheme ProxyScheme `json:"scheme"`

	// Address is the host:port part without the scheme prefix.
	Address string `json:"address"`
}

// ParseProxyEndpoint infers the scheme from the string's prefix.
// A bare host:port with no prefix defaults to http, matching how proxy
// providers commonly hand out plain HTTP endpoints.
func ParseProxyEndpoint(s string) ProxyEndpoint {
	s = strings.TrimSpace(s)
	for _, scheme := range []ProxyScheme{ProxySchemeSOCKS4, ProxySchemeSOCKS5, ProxySchemeHTTPS, ProxySchemeHTTP} {
		prefix := string(scheme) + "://"
		if strings.HasPrefix(s, prefix) {
			return ProxyEndpoint{Scheme: scheme, Address: strings.TrimPrefix(s, prefix)}
		}
	}
	return ProxyEndpoint{Scheme: ProxySchemeHTTP, Address: s}
}

// URL returns the canonical scheme://host:port form.
func (p ProxyEndpoint) URL() string {
	return string(p.Scheme) + "://" + p.Address
}

// String implements fmt.Stringer.
func (p ProxyEndpoint) String() string {
	return p.URL()
}
