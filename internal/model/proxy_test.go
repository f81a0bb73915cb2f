package model

import "testing"

func TestParseProxyEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		scheme  ProxyScheme
		address string
	}{
		{"socks5 prefix", "socks5://10.0.0.1:1080", ProxySchemeSOCKS5, "10.0.0.1:1080"},
		{"socks4 prefix", "socks4://10.0.0.2:1080", ProxySchemeSOCKS4, "10.0.0.2:1080"},
		{"https prefix", "https://proxy.example:8443", ProxySchemeHTTPS, "proxy.example:8443"},
		{"http prefix", "http://proxy.example:8080", ProxySchemeHTTP, "proxy.example:8080"},
		{"bare address defaults to http", "1.2.3.4:3128", ProxySchemeHTTP, "1.2.3.4:3128"},
		{"surrounding whitespace trimmed", "  socks5://10.0.0.1:1080 ", ProxySchemeSOCKS5, "10.0.0.1:1080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseProxyEndpoint(tt.raw)
			if got.Scheme != tt.scheme {
				t.Errorf("Scheme = %q, want %q", got.Scheme, tt.scheme)
			}
			if got.Address != tt.address {
				t.Errorf("Address = %q, want %q", got.Address, tt.address)
			}
		})
	}
}

func TestProxyEndpointURL(t *testing.T) {
	t.Parallel()

	p := ParseProxyEndpoint("1.2.3.4:3128")
	if got := p.URL(); got != "http://1.2.3.4:3128" {
		t.Errorf("URL() = %q, want %q", got, "http://1.2.3.4:3128")
	}
	if p.String() != p.URL() {
		t.Error("String() should equal URL()")
	}
}
