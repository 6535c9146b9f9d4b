// Package nets builds the HTTP clients used to reach the repository host and
// the LLM providers.
package nets

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/net/proxy"
)

// ProxyFromEnv returns the first proxy address set in the environment.
func ProxyFromEnv() string {
	for _, key := range []string{"ALL_PROXY", "all_proxy", "SOCKS_PROXY", "socks_proxy"} {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// NewHTTPClient returns a client with the given timeout. proxyAddr may be an
// http(s) or socks5 URL; empty falls back to the standard proxy environment
// variables.
func NewHTTPClient(timeout time.Duration, proxyAddr string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyAddr != "" {
		u, err := url.Parse(proxyAddr)
		if err != nil {
			return nil, fmt.Errorf("parse proxy address: %w", err)
		}
		switch u.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
		case "socks", "socks5", "socks5h":
			dial, err := NewDialContext(proxyAddr)
			if err != nil {
				return nil, err
			}
			transport.Proxy = nil
			transport.DialContext = dial
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// DialFunc opens a connection the way net.Dialer.DialContext does.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// NewDialContext returns a dial function that tunnels through the socks
// proxy at proxyAddr. It returns nil for an empty or non-socks address, so
// callers keep their default dialer.
func NewDialContext(proxyAddr string) (DialFunc, error) {
	if proxyAddr == "" {
		return nil, nil
	}
	u, err := url.Parse(proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("parse proxy address: %w", err)
	}
	switch u.Scheme {
	case "socks", "socks5", "socks5h":
	default:
		return nil, nil
	}
	if u.Scheme == "socks" {
		u.Scheme = "socks5"
	}
	dialer, err := proxy.FromURL(u, &net.Dialer{Timeout: 30 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("socks proxy: %w", err)
	}
	return dialContext(dialer), nil
}

func dialContext(dialer proxy.Dialer) DialFunc {
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
}
