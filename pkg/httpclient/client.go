package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Config holds outbound HTTP settings.
type Config struct {
	// Timeout caps a whole exchange, body included.
	Timeout         time.Duration
	MaxConnsPerHost int
	UserAgent       string
}

// DefaultConfig suits calls between ReviewInsights components.
func DefaultConfig() Config {
	return Config{Timeout: 5 * time.Second, MaxConnsPerHost: 100, UserAgent: "review-insights"}
}

// Doer sends one prepared request. *Client and *CircuitBreakerClient both
// implement it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client is a pooled http.Client that sends each request exactly once.
type Client struct {
	http      *http.Client
	userAgent string
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	return &Client{
		http:      &http.Client{Transport: newTransport(cfg.MaxConnsPerHost), Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
	}
}

func newTransport(perHost int) *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   perHost,
		MaxConnsPerHost:       perHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// Do sends req bound to ctx. Transport failures are wrapped with the method
// and redacted URL; any HTTP status is returned to the caller as is.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http %s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	return resp, nil
}
