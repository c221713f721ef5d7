package httpclient

import (
	"log"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// newTransport builds an *http.Transport and upgrades it to speak HTTP/2 over
// TLS via golang.org/x/net/http2 (the transport's own opportunistic h2
// upgrade only kicks in for trusted default TLS settings; ConfigureTransport
// makes it explicit and lets us keep tuning the underlying http.Transport).
func newTransport(respHeaderTimeout, idleConnTimeout time.Duration) *http.Transport {
	t := &http.Transport{
		ResponseHeaderTimeout: respHeaderTimeout,
		ExpectContinueTimeout: 5 * time.Second,
		IdleConnTimeout:       idleConnTimeout,
	}
	if err := http2.ConfigureTransport(t); err != nil {
		log.Printf("httpclient: http2.ConfigureTransport: %v (falling back to HTTP/1.1)", err)
	}
	return t
}

// Default returns an HTTP client with timeouts so that dead upstreams don't hang
// provider fetches or the HTTP API forever.
func Default() *http.Client {
	return &http.Client{
		Timeout:   60 * time.Second,
		Transport: newTransport(15*time.Second, 30*time.Second),
	}
}

// ForStreaming returns a client with no overall timeout (stream may be long-lived) but
// ResponseHeaderTimeout so that failover can happen when the upstream never responds.
func ForStreaming() *http.Client {
	return &http.Client{
		Transport: newTransport(15*time.Second, 90*time.Second),
	}
}

// WithTimeout returns a client like Default but with a caller-supplied overall
// timeout, for calls expected to take longer than the default 60s (e.g. a
// large playlist fetch or an Xtream series_info crawl).
func WithTimeout(d time.Duration) *http.Client {
	return &http.Client{
		Timeout:   d,
		Transport: newTransport(15*time.Second, 30*time.Second),
	}
}
