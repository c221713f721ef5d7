package httpclient

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostRateLimiter is a process-global per-host rate limiter, the token-bucket
// counterpart to HostSemaphore: the semaphore bounds concurrency, this bounds
// request rate. Both are consulted before a request leaves the process.
type HostRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// GlobalHostRate is the shared per-host limiter. Default: 8 requests/sec per
// host with a burst of 8, overridden via Configure at startup from config.
var GlobalHostRate = NewHostRateLimiter(8, 8)

func NewHostRateLimiter(rps float64, burst int) *HostRateLimiter {
	if rps <= 0 {
		rps = 8
	}
	if burst < 1 {
		burst = 1
	}
	return &HostRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}
}

// Configure replaces the per-host rate and burst for all hosts seen from now on.
func (h *HostRateLimiter) Configure(rps float64, burst int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rps <= 0 {
		rps = 8
	}
	if burst < 1 {
		burst = 1
	}
	h.rps, h.burst = rps, burst
	h.limiters = make(map[string]*rate.Limiter)
}

// Wait blocks until a request to rawURL's host is allowed to proceed, or ctx
// is cancelled first.
func (h *HostRateLimiter) Wait(ctx context.Context, rawURL string) error {
	return h.limiterFor(rawURL).Wait(ctx)
}

func (h *HostRateLimiter) limiterFor(rawURL string) *rate.Limiter {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Scheme + "://" + u.Host
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(h.rps), h.burst)
		h.limiters[host] = l
	}
	return l
}
