package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"resumegap/internal/errors"
	"resumegap/internal/observability"
)

// idleLimiterTTL is how long a client's bucket survives without traffic.
const idleLimiterTTL = 10 * time.Minute

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimiter keeps one token bucket per client key. Idle buckets are
// evicted by a background sweep until Close is called.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	perSecond rate.Limit
	burst     int
	ttl       time.Duration

	rejected atomic.Int64
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	logger   *errors.Logger
}

// NewRateLimiter allows requestsPerMin per key with room for burst requests
// at once.
func NewRateLimiter(requestsPerMin, burst int, logger *errors.Logger) *RateLimiter {
	rl := &RateLimiter{
		buckets:   make(map[string]*bucket),
		perSecond: rate.Limit(float64(requestsPerMin) / 60.0),
		burst:     burst,
		ttl:       idleLimiterTTL,
		now:       time.Now,
		stop:      make(chan struct{}),
		logger:    logger,
	}
	go rl.sweepLoop()
	return rl
}

// Allow takes a token from key's bucket. Rejections are counted.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = rl.now()
	rl.mu.Unlock()

	if b.limiter.Allow() {
		return true
	}
	rl.rejected.Add(1)
	return false
}

// GetStats reports the limiter settings and counters for /stats.
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	active := len(rl.buckets)
	rl.mu.Unlock()

	return map[string]any{
		"active_limiters":   active,
		"rate_per_minute":   float64(rl.perSecond) * 60.0,
		"burst_capacity":    rl.burst,
		"rejected_requests": rl.rejected.Load(),
	}
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() int {
	cutoff := rl.now().Add(-rl.ttl)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	evicted := 0
	for key, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, key)
			evicted++
		}
	}
	if evicted > 0 && rl.logger != nil {
		rl.logger.Debug("Evicted idle rate limiters", "evicted", evicted, "remaining", len(rl.buckets))
	}
	return evicted
}

// Close stops the eviction sweep. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// rateLimitMiddleware answers 429 once a client exhausts its bucket.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" || s.RateLimiter.Allow(key) {
				next(w, r)
				return
			}

			s.Logger.Info("Rate limit exceeded",
				"key", maskAPIKey(key),
				"endpoint", r.URL.Path,
				"request_id", requestIDFrom(r.Context()))
			s.om.RecordBusinessMetric(r.Context(), observability.MetricRateLimitHit, false,
				attribute.String("endpoint", r.URL.Path))
			writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
		}
	}
}

// getRateLimitKey prefers the caller's API key and falls back to its address.
// An empty key means the request is not limited.
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if key := requestAPIKey(r); key != "" {
			return "api:" + key
		}
	}
	if byIP {
		return "ip:" + getClientIP(r)
	}
	return ""
}

// getClientIP honours X-Forwarded-For, then X-Real-IP, then the peer address.
func getClientIP(r *http.Request) string {
	if ip := parseFirstIP(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip
	}
	if ip := parseFirstIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func parseFirstIP(list string) string {
	for candidate := range strings.SplitSeq(list, ",") {
		candidate = strings.TrimSpace(candidate)
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return ""
}
