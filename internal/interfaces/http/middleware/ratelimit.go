package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimitConfig tunes the per-owner token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
}

// DefaultRateLimitConfig allows short bursts over a modest sustained rate;
// a single freelancer answering chats never comes close.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		CleanupInterval:   5 * time.Minute,
	}
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// RateLimiter is a token-bucket limiter keyed per owner, falling back to the
// client address for anonymous requests.
type RateLimiter struct {
	rate  float64
	burst int

	mu      sync.Mutex
	buckets map[string]*tokenBucket

	stop chan struct{}
	once sync.Once
	now  func() time.Time
}

// NewRateLimiter starts the limiter and its idle-bucket janitor.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimitConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimitConfig().Burst
	}
	l := &RateLimiter{
		rate:    cfg.RequestsPerSecond,
		burst:   cfg.Burst,
		buckets: make(map[string]*tokenBucket),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if cfg.CleanupInterval > 0 {
		go l.cleanupLoop(cfg.CleanupInterval)
	}
	return l
}

// Allow consumes one token for the key if available.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: float64(l.burst), lastRefill: now}
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	refill := now.Sub(bucket.lastRefill).Seconds() * l.rate
	bucket.tokens += refill
	if bucket.tokens > float64(l.burst) {
		bucket.tokens = float64(l.burst)
	}
	bucket.lastRefill = now

	if bucket.tokens < 1 {
		return false
	}
	bucket.tokens--
	return true
}

// Handler rejects over-limit requests with 429 and a Retry-After hint.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := string(ContextOwnerID(r.Context()))
		if key == "" {
			key = clientAddr(r)
		}
		if !l.Allow(key) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"Too Many Requests","message":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the janitor.
func (l *RateLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := l.now().Add(-2 * interval)
			l.mu.Lock()
			for key, bucket := range l.buckets {
				bucket.mu.Lock()
				idle := bucket.lastRefill.Before(cutoff)
				bucket.mu.Unlock()
				if idle {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
