package admin

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its token bucket before
// lazy cleanup drops it.
const visitorTTL = 3 * time.Minute

// apiVisitor tracks the token bucket for a single client address.
type apiVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// apiRateLimiter provides per-IP rate limiting for admin API endpoints
// to slow scripted abuse and key guessing. Each client address gets a
// token bucket refilled at the configured per-minute rate.
type apiRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*apiVisitor
	rate     rate.Limit
	burst    int
}

// newAPIRateLimiter creates a rate limiter allowing perMinute requests
// per minute with the given burst per client address.
func newAPIRateLimiter(perMinute, burst int) *apiRateLimiter {
	return &apiRateLimiter{
		visitors: make(map[string]*apiVisitor),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

// allow checks if the given IP may make another request.
// Returns (allowed, secondsUntilRetry).
func (rl *apiRateLimiter) allow(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Lazy cleanup: drop buckets idle past the TTL. Admin traffic is
	// small enough that a full sweep per request costs nothing.
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, k)
		}
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &apiVisitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	if v.limiter.Allow() {
		return true, 0
	}

	// Next token arrives one fill interval from now.
	retryAfter := int(time.Duration(float64(time.Second) / float64(rl.rate)).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter
}

// apiRateLimitMiddleware wraps an http.Handler with per-IP rate
// limiting. Requests from localhost are exempt (consistent with the
// auth bypass for localhost). When the limit is exceeded, responds with
// 429 Too Many Requests and a Retry-After header.
func apiRateLimitMiddleware(perMinute, burst int, next http.Handler) http.Handler {
	limiter := newAPIRateLimiter(perMinute, burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isLocalhost(r) {
			next.ServeHTTP(w, r)
			return
		}

		clientIP, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			clientIP = r.RemoteAddr
		}

		allowed, retryAfter := limiter.allow(clientIP)
		if !allowed {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}
