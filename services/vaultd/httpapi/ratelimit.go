package httpapi

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter gates requests per client identity, adapted from the
// teacher gateway's middleware.RateLimiter down to the single global
// per-minute budget vaultd's config exposes.
type RateLimiter struct {
	perMinute int

	mu       sync.Mutex
	visitors map[string]*rate.Limiter
}

// NewRateLimiter builds a limiter allowing perMinute requests per client
// per minute, bursting up to perMinute. perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{perMinute: perMinute, visitors: make(map[string]*rate.Limiter)}
}

// Middleware wraps next with the rate check, rejecting with 429 once a
// client's bucket is exhausted.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	if r.perMinute <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		limiter := r.obtain(clientID(req))
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *RateLimiter) obtain(id string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.visitors[id]; ok {
		return l
	}
	perSecond := float64(r.perMinute) / 60.0
	l := rate.NewLimiter(rate.Limit(perSecond), r.perMinute)
	r.visitors[id] = l
	go r.expire(id)
	return l
}

func (r *RateLimiter) expire(id string) {
	time.Sleep(5 * time.Minute)
	r.mu.Lock()
	delete(r.visitors, id)
	r.mu.Unlock()
}

func clientID(req *http.Request) string {
	if key := strings.TrimSpace(req.Header.Get("X-API-Key")); key != "" {
		return "api-key:" + key
	}
	if ip := req.Header.Get("X-Forwarded-For"); ip != "" {
		if comma := strings.IndexByte(ip, ','); comma > 0 {
			ip = ip[:comma]
		}
		if parsed := net.ParseIP(strings.TrimSpace(ip)); parsed != nil {
			return parsed.String()
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
