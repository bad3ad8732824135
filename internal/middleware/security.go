package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/emoai-app/emoai-backend/pkg/clientip"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

type limiterPool struct {
	mu         sync.Mutex
	entries    map[string]*limiterEntry
	newLimiter func() *rate.Limiter
	cleanupRun bool
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

func newLimiterPool(newLimiter func() *rate.Limiter) *limiterPool {
	return &limiterPool{
		entries:    make(map[string]*limiterEntry),
		newLimiter: newLimiter,
	}
}

func (p *limiterPool) get(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startCleanupOnce()
	e, ok := p.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: p.newLimiter(), lastUse: time.Now()}
		p.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (p *limiterPool) startCleanupOnce() {
	if p.cleanupRun {
		return
	}
	p.cleanupRun = true
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			p.mu.Lock()
			now := time.Now()
			for ip, e := range p.entries {
				if now.Sub(e.lastUse) > limiterTTL {
					delete(p.entries, ip)
				}
			}
			p.mu.Unlock()
		}
	}()
}

// Per-IP limits: 1 req/s burst 10 globally, 1 req/5s burst 2 on sign-in.
var (
	globalLimiters = newLimiterPool(func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(1), 10)
	})
	loginLimiters = newLimiterPool(func() *rate.Limiter {
		return rate.NewLimiter(rate.Every(5*time.Second), 2)
	})
)

var loginPaths = map[string]bool{
	"/api/auth/signin": true,
	"/api/auth/signup": true,
}

// GlobalRateLimit limits each IP to 1 req/s, burst 10. Returns 429 when exceeded.
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		if !globalLimiters.get(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many requests. Please slow down."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRateLimit applies a stricter limit to the auth routes only. Use after GlobalRateLimit.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !loginPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientip.RealClientIP(r)
		if !loginLimiters.get(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many login attempts. Please try again later."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → GlobalRateLimit → LoginRateLimit.
func ProductionSecurity() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		GlobalRateLimit,
		LoginRateLimit,
	}
}
