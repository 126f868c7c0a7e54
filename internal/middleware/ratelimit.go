package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterPool holds one token-bucket limiter per client IP. Entries that have
// not been seen for staleAfter are dropped by a background sweep so the pool
// does not grow without bound.
type limiterPool struct {
	clients sync.Map // map[string]*clientLimiter
	rps     rate.Limit
	burst   int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	sweepInterval = 5 * time.Minute
	staleAfter    = 10 * time.Minute
)

func newLimiterPool(rps float64, burst int) *limiterPool {
	p := &limiterPool{rps: rate.Limit(rps), burst: burst}
	go p.sweep()
	return p
}

func (p *limiterPool) get(ip string) *rate.Limiter {
	if v, ok := p.clients.Load(ip); ok {
		cl := v.(*clientLimiter)
		cl.lastSeen = time.Now()
		return cl.limiter
	}
	limiter := rate.NewLimiter(p.rps, p.burst)
	p.clients.Store(ip, &clientLimiter{limiter: limiter, lastSeen: time.Now()})
	return limiter
}

func (p *limiterPool) sweep() {
	for {
		time.Sleep(sweepInterval)
		p.clients.Range(func(key, value any) bool {
			if time.Since(value.(*clientLimiter).lastSeen) > staleAfter {
				p.clients.Delete(key)
			}
			return true
		})
	}
}

// RateLimiter returns an HTTP middleware enforcing a per-client token-bucket
// rate limit. Requests over the limit receive 429 Too Many Requests with a
// Retry-After header; allowed responses carry X-RateLimit-* headers.
func RateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	pool := newLimiterPool(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := pool.get(clientIP(r))

			reservation := limiter.Reserve()
			if !reservation.OK() {
				// The limiter cannot grant the request even with infinite wait.
				writeTooManyRequests(w, 0)
				return
			}
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				writeTooManyRequests(w, int(delay.Seconds())+1)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client IP from RemoteAddr, stripping the port.
// X-Forwarded-For is untrusted and deliberately ignored so clients cannot
// spoof their way past the limiter.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    429,
		"message": "rate limit exceeded",
	})
}
