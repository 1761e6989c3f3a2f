package ratelimit

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter keeps one rate.Limiter per client IP.
// It is safe for concurrent use.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	nowFunc func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerMinute creates a limiter allowing perMinute requests per client per
// minute with the given burst.
func PerMinute(perMinute float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(perMinute / 60.0),
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether key may make a request now. When it may not,
// retry is how long until one would be allowed.
func (l *ClientLimiter) Allow(key string) (ok bool, retry time.Duration) {
	l.mu.Lock()
	now := l.nowFunc()
	c, exists := l.clients[key]
	if !exists {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	lim := c.limiter
	l.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Prune drops clients not seen for longer than idle. A dropped client
// restarts with a full burst, which an idle limiter has refilled to anyway.
func (l *ClientLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	n := 0
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > idle {
			delete(l.clients, ip)
			n++
		}
	}
	return n
}

// Cleanup prunes clients idle for longer than idle every interval until
// ctx is cancelled.
func (l *ClientLimiter) Cleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Prune(idle)
		case <-ctx.Done():
			return
		}
	}
}

// Middleware rejects requests from clients that exceed l with 429, a
// Retry-After header and a JSON error body. Clients are keyed by the host
// part of RemoteAddr; put middleware.RealIP in front of it when running
// behind a proxy. A nil limiter passes every request through.
func Middleware(l *ClientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := l.Allow(clientIP(r))
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(retry)))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "rate limit exceeded, please try again shortly",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retrySeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
