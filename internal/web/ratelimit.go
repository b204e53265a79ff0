package web

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client address. A bucket holds
// limit tokens and refills at limit per window.
type clientLimiter struct {
	limit  int
	window time.Duration
	refill rate.Limit

	mu      sync.Mutex
	clients map[string]*client

	done chan struct{}
	once sync.Once
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter creates a limiter owned by the server so Shutdown can stop
// its sweep loop.
func (s *Server) newRateLimiter(limit int, window time.Duration) *clientLimiter {
	if limit <= 0 {
		limit = 1
	}
	cl := &clientLimiter{
		limit:   limit,
		window:  window,
		refill:  rate.Every(window / time.Duration(limit)),
		clients: make(map[string]*client),
		done:    make(chan struct{}),
	}
	s.limiters = append(s.limiters, cl)
	go cl.sweep()
	return cl
}

// sweep drops clients idle for a full window. Their bucket would be full
// again, so forgetting them changes nothing.
func (cl *clientLimiter) sweep() {
	ticker := time.NewTicker(cl.window)
	defer ticker.Stop()
	for {
		select {
		case <-cl.done:
			return
		case now := <-ticker.C:
			cl.mu.Lock()
			for ip, c := range cl.clients {
				if now.Sub(c.lastSeen) > cl.window {
					delete(cl.clients, ip)
				}
			}
			cl.mu.Unlock()
		}
	}
}

func (cl *clientLimiter) stop() {
	cl.once.Do(func() { close(cl.done) })
}

func (cl *clientLimiter) bucket(ip string, now time.Time) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	c, ok := cl.clients[ip]
	if !ok {
		c = &client{bucket: rate.NewLimiter(cl.refill, cl.limit)}
		cl.clients[ip] = c
	}
	c.lastSeen = now
	return c.bucket
}

// take consumes a token for ip. When none is available it returns false and
// the time until one will be.
func (cl *clientLimiter) take(ip string) (bool, time.Duration) {
	now := time.Now()
	r := cl.bucket(ip, now).ReserveN(now, 1)
	if !r.OK() {
		return false, cl.window
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// middleware rejects clients that ran out of tokens with 429 and a
// Retry-After in whole seconds. RemoteAddr has already been rewritten by
// TrustedRealIP.
func (cl *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := cl.take(clientIP(r))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			respondError(w, r, errRateLimited, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
