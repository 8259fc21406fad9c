package handlers

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// An entry idle for a full hour has refilled its burst completely and is
// indistinguishable from a fresh one, so the sweep can drop it.
const idleEntryTTL = time.Hour

// clientLimiter enforces a per-client-address token bucket. The bucket
// starts full with a burst equal to the hourly ceiling and refills one
// token per 1/perHour of an hour, so a paced client can spend the initial
// burst plus the refill within its first hour, and at most perHour per
// rolling hour after that.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	limit   rate.Limit
	burst   int

	lastSweep time.Time
	now       func() time.Time
}

type clientEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(perHour int) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*clientEntry),
		limit:   rate.Every(time.Hour / time.Duration(perHour)),
		burst:   perHour,
		now:     time.Now,
	}
}

func (l *clientLimiter) limiterFor(addr string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.clients[addr]
	if !ok {
		e = &clientEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[addr] = e
	}
	e.lastSeen = now
	return e.lim
}

// sweep drops entries not seen for idleEntryTTL, at most once per TTL, so
// the map does not grow with every client address ever seen. Callers must
// hold l.mu.
func (l *clientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleEntryTTL {
		return
	}
	for addr, e := range l.clients {
		if now.Sub(e.lastSeen) >= idleEntryTTL {
			delete(l.clients, addr)
		}
	}
	l.lastSweep = now
}

// middleware rejects requests over the ceiling with 429 and a retry hint,
// before any state is touched.
func (l *clientLimiter) middleware(c *gin.Context) {
	lim := l.limiterFor(c.ClientIP())

	r := lim.Reserve()
	if !r.OK() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "rate limit exceeded",
		})
		return
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		retryAfter := int(math.Ceil(delay.Seconds()))
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":               "rate limit exceeded",
			"retry_after_seconds": retryAfter,
		})
		return
	}

	c.Next()
}
