package mw

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter stores a rate limiter per client IP and evicts idle entries.
type IPRateLimiter struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	r       rate.Limit
	b       int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	l := &IPRateLimiter{
		clients: make(map[string]*clientLimiter),
		r:       r,
		b:       b,
	}
	go l.evictLoop()
	return l
}

// GetLimiter returns the rate limiter for an IP address, creating it on
// first sight.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	cl, exists := i.clients[ip]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(i.r, i.b)}
		i.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

func (i *IPRateLimiter) evictLoop() {
	for range time.Tick(10 * time.Minute) {
		i.mu.Lock()
		for ip, cl := range i.clients {
			if time.Since(cl.lastSeen) > 30*time.Minute {
				delete(i.clients, ip)
			}
		}
		i.mu.Unlock()
	}
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
