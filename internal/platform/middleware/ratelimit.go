package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *ipRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// evict drops visitors idle for longer than ttl.
func (l *ipRateLimiter) evict(ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if time.Since(v.lastSeen) > ttl {
			delete(l.visitors, ip)
		}
	}
}

// RateLimitMiddleware limits requests per client IP.
func RateLimitMiddleware(rps float64, burst int, log *zap.Logger) gin.HandlerFunc {
	limiter := newIPRateLimiter(rps, burst)
	var lastEvict time.Time
	var evictMu sync.Mutex

	return func(c *gin.Context) {
		evictMu.Lock()
		if time.Since(lastEvict) > time.Minute {
			lastEvict = time.Now()
			go limiter.evict(10 * time.Minute)
		}
		evictMu.Unlock()

		ip := c.ClientIP()
		if !limiter.get(ip).Allow() {
			log.Warn("rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"code": "RATE_LIMITED", "message": "rate limit exceeded, try again later"},
			})
			return
		}
		c.Next()
	}
}
