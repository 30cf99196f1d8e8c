package httpserver

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/defectlab/defectscan/internal/contract"
)

// limiterEvictSize caps the per-IP limiter map before it is reset wholesale.
const limiterEvictSize = 1000

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	perMin   int
	burst    int
}

func newIPLimiter(perMin int) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*rate.Limiter),
		perMin:   perMin,
		burst:    perMin * contract.DefaultBurstMultiple,
	}
}

// get returns the bucket for ip, creating it on first sight. When the map
// outgrows the eviction size it is cleared wholesale; a rare refilled bucket
// costs less than tracking per-entry ages.
func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[ip]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limiters[ip]; ok {
		return lim
	}
	if len(l.limiters) >= limiterEvictSize {
		l.limiters = make(map[string]*rate.Limiter)
	}
	lim = rate.NewLimiter(rate.Limit(float64(l.perMin)/60.0), l.burst)
	l.limiters[ip] = lim
	return lim
}

// middleware rejects requests over the per-IP budget with 429.
func (l *ipLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("rate limit of %d requests per minute exceeded", l.perMin),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
