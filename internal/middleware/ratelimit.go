package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const defaultTrackedClients = 10000

// ClientRateLimiter hands out one token bucket per client IP. The least recently
// seen clients are evicted once the table is full.
type ClientRateLimiter struct {
	limit   rate.Limit
	burst   int
	clients *lru.Cache[string, *rate.Limiter]
}

// NewClientRateLimiter creates a limiter allowing perSecond requests with the given burst.
func NewClientRateLimiter(perSecond float64, burst int) (*ClientRateLimiter, error) {
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(perSecond)))
	}
	clients, err := lru.New[string, *rate.Limiter](defaultTrackedClients)
	if err != nil {
		return nil, err
	}
	return &ClientRateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: clients,
	}, nil
}

func (l *ClientRateLimiter) limiter(key string) *rate.Limiter {
	if lim, ok := l.clients.Get(key); ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.clients.Add(key, lim)
	return lim
}

// Allow reports whether the client may make a request now.
func (l *ClientRateLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

// RateLimit rejects requests over the per-client budget with 429. A nil limiter disables it.
func RateLimit(limiter *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.limit <= 0 {
			c.Next()
			return
		}
		if !limiter.Allow(c.ClientIP()) {
			retryAfter := 1
			if limiter.limit < 1 {
				retryAfter = int(math.Ceil(1 / float64(limiter.limit)))
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":           "RATE_LIMIT_EXCEEDED",
				"message":        "too many requests",
				CorrelationIDKey: c.GetString(CorrelationIDKey),
			})
			return
		}
		c.Next()
	}
}
