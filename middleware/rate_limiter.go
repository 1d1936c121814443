package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmhodges/clock"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused bucket is kept. Any bucket idle this
// long has refilled completely, so dropping it does not change decisions.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LimiterStore holds one token bucket per key (client IP or Slack user).
// Buckets idle for limiterIdleTTL are swept on access.
type LimiterStore struct {
	limiters  map[string]*limiterEntry
	perMin    int
	clock     clock.Clock
	lastSweep time.Time
	mu        sync.Mutex
}

// NewLimiterStore allows perMin events per minute per key with an equal burst.
func NewLimiterStore(perMin int) *LimiterStore {
	if perMin <= 0 {
		perMin = 20
	}
	clk := clock.New()
	return &LimiterStore{
		limiters:  make(map[string]*limiterEntry),
		perMin:    perMin,
		clock:     clk,
		lastSweep: clk.Now(),
	}
}

// getLimiter returns the rate limiter for a given key, creating one if it doesn't exist.
func (s *LimiterStore) getLimiter(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now)
	entry, exists := s.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops idle buckets at most once per limiterIdleTTL. Callers hold mu.
func (s *LimiterStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < limiterIdleTTL {
		return
	}
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) >= limiterIdleTTL {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

func (s *LimiterStore) Allow(key string) bool {
	now := s.clock.Now()
	return s.getLimiter(key, now).AllowN(now, 1)
}

func (s *LimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimitMiddleware limits requests per client IP address.
func RateLimitMiddleware(store *LimiterStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientKey(c)
		if !store.Allow(ip) {
			logger.Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
