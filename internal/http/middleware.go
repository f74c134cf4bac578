package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CustomLoggerMiddleware logs HTTP requests with the request id attached.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if logger == nil {
			return
		}

		logger.Info("http request",
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", c.ClientIP()),
		)
	}
}

// signalLimiterStore holds per-order rate limiters with automatic cleanup.
type signalLimiterStore struct {
	limiters sync.Map // map[string]*signalLimiterEntry
	rps      float64
	burst    int
}

type signalLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// SignalRateLimitMiddleware enforces per-order rate limiting on signal
// endpoints. Each order id gets an independent token bucket so one noisy
// order cannot starve signals for another.
//
// Returns 429 Too Many Requests with a Retry-After header when the bucket is
// empty.
func SignalRateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &signalLimiterStore{
		rps:   rps,
		burst: burst,
	}

	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		if orderID == "" {
			c.Next()
			return
		}

		limiter := store.getLimiter(orderID)

		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := int(reservation.Delay().Seconds())
			reservation.Cancel()

			if logger != nil {
				logger.Debug("signal rate limit exceeded",
					slog.String("order_id", orderID),
					slog.Int("retry_after", retryAfter),
				)
			}

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many signals for this order. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// getLimiter retrieves or creates a rate limiter for an order, evicting
// stale entries opportunistically to bound memory.
func (s *signalLimiterStore) getLimiter(orderID string) *rate.Limiter {
	if val, ok := s.limiters.Load(orderID); ok {
		entry := val.(*signalLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now()
		entry.mu.Unlock()
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(s.rps), s.burst)
	entry := &signalLimiterEntry{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	s.limiters.Store(orderID, entry)

	s.evictStale()

	return limiter
}

// evictStale removes limiters not touched for an hour. Piggybacking on
// limiter creation keeps memory bounded without a background goroutine.
func (s *signalLimiterStore) evictStale() {
	threshold := time.Now().Add(-1 * time.Hour)
	s.limiters.Range(func(key, value interface{}) bool {
		entry := value.(*signalLimiterEntry)
		entry.mu.Lock()
		stale := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if stale {
			s.limiters.Delete(key)
		}
		return true
	})
}
