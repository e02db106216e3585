package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limit types accepted by RateLimitMiddleware.
const (
	LimitMessage = "message"
	LimitFile    = "file"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	MessagesPerMinute int           // Max chat messages per client per minute
	FilesPerHour      int           // Max file uploads per client per hour
	BurstSize         int           // Allow burst of N messages
	CleanupInterval   time.Duration // How often to clean up old entries
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	elapsed := time.Since(tb.lastRefill).Seconds()
	return int(min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate)))
}

// ClientRateLimiter keeps one bucket per client address and limit type.
type ClientRateLimiter struct {
	config        RateLimiterConfig
	messageLimits map[string]*TokenBucket
	fileLimits    map[string]*TokenBucket
	mu            sync.Mutex
	logger        *zap.Logger
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// NewClientRateLimiter creates a limiter and starts its cleanup routine;
// call Stop to end it.
func NewClientRateLimiter(config RateLimiterConfig, logger *zap.Logger) *ClientRateLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	limiter := &ClientRateLimiter{
		config:        config,
		messageLimits: make(map[string]*TokenBucket),
		fileLimits:    make(map[string]*TokenBucket),
		logger:        logger,
		stopCleanup:   make(chan struct{}),
	}
	go limiter.cleanupRoutine()
	return limiter
}

func (l *ClientRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup forgets every client once the table grows large.
func (l *ClientRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.messageLimits)+len(l.fileLimits) > 1000 {
		l.logger.Info("Cleaning up rate limiter cache",
			zap.Int("message_limiters", len(l.messageLimits)),
			zap.Int("file_limiters", len(l.fileLimits)))
		l.messageLimits = make(map[string]*TokenBucket)
		l.fileLimits = make(map[string]*TokenBucket)
	}
}

// Stop stops the cleanup routine. It is safe to call more than once.
func (l *ClientRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func (l *ClientRateLimiter) bucket(limits map[string]*TokenBucket, client string, size int, perSecond float64) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := limits[client]
	if !ok {
		b = NewTokenBucket(float64(size), perSecond)
		limits[client] = b
	}
	return b
}

// AllowMessage checks if a chat message can be sent by client.
func (l *ClientRateLimiter) AllowMessage(client string) (allowed bool, remaining int) {
	b := l.bucket(l.messageLimits, client, l.config.BurstSize, float64(l.config.MessagesPerMinute)/60.0)
	allowed = b.Allow()
	return allowed, b.Remaining()
}

// AllowFile checks if client may upload another file.
func (l *ClientRateLimiter) AllowFile(client string) (allowed bool, remaining int) {
	size := max(l.config.FilesPerHour, 1)
	b := l.bucket(l.fileLimits, client, size, float64(l.config.FilesPerHour)/3600.0)
	allowed = b.Allow()
	return allowed, b.Remaining()
}

// RateLimitMiddleware rejects requests from clients that exhausted their
// bucket for limitType.
func RateLimitMiddleware(limiter *ClientRateLimiter, limitType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		var allowed bool
		var remaining, limit int

		switch limitType {
		case LimitMessage:
			allowed, remaining = limiter.AllowMessage(client)
			limit = limiter.config.BurstSize
		case LimitFile:
			allowed, remaining = limiter.AllowFile(client)
			limit = max(limiter.config.FilesPerHour, 1)
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown limit type"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			Logger(c).Warn("Rate limit exceeded",
				zap.String("client", client),
				zap.String("limit_type", limitType),
				zap.Int("limit", limit))

			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
