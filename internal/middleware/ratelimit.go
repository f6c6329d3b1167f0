package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/mini-trello-api/internal/errors"
)

const rateLimitIPPrefix = "ratelimit:ip:"

// tokenBucketScript refills and takes one token atomically.
// Returns {allowed, retry_after_seconds, remaining}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// RateLimitResult is the outcome of one rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// RateLimiter limits requests per client IP with a token bucket kept in
// Redis. The bucket holds limit tokens and refills over window.
type RateLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewRateLimiter(client redis.Scripter, limit int, window time.Duration, log logrus.FieldLogger) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window, log: log, now: time.Now}
}

// Check takes a token for ip.
func (l *RateLimiter) Check(ctx context.Context, ip string) (*RateLimitResult, error) {
	rate := float64(l.limit) / l.window.Seconds()
	ttl := int(l.window.Seconds())
	if ttl < 1 {
		ttl = 1
	}

	res, err := tokenBucketScript.Run(ctx, l.client,
		[]string{rateLimitIPPrefix + hashIP(ip)},
		rate, l.limit, l.now().Unix(), ttl,
	).Int64Slice()
	if err != nil {
		return nil, err
	}
	return &RateLimitResult{
		Allowed:    res[0] == 1,
		RetryAfter: time.Duration(res[1]) * time.Second,
		Remaining:  res[2],
	}, nil
}

// Middleware rejects clients over the limit with 429. Redis errors let the
// request through.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		result, err := l.Check(c.Request.Context(), ip)
		if err != nil {
			l.log.WithError(err).Warn("rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

		if !result.Allowed {
			l.log.WithFields(logrus.Fields{
				"ip":          ip,
				"endpoint":    c.Request.Method + " " + c.Request.URL.Path,
				"retry_after": int64(result.RetryAfter.Seconds()),
			}).Warn("rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			apierrors.TooManyRequests(c, "")
			return
		}
		c.Next()
	}
}

// hashIP keeps raw client addresses out of Redis.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
