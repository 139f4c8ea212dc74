package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// allower is satisfied by *redis_rate.Limiter.
type allower interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimiter enforces a per-caller limit backed by Redis. When Redis is
// unreachable it falls back to an in-process token bucket per key.
type RateLimiter struct {
	limiter  allower
	fallback *localLimiter
	limit    redis_rate.Limit
	prefix   string
	log      zerolog.Logger
}

// NewRateLimiter builds a limiter allowing perMinute requests with the given
// burst. limiter is normally redis_rate.NewLimiter(client).
func NewRateLimiter(limiter allower, prefix string, perMinute, burst int, log zerolog.Logger) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter:  limiter,
		fallback: &localLimiter{},
		limit:    redis_rate.Limit{Rate: perMinute, Burst: burst, Period: time.Minute},
		prefix:   prefix,
		log:      log,
	}
}

func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rl.key(c)
			res, err := rl.limiter.Allow(c.Request().Context(), key, rl.limit)
			if err != nil {
				rl.log.Warn().Err(err).Str("key", key).Msg("rate limiter backend error, using local limiter")
				res = rl.fallback.allow(key, rl.limit)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if res.Allowed == 0 {
				retryAfter := int(res.RetryAfter.Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
				})
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) key(c echo.Context) string {
	if caller := CallerFrom(c); caller.IdentityRef != "" {
		return "ratelimit:" + rl.prefix + ":identity:" + caller.IdentityRef
	}
	return "ratelimit:" + rl.prefix + ":ip:" + c.RealIP()
}

type localLimiter struct {
	limiters sync.Map
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	perSec := float64(limit.Rate) / limit.Period.Seconds()
	v, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(perSec), limit.Burst))
	lim := v.(*rate.Limiter)

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if lim.Allow() {
		res.Allowed = 1
	} else {
		res.RetryAfter = time.Duration(float64(time.Second) / perSec)
	}
	if remaining := int(lim.Tokens()); remaining > 0 {
		res.Remaining = remaining
	}
	return res
}
