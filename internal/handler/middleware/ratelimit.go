package middleware

import (
	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/metrics"
	"github.com/andressep95/gameplan-api/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var errRateLimited = apperror.TooManyRequests("Too many requests from this user", apperror.CodeRateLimitExceeded)

// UserRateLimit throttles authenticated callers per user id. Anonymous
// requests pass untouched.
func UserRateLimit(limiter ratelimit.Limiter, m *metrics.Metrics, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := GetIdentity(c)
		if !ok {
			return c.Next()
		}

		allowed, err := limiter.Allow(c.UserContext(), identity.UserID.String())
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request",
				zap.String("user_id", identity.UserID.String()),
				zap.Error(err),
			)
		}
		if !allowed {
			m.RateLimited()
			return errRateLimited
		}

		return c.Next()
	}
}
