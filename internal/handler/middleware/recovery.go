package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Recovery turns a panicking handler into a 500 handled by the app's
// error handler.
func Recovery(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("method", c.Method()),
					zap.String("path", c.OriginalURL()),
					zap.ByteString("stack", debug.Stack()),
				)
				err = apperror.Internal("Internal Server Error", fmt.Errorf("panic: %v", r))
			}
		}()

		return c.Next()
	}
}
