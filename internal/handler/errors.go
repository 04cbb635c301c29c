package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/metrics"
	"github.com/andressep95/gameplan-api/internal/repository"
	"github.com/andressep95/gameplan-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Stack   string      `json:"stack,omitempty"`
}

type errorResponse struct {
	Success   bool      `json:"success"`
	Error     errorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
}

// ErrorHandler renders every error returned by a handler or middleware as
// the JSON error envelope. Unknown errors become a generic 500 and are
// logged in full.
func ErrorHandler(log *zap.Logger, m *metrics.Metrics, exposeStack bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := toAppError(err)

		if appErr.Status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.OriginalURL()),
				zap.String("ip", c.IP()),
				zap.Error(err),
			)
		} else {
			log.Debug("request rejected",
				zap.String("method", c.Method()),
				zap.String("path", c.OriginalURL()),
				zap.String("code", appErr.Code),
			)
		}

		if appErr.Status == http.StatusUnauthorized || appErr.Status == http.StatusForbidden {
			m.AuthFailure(appErr.Code)
		}

		body := errorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}
		if exposeStack {
			body.Stack = err.Error()
		}

		return writeError(c, appErr.Status, body)
	}
}

// NotFound answers requests that matched no route.
func NotFound(c *fiber.Ctx) error {
	return writeError(c, http.StatusNotFound, errorBody{
		Code:    apperror.CodeNotFound,
		Message: "Cannot " + c.Method() + " " + c.OriginalURL(),
		Details: fiber.Map{
			"method":     c.Method(),
			"path":       c.OriginalURL(),
			"suggestion": "Check the URL and HTTP method",
		},
	})
}

func writeError(c *fiber.Ctx, status int, body errorBody) error {
	return c.Status(status).JSON(errorResponse{
		Success:   false,
		Error:     body,
		Timestamp: time.Now().UTC().Format(timestampLayout),
		Path:      c.OriginalURL(),
		Method:    c.Method(),
	})
}

func toAppError(err error) *apperror.Error {
	if appErr, ok := apperror.As(err); ok {
		return appErr
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		return apperror.Validation(fiber.Map{"errors": verr.Errors})
	}

	var cerr *repository.ConstraintError
	if errors.As(err, &cerr) {
		return constraintError(cerr)
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return fiberError(ferr)
	}

	return apperror.Internal("Internal Server Error", err)
}

func constraintError(err *repository.ConstraintError) *apperror.Error {
	field := err.Field()

	switch err.Kind {
	case repository.UniqueViolation:
		appErr := apperror.BadRequest("Duplicate field value", apperror.CodeDuplicateField)
		if field != "" {
			return appErr.WithDetails(fiber.Map{"field": field, "message": field + " already exists"})
		}
		return appErr
	case repository.ForeignKeyViolation:
		return apperror.BadRequest("Referenced resource not found", apperror.CodeForeignKeyViolation)
	case repository.NotNullViolation:
		appErr := apperror.BadRequest("Required field missing", apperror.CodeRequiredField)
		if field != "" {
			return appErr.WithDetails(fiber.Map{"field": field, "message": field + " is required"})
		}
		return appErr
	case repository.InvalidTextRepresentation:
		return apperror.BadRequest("Invalid data format", apperror.CodeInvalidDataFormat)
	default:
		return apperror.Internal("Internal Server Error", err)
	}
}

func fiberError(err *fiber.Error) *apperror.Error {
	switch err.Code {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return apperror.BadRequest("Invalid JSON payload", apperror.CodeInvalidJSON)
	case fiber.StatusNotFound:
		return apperror.NotFound(err.Message, apperror.CodeNotFound)
	case fiber.StatusRequestEntityTooLarge:
		return apperror.New(err.Code, apperror.CodeRequestTooLarge, "Request entity too large")
	case fiber.StatusServiceUnavailable:
		return apperror.ServiceUnavailable(err.Message)
	}

	if err.Code >= fiber.StatusInternalServerError {
		return apperror.Internal("Internal Server Error", err)
	}
	code := strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(err.Code), " ", "_"))
	return apperror.New(err.Code, code, err.Message)
}
