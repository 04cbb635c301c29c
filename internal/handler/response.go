package handler

import (
	"errors"

	"github.com/andressep95/gameplan-api/internal/apperror"
	"github.com/andressep95/gameplan-api/internal/service"
	"github.com/andressep95/gameplan-api/pkg/validator"
	"github.com/gofiber/fiber/v2"
)

type successResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(successResponse{Success: true, Message: message, Data: data})
}

type normalizer interface {
	Normalize()
}

var errInvalidJSON = apperror.BadRequest("Invalid JSON payload", apperror.CodeInvalidJSON)

// bind parses the JSON body into req, normalizes it and validates it.
func bind(c *fiber.Ctx, v *validator.Validator, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return errInvalidJSON.Wrap(err)
	}

	if n, ok := req.(normalizer); ok {
		n.Normalize()
	}

	if err := v.Validate(req); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			return apperror.Validation(fiber.Map{"errors": verr.Errors})
		}
		return err
	}

	return nil
}

func clientInfo(c *fiber.Ctx) service.ClientInfo {
	return service.ClientInfo{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}
