package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
)

// respondError writes err as {"error": ..., "code": ...} with the status of its kind.
func respondError(c *fiber.Ctx, err error) error {
	status, body := errorBody(err)
	return c.Status(status).JSON(body)
}

func errorBody(err error) (int, fiber.Map) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal("internal error", err)
	}

	body := fiber.Map{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	return appErr.HTTPStatus(), body
}

// ErrorHandler is the fiber fallback for errors returned by handlers and
// middleware that did not write a response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		code := apperr.CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = apperr.CodeNotFound
		case fiber.StatusRequestEntityTooLarge:
			code = apperr.CodeFileTooLarge
		case fiber.StatusBadRequest:
			code = apperr.CodeInvalidInput
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": code})
	}
	return respondError(c, err)
}
