package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/nomad-transcription/internal/health"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// EngineLister reports the engine catalog.
type EngineLister interface {
	List(ctx context.Context) []types.EngineDescriptor
}

// Waker wakes the remote GPU engine.
type Waker interface {
	Wake(ctx context.Context) (health.WakeResult, error)
}

// EnginesHandler serves engine status and the wynona wake endpoint
type EnginesHandler struct {
	catalog EngineLister
	wynona  Waker
}

// NewEnginesHandler creates a new engines handler
func NewEnginesHandler(catalog EngineLister, wynona Waker) *EnginesHandler {
	return &EnginesHandler{catalog: catalog, wynona: wynona}
}

// Status handles GET /engines/status
func (h *EnginesHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"engines": h.catalog.List(c.UserContext()),
	})
}

// Wake handles POST /engines/wynona/wake
func (h *EnginesHandler) Wake(c *fiber.Ctx) error {
	result, err := h.wynona.Wake(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{
		"success": result != health.WakeNotConfigured,
		"status":  result,
		"message": WakeMessage(result),
	}
	if result == health.WakeSignalSent {
		body["note"] = "Server may take several minutes to boot"
	}
	return c.JSON(body)
}

// WakeMessage is the human-readable text for a wake result.
func WakeMessage(result health.WakeResult) string {
	switch result {
	case health.WakeAlreadyOnline:
		return "WYNONA is already online"
	case health.WakeSignalSent:
		return "Wake signal sent to WYNONA"
	default:
		return "WYNONA host not configured"
	}
}
