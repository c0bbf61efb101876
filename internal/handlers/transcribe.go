package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// JobService submits and reads transcription jobs.
type JobService interface {
	Submit(ctx context.Context, sessionID, engine string) (types.Job, error)
	Get(id string) (types.Job, error)
	List() []types.Job
}

type transcribeRequest struct {
	Engine string `json:"engine"`
}

// TranscribeHandler exposes job submission and polling
type TranscribeHandler struct {
	jobs JobService
}

// NewTranscribeHandler creates a new transcribe handler
func NewTranscribeHandler(jobs JobService) *TranscribeHandler {
	return &TranscribeHandler{jobs: jobs}
}

// Submit handles POST /transcribe/:session_id
func (h *TranscribeHandler) Submit(c *fiber.Ctx) error {
	req := transcribeRequest{Engine: string(types.EngineAuto)}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, apperr.Validation("invalid request body: %v", err))
		}
		if req.Engine == "" {
			req.Engine = string(types.EngineAuto)
		}
	}

	job, err := h.jobs.Submit(c.UserContext(), c.Params("session_id"), req.Engine)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":          job.ID,
		"session_id":      job.SessionID,
		"engine":          job.Engine,
		"resolved_engine": job.ResolvedEngine,
		"status":          types.StatusQueued,
		"message":         "Transcription job queued successfully",
	})
}

// Get handles GET /jobs/:id
func (h *TranscribeHandler) Get(c *fiber.Ctx) error {
	job, err := h.jobs.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(job)
}

// List handles GET /jobs
func (h *TranscribeHandler) List(c *fiber.Ctx) error {
	jobs := h.jobs.List()
	return c.JSON(fiber.Map{
		"jobs":  jobs,
		"count": len(jobs),
	})
}
