package handlers

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/transcription"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

// SessionCreator records new sessions.
type SessionCreator interface {
	CreateSession(ctx context.Context, session types.Session) error
}

// AudioSaver persists audio and returns a reference engines can download.
type AudioSaver interface {
	SaveAudio(sessionID, ext string, r io.Reader) (string, error)
}

// Intake turns received audio into a session, shared by upload and stream.
type Intake struct {
	sessions SessionCreator
	audio    AudioSaver
	jobs     JobService
	logger   *zap.Logger
}

// NewIntake creates the shared intake path. jobs may be nil to disable
// transcribe-on-upload.
func NewIntake(sessions SessionCreator, audio AudioSaver, jobs JobService, logger *zap.Logger) *Intake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Intake{sessions: sessions, audio: audio, jobs: jobs, logger: logger}
}

// store saves the audio and creates a session with status uploaded.
func (in *Intake) store(ctx context.Context, title, inputMode, ext string, r io.Reader) (types.Session, error) {
	session := types.Session{
		ID:        uuid.New().String(),
		Title:     title,
		InputMode: inputMode,
		Status:    types.SessionUploaded,
		CreatedAt: time.Now().UTC(),
	}

	ref, err := in.audio.SaveAudio(session.ID, ext, r)
	if err != nil {
		return types.Session{}, err
	}
	session.FileURL = ref

	if err := in.sessions.CreateSession(ctx, session); err != nil {
		return types.Session{}, err
	}

	in.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("input_mode", inputMode),
		zap.String("file_url", ref),
	)
	return session, nil
}

// UploadHandler handles file uploads
type UploadHandler struct {
	intake    *Intake
	maxSizeMB int
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(intake *Intake, maxSizeMB int) *UploadHandler {
	return &UploadHandler{
		intake:    intake,
		maxSizeMB: maxSizeMB,
	}
}

// Handle processes the upload request
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, apperr.Validation("no file uploaded"))
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		title = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if h.maxSizeMB > 0 && file.Size > maxSize {
		return respondError(c, apperr.Validation("file too large (max %dMB)", h.maxSizeMB).
			WithCode(apperr.CodeFileTooLarge))
	}

	if !transcription.ValidateAudioFormat(file.Filename) {
		return respondError(c, apperr.Validation("unsupported file type, allowed: %s",
			strings.Join(transcription.SupportedFormats(), ", ")).
			WithCode(apperr.CodeUnsupportedAudio))
	}

	transcribe := false
	if raw := c.FormValue("transcribe"); raw != "" {
		transcribe, err = strconv.ParseBool(raw)
		if err != nil {
			return respondError(c, apperr.Validation("transcribe must be a boolean"))
		}
	}
	engine := c.FormValue("engine", string(types.EngineAuto))
	if transcribe {
		if _, ok := types.ParseEngineID(engine); !ok {
			return respondError(c, apperr.Validation("invalid engine %q", engine).WithCode(apperr.CodeInvalidEngine))
		}
	}

	src, err := file.Open()
	if err != nil {
		return respondError(c, apperr.Internal("failed to read upload", err))
	}
	defer src.Close()

	ctx := c.UserContext()
	session, err := h.intake.store(ctx, title, types.InputUpload, filepath.Ext(file.Filename), src)
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{
		"session_id": session.ID,
		"file_url":   session.FileURL,
		"status":     session.Status,
	}

	if transcribe && h.intake.jobs != nil {
		// The session is already stored, so a failed submit is reported
		// alongside it rather than as the response status.
		job, err := h.intake.jobs.Submit(ctx, session.ID, engine)
		if err != nil {
			h.intake.logger.Warn("transcribe on upload failed",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
			_, resp["transcribe_error"] = errorBody(err)
		} else {
			resp["job_id"] = job.ID
		}
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}
