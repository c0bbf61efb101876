package handlers

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

const (
	streamEndSignal    = "END"
	maxStreamTitleLen  = 200
	defaultStreamTitle = "stream_recording"
)

// StreamHandler handles WebSocket audio streaming
type StreamHandler struct {
	intake   *Intake
	maxBytes int
}

// NewStreamHandler creates a new stream handler; maxSizeMB caps the buffered recording
func NewStreamHandler(intake *Intake, maxSizeMB int) *StreamHandler {
	return &StreamHandler{
		intake:   intake,
		maxBytes: maxSizeMB * 1024 * 1024,
	}
}

// Handle processes WebSocket connections
func (h *StreamHandler) Handle(c *websocket.Conn) {
	defer c.Close()

	var (
		buffer bytes.Buffer
		title  string
		ended  bool
		logger = h.intake.logger.With(zap.String("remote", c.RemoteAddr().String()))
	)

	logger.Debug("websocket connection established")

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.Debug("websocket read ended", zap.Error(err))
			break
		}

		if messageType == websocket.TextMessage {
			msg := string(message)
			if msg == streamEndSignal {
				ended = true
				break
			}
			if len(msg) > 0 && len(msg) < maxStreamTitleLen {
				title = msg
			}
			continue
		}

		if messageType == websocket.BinaryMessage {
			if h.maxBytes > 0 && buffer.Len()+len(message) > h.maxBytes {
				h.reply(c, map[string]any{"error": "stream too large", "code": apperr.CodeFileTooLarge})
				return
			}
			buffer.Write(message)
		}
	}

	if buffer.Len() == 0 {
		logger.Info("no audio data received in stream")
		if ended {
			h.reply(c, map[string]any{"error": "no audio received", "code": apperr.CodeNoAudio})
		}
		return
	}

	if title == "" {
		title = defaultStreamTitle
	}

	size := buffer.Len()
	session, err := h.intake.store(context.Background(), title, types.InputStream, ".webm", &buffer)
	if err != nil {
		logger.Error("failed to save stream", zap.Error(err))
		if ended {
			h.reply(c, map[string]any{"error": "failed to save stream", "code": apperr.CodeInternal})
		}
		return
	}

	logger.Info("stream saved", zap.String("session_id", session.ID), zap.Int("bytes", size))

	if ended {
		h.reply(c, map[string]any{"session_id": session.ID, "status": session.Status})
	}
}

func (h *StreamHandler) reply(c *websocket.Conn, body map[string]any) {
	data, err := json.Marshal(body)
	if err != nil {
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		h.intake.logger.Debug("websocket reply failed", zap.Error(err))
	}
}
