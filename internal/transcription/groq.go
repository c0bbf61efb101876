package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
	"github.com/codebuildervaibhav/nomad-transcription/internal/types"
)

const (
	defaultGroqURL     = "https://api.groq.com/openai/v1"
	defaultGroqTimeout = 300 * time.Second

	modelWhisperTurbo = "whisper-large-v3-turbo"
	modelWhisperLarge = "whisper-large-v3"
)

// GroqConfig holds the provider credential and endpoint.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// GroqEngine transcribes through Groq's OpenAI-compatible audio API. One
// instance serves one model tier.
type GroqEngine struct {
	id      types.EngineID
	model   string
	cfg     GroqConfig
	client  *http.Client
	fetcher AudioFetcher
	logger  *zap.Logger
}

// NewGroqEngine creates the engine for groq-turbo or groq-large.
func NewGroqEngine(id types.EngineID, cfg GroqConfig, fetcher AudioFetcher, logger *zap.Logger) (*GroqEngine, error) {
	var model string
	switch id {
	case types.EngineGroqTurbo:
		model = modelWhisperTurbo
	case types.EngineGroqLarge:
		model = modelWhisperLarge
	default:
		return nil, fmt.Errorf("engine %s is not a groq tier", id)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGroqURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGroqTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GroqEngine{
		id:      id,
		model:   model,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		fetcher: fetcher,
		logger:  logger.With(zap.String("engine", string(id))),
	}, nil
}

// ID returns the engine id.
func (g *GroqEngine) ID() types.EngineID { return g.id }

// Model returns the provider model this tier selects.
func (g *GroqEngine) Model() string { return g.model }

// Transcribe downloads the audio, sends it to Groq and parses the verbose
// JSON result. Errors are returned as-is; there is no retry.
func (g *GroqEngine) Transcribe(ctx context.Context, req Request) (*types.TranscriptionResult, error) {
	if g.cfg.APIKey == "" {
		return nil, apperr.Configuration("GROQ_API_KEY is not configured")
	}

	audio, err := g.fetcher.Download(ctx, req.AudioRef)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	g.logger.Debug("audio downloaded", zap.String("session_id", req.SessionID), zap.Int("bytes", len(audio)))

	body, contentType, err := g.buildForm(audio, audioFileName(req.AudioRef))
	if err != nil {
		return nil, apperr.Internal("build groq request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return nil, apperr.Internal("create groq request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	httpReq.Header.Set("Content-Type", contentType)

	started := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, apperr.Transport("groq transcription", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperr.Transport("groq transcription",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	var out groqResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.Transport("groq transcription", fmt.Errorf("decode response: %w", err))
	}

	result := out.toResult()
	g.logger.Info("transcription received",
		zap.String("session_id", req.SessionID),
		zap.String("model", g.model),
		zap.Int("segments", len(result.Segments)),
		zap.Int("words", result.WordCount),
		zap.Duration("took", time.Since(started)),
	)
	return result, nil
}

func (g *GroqEngine) buildForm(audio []byte, fileName string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreatePart(audioPartHeader(fileName))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write audio data: %w", err)
	}

	fields := map[string]string{
		"model":           g.model,
		"response_format": "verbose_json",
		"temperature":     "0",
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

// audioFileName keeps the reference's extension so the provider can detect
// the container; references without one are sent as mp3.
func audioFileName(ref string) string {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" || !ValidateAudioFormat("audio"+ext) {
		ext = ".mp3"
	}
	return "audio" + ext
}

// --- internal Groq API response types ---

type groqResponse struct {
	Text     string        `json:"text"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
	Segments []groqSegment `json:"segments"`
}

type groqSegment struct {
	ID           int     `json:"id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	AvgLogprob   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

func (r *groqResponse) toResult() *types.TranscriptionResult {
	segments := make([]types.Segment, len(r.Segments))
	for i, seg := range r.Segments {
		segments[i] = types.Segment{
			ID:           seg.ID,
			Start:        seg.Start,
			End:          seg.End,
			Text:         strings.TrimSpace(seg.Text),
			AvgLogprob:   seg.AvgLogprob,
			NoSpeechProb: seg.NoSpeechProb,
		}
	}

	duration := r.Duration
	if duration == 0 && len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	text := strings.TrimSpace(r.Text)
	return &types.TranscriptionResult{
		Text:      text,
		Language:  r.Language,
		Duration:  duration,
		Segments:  segments,
		WordCount: len(strings.Fields(text)),
	}
}
